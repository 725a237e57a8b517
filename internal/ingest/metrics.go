package ingest

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts ingestion outcomes. A nil *Metrics is valid and counts
// nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	stored    prometheus.Counter
	rejected  prometheus.Counter
	duplicate prometheus.Counter
}

// NewMetrics registers the ingestion counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		stored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arkiv_ingest_files_stored_total",
			Help: "Files validated, deduplicated and persisted.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arkiv_ingest_files_rejected_total",
			Help: "Files rejected by per-submission validation.",
		}),
		duplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arkiv_ingest_files_duplicate_total",
			Help: "Files skipped because their content hash was already stored.",
		}),
	}
	for _, c := range []prometheus.Counter{m.stored, m.rejected, m.duplicate} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) incStored() {
	if m != nil {
		m.stored.Inc()
	}
}

func (m *Metrics) incRejected() {
	if m != nil {
		m.rejected.Inc()
	}
}

func (m *Metrics) incDuplicate() {
	if m != nil {
		m.duplicate.Inc()
	}
}
