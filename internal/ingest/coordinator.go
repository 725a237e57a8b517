// Package ingest implements the multipart upload pipeline: demultiplexing
// the streamed request body into parts, grouping parts into per-file
// submissions, validating each submission, content-addressing payloads by
// SHA-256 and coordinating deduplicated persistence.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"arkiv/internal/config"
	"arkiv/internal/model"
)

// ErrDuplicate is returned by a DocumentStore insert that lost the race to
// another upload of the same content.
var ErrDuplicate = errors.New("document already stored")

// DocumentStore is the persistence port the coordinator drives. It hides
// blob storage and the metadata database behind one atomic surface.
type DocumentStore interface {
	// FindByHash reports whether a document with the given content hash
	// already exists.
	FindByHash(ctx context.Context, hash string) (*model.Document, bool, error)
	// Insert persists the document metadata and its payload as a unit.
	// It returns ErrDuplicate when the content hash is already stored.
	Insert(ctx context.Context, doc *model.Document, payload []byte) error
}

// RequestInfo carries the request attributes the precondition checks need,
// keeping the coordinator independent of the HTTP framework.
type RequestInfo struct {
	Method        string
	ContentType   string
	ContentLength int64
	Origin        string
	UserAgent     string
}

// PreconditionError aborts the whole request before or during streaming; no
// per-file results are produced.
type PreconditionError struct {
	Status  int
	Code    string
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// Result is the aggregate ingestion outcome returned to the client. A
// request whose files all failed validation is still Success: the request
// itself was well-formed and every submission got an individual verdict.
type Result struct {
	Success  bool        `json:"success"`
	Uploaded []string    `json:"uploaded"`
	Errors   []FileError `json:"errors"`
	Message  string      `json:"message"`
}

// Coordinator runs the ingestion pipeline for one request at a time. The
// demuxer feeds it sequentially; sealed submissions are processed in
// parallel goroutines that all block on a commit gate, so nothing is
// persisted until the whole request has streamed in within its limits.
type Coordinator struct {
	store   DocumentStore
	metrics *Metrics
}

func NewCoordinator(store DocumentStore, metrics *Metrics) *Coordinator {
	return &Coordinator{store: store, metrics: metrics}
}

// outcome is one submission pipeline's terminal state.
type outcome struct {
	sequenceID string
	fileErr    *FileError
	err        error
}

// Ingest streams the multipart body, validates and persists each submission,
// and aggregates the per-file outcomes. Request-level failures return a
// *PreconditionError; any other returned error is an internal fault.
func (co *Coordinator) Ingest(ctx context.Context, body io.Reader, req RequestInfo, cfg config.IngestionConfig, actor model.Actor) (*Result, error) {
	if perr := checkPreconditions(req, cfg); perr != nil {
		return nil, perr
	}

	dmx, err := NewDemuxer(body, req.ContentType, cfg)
	if err != nil {
		return nil, preconditionFor(err)
	}

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	router := NewRouter()
	// Closed only after the demuxer reaches the terminal boundary with the
	// file count within bounds. Until then no pipeline may persist anything,
	// which is what makes a late abort leave no partial state behind.
	commit := make(chan struct{})
	// Buffered to the launch ceiling so pipelines never block on send and
	// cannot leak when the request is aborted mid-stream.
	results := make(chan outcome, cfg.MaxFiles)

	launched := 0
	var streamErr error
	for {
		part, nerr := dmx.Next()
		if nerr == io.EOF {
			break
		}
		if nerr != nil {
			streamErr = nerr
			break
		}

		switch {
		case part.IsFile():
			if launched == cfg.MaxFiles {
				streamErr = ErrTooManyFiles
				break
			}
			payload, truncated, rerr := part.ReadPayload(dmx.maxFileSize)
			if rerr != nil {
				streamErr = rerr
				break
			}
			sub := router.Seal(part.Filename, payload, truncated)
			launched++
			go co.process(pctx, sub, cfg, actor, commit, results)
		case router.Recognized(part.FormName):
			value, rerr := part.ReadValue()
			if rerr != nil {
				streamErr = rerr
				break
			}
			router.SetField(part.FormName, value)
		default:
			if derr := part.Discard(); derr != nil {
				streamErr = derr
			}
		}
		if streamErr != nil {
			break
		}
	}

	if streamErr != nil {
		// Abandon the in-flight pipelines before any of them commits, then
		// drain so none is left blocked.
		cancel()
		for i := 0; i < launched; i++ {
			<-results
		}
		return nil, preconditionFor(streamErr)
	}

	close(commit)

	res := &Result{Success: true, Uploaded: []string{}, Errors: []FileError{}}
	var internal error
	for i := 0; i < launched; i++ {
		o := <-results
		switch {
		case o.err != nil:
			internal = o.err
		case o.fileErr != nil:
			res.Errors = append(res.Errors, *o.fileErr)
		default:
			res.Uploaded = append(res.Uploaded, o.sequenceID)
		}
	}
	if internal != nil {
		return nil, internal
	}

	res.Message = summaryMessage(len(res.Uploaded), len(res.Errors))
	return res, nil
}

// process runs one submission through validation, content addressing,
// deduplication and persistence. It always sends exactly one outcome.
func (co *Coordinator) process(ctx context.Context, sub *Submission, cfg config.IngestionConfig, actor model.Actor, commit <-chan struct{}, out chan<- outcome) {
	v, ferr := Validate(sub, cfg)
	if ferr != nil {
		co.metrics.incRejected()
		out <- outcome{fileErr: ferr}
		return
	}
	if sub.Truncated {
		co.metrics.incRejected()
		out <- outcome{fileErr: &FileError{SequenceID: sub.SequenceID, Message: MsgFileTooLarge}}
		return
	}
	if sub.Private && !actor.CanViewPrivate() {
		co.metrics.incRejected()
		out <- outcome{fileErr: &FileError{SequenceID: sub.SequenceID, Message: MsgPrivateDenied}}
		return
	}

	hash := Digest(sub.Payload)
	if _, found, err := co.store.FindByHash(ctx, hash); err != nil {
		out <- outcome{err: fmt.Errorf("hash lookup: %w", err)}
		return
	} else if found {
		co.metrics.incDuplicate()
		out <- outcome{fileErr: &FileError{SequenceID: sub.SequenceID, Message: MsgDuplicate}}
		return
	}

	select {
	case <-ctx.Done():
		out <- outcome{err: ctx.Err()}
		return
	case <-commit:
	}

	access := model.AccessPublic
	if sub.Private {
		access = model.AccessPrivate
	}
	doc := &model.Document{
		Hash:           hash,
		Filename:       sub.Filename,
		StorageKey:     hash + v.ext,
		Size:           int64(len(sub.Payload)),
		Access:         access,
		DocumentTypeID: v.typeID,
		CreatedAt:      v.createdAt,
		UploadedAt:     time.Now().UTC(),
		ExpiresAt:      v.expiresAt,
	}

	if err := co.store.Insert(ctx, doc, sub.Payload); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost an insert race within this request or against a
			// concurrent one; the stored content is identical either way.
			co.metrics.incDuplicate()
			out <- outcome{fileErr: &FileError{SequenceID: sub.SequenceID, Message: MsgDuplicate}}
			return
		}
		out <- outcome{err: fmt.Errorf("persist document: %w", err)}
		return
	}

	co.metrics.incStored()
	out <- outcome{sequenceID: sub.SequenceID}
}

// checkPreconditions runs the fail-fast request checks before any body byte
// is parsed.
func checkPreconditions(req RequestInfo, cfg config.IngestionConfig) *PreconditionError {
	if req.Method != http.MethodPost {
		return &PreconditionError{Status: http.StatusBadRequest, Code: "METHOD_NOT_ALLOWED", Message: "only POST is accepted for uploads"}
	}
	if req.ContentLength > cfg.MaxRequestSize() {
		return &PreconditionError{Status: http.StatusRequestEntityTooLarge, Code: "REQUEST_TOO_LARGE", Message: "request body exceeds the upload size limit"}
	}
	if req.Origin == "" {
		return &PreconditionError{Status: http.StatusBadRequest, Code: "ORIGIN_REQUIRED", Message: "missing Origin header"}
	}
	if req.UserAgent == "" {
		return &PreconditionError{Status: http.StatusBadRequest, Code: "USER_AGENT_REQUIRED", Message: "missing User-Agent header"}
	}
	mediatype, params, err := mime.ParseMediaType(req.ContentType)
	if err != nil || mediatype != "multipart/form-data" || params["boundary"] == "" {
		return &PreconditionError{Status: http.StatusBadRequest, Code: "INVALID_CONTENT_TYPE", Message: "content type must be multipart/form-data with a boundary"}
	}
	return nil
}

// preconditionFor maps a streaming failure onto the request-level error the
// client sees.
func preconditionFor(err error) *PreconditionError {
	switch {
	case errors.Is(err, ErrRequestTooLarge):
		return &PreconditionError{Status: http.StatusRequestEntityTooLarge, Code: "REQUEST_TOO_LARGE", Message: "request body exceeds the upload size limit"}
	case errors.Is(err, ErrTooManyFiles):
		return &PreconditionError{Status: http.StatusRequestEntityTooLarge, Code: "TOO_MANY_FILES", Message: "request carries more files than allowed"}
	default:
		return &PreconditionError{Status: http.StatusBadRequest, Code: "MALFORMED_MULTIPART", Message: "request body is not valid multipart/form-data"}
	}
}

// summaryMessage is the aggregate message shown to the uploader.
func summaryMessage(uploaded, failed int) string {
	switch {
	case uploaded == 0 && failed == 0:
		return "Nenhum arquivo foi enviado"
	case failed == 0:
		return "Todos os arquivos foram enviados com sucesso"
	case uploaded == 0:
		return "Nenhum arquivo foi enviado"
	default:
		return fmt.Sprintf("%d arquivo(s) enviado(s), %d arquivo(s) recusado(s)", uploaded, failed)
	}
}
