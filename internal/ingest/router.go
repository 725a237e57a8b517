package ingest

// Metadata field names, matching the upload form the web client posts.
const (
	fieldSequenceID = "id"
	fieldCreated    = "date"
	fieldExpiry     = "expire"
	fieldType       = "type"
	fieldPrivate    = "isPrivate"
)

// Submission is one file plus the metadata fields that preceded it inside a
// single multipart request. Field values stay raw strings until validation.
type Submission struct {
	SequenceID  string
	CreatedDate string
	ExpiryDate  string
	TypeID      string
	Private     bool

	Filename  string
	Payload   []byte
	Truncated bool

	hasMetadata bool
}

// Router groups the flat part sequence into submissions. Metadata fields
// accumulate onto the current draft; a file part seals the draft, and the
// next metadata field starts a fresh one. A sealed submission is never
// mutated again.
type Router struct {
	draft *Submission
}

func NewRouter() *Router {
	return &Router{}
}

// Recognized reports whether a field name belongs to the upload form.
// Unrecognized fields are discarded without affecting the draft.
func (r *Router) Recognized(name string) bool {
	switch name {
	case fieldSequenceID, fieldCreated, fieldExpiry, fieldType, fieldPrivate:
		return true
	}
	return false
}

// SetField records a metadata value on the current draft, opening a new one
// when none is in progress. Repeated fields overwrite: the last value before
// the file part wins.
func (r *Router) SetField(name, value string) {
	if r.draft == nil {
		r.draft = &Submission{}
	}
	r.draft.hasMetadata = true
	switch name {
	case fieldSequenceID:
		r.draft.SequenceID = value
	case fieldCreated:
		r.draft.CreatedDate = value
	case fieldExpiry:
		r.draft.ExpiryDate = value
	case fieldType:
		r.draft.TypeID = value
	case fieldPrivate:
		r.draft.Private = value == "true"
	}
}

// Seal attaches the file payload to the current draft and finishes it. A
// file part with no preceding metadata seals an empty submission, which
// validation rejects later rather than dropping it silently.
func (r *Router) Seal(filename string, payload []byte, truncated bool) *Submission {
	sub := r.draft
	if sub == nil {
		sub = &Submission{}
	}
	r.draft = nil

	sub.Filename = filename
	sub.Payload = payload
	sub.Truncated = truncated
	return sub
}
