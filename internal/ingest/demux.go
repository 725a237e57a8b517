package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"

	"arkiv/internal/config"
)

var (
	// ErrMalformedMultipart reports a framing failure: missing boundary,
	// unterminated part headers, or a terminal boundary that never arrives.
	ErrMalformedMultipart = errors.New("malformed multipart payload")

	// ErrRequestTooLarge reports that the streamed body exceeded the
	// aggregate request cap.
	ErrRequestTooLarge = errors.New("request exceeds the aggregate size cap")

	// ErrTooManyFiles reports more file parts than the configured maximum.
	ErrTooManyFiles = errors.New("request exceeds the file count limit")
)

// maxFieldBytes caps metadata field values. Fields carry short identifiers
// and dates; anything larger is a framing problem, not a legitimate value.
const maxFieldBytes = 4 << 10

// cappedBody enforces the aggregate byte cap while the multipart reader
// streams. Once the cap is consumed, a probe read distinguishes a body that
// ends exactly at the cap from one that keeps going.
type cappedBody struct {
	r         io.Reader
	remaining int64
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.remaining == 0 {
		var probe [1]byte
		n, err := b.r.Read(probe[:])
		if n > 0 {
			return 0, ErrRequestTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.r.Read(p)
	b.remaining -= int64(n)
	return n, err
}

// Demuxer turns the streamed request body into an ordered sequence of
// multipart parts. Parsing is inherently sequential: a part must be fully
// consumed before the next one can be read. Only one part's headers are held
// in memory at a time; bodies are exposed as streams so the caller decides
// the buffering policy.
type Demuxer struct {
	mr          *multipart.Reader
	maxFileSize int64
}

// NewDemuxer extracts the boundary token from the Content-Type header and
// prepares the part stream, capped at the aggregate request size.
func NewDemuxer(body io.Reader, contentType string, cfg config.IngestionConfig) (*Demuxer, error) {
	mediatype, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMultipart, err)
	}
	if mediatype != "multipart/form-data" || params["boundary"] == "" {
		return nil, fmt.Errorf("%w: content type %q has no boundary", ErrMalformedMultipart, mediatype)
	}

	capped := &cappedBody{r: body, remaining: cfg.MaxRequestSize()}
	return &Demuxer{
		mr:          multipart.NewReader(capped, params["boundary"]),
		maxFileSize: cfg.MaxFileSize,
	}, nil
}

// Part is one demultiplexed multipart section: parsed headers plus a
// readable body stream.
type Part struct {
	FormName    string
	Filename    string
	ContentType string

	body *multipart.Part
}

// IsFile reports whether the part carries a file payload rather than a
// metadata field.
func (p *Part) IsFile() bool {
	return p.Filename != ""
}

// Next returns the following part, io.EOF after the terminal boundary, or a
// mapped framing/size error.
func (d *Demuxer) Next() (*Part, error) {
	p, err := d.mr.NextPart()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, mapStreamError(err)
	}
	return &Part{
		FormName:    p.FormName(),
		Filename:    p.FileName(),
		ContentType: p.Header.Get("Content-Type"),
		body:        p,
	}, nil
}

// ReadValue consumes a metadata field's body. Values beyond maxFieldBytes
// are treated as malformed input.
func (p *Part) ReadValue() (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(p.body, maxFieldBytes+1)); err != nil {
		return "", mapStreamError(err)
	}
	if buf.Len() > maxFieldBytes {
		return "", fmt.Errorf("%w: field %q exceeds %d bytes", ErrMalformedMultipart, p.FormName, maxFieldBytes)
	}
	return buf.String(), nil
}

// ReadPayload accumulates the file body up to ceiling bytes. A body that
// exceeds the ceiling is drained and discarded so the following parts still
// parse, and truncated reports the overrun; the request as a whole keeps
// going so the overrun becomes a per-file error instead of a dropped
// connection.
func (p *Part) ReadPayload(ceiling int64) (payload []byte, truncated bool, err error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, p.body, ceiling+1)
	if err != nil && err != io.EOF {
		return nil, false, mapStreamError(err)
	}
	if n <= ceiling {
		return buf.Bytes(), false, nil
	}
	if _, err := io.Copy(io.Discard, p.body); err != nil {
		return nil, false, mapStreamError(err)
	}
	return buf.Bytes()[:ceiling], true, nil
}

// Discard drains an unrecognized part so the stream can advance.
func (p *Part) Discard() error {
	if _, err := io.Copy(io.Discard, p.body); err != nil {
		return mapStreamError(err)
	}
	return nil
}

// mapStreamError folds the size sentinel through untouched and classifies
// everything else as a framing failure.
func mapStreamError(err error) error {
	if errors.Is(err, ErrRequestTooLarge) {
		return ErrRequestTooLarge
	}
	return fmt.Errorf("%w: %v", ErrMalformedMultipart, err)
}
