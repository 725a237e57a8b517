package ingest

import (
	"bytes"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arkiv/internal/config"
	"arkiv/internal/model"
)

func testIngestionConfig() config.IngestionConfig {
	return config.IngestionConfig{
		MaxFileSize:      1 << 20,
		MaxFiles:         10,
		MetadataOverhead: 64 << 10,
		Types: []model.DocumentType{
			{ID: 1, Name: "Contrato", ReducedName: "CTR"},
			{ID: 2, Name: "Nota Fiscal", ReducedName: "NF"},
		},
	}
}

type bodyPart struct {
	name     string
	value    string
	filename string
	payload  []byte
}

func buildMultipart(t *testing.T, parts ...bodyPart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename != "" {
			fw, err := w.CreateFormFile(p.name, p.filename)
			require.NoError(t, err)
			_, err = fw.Write(p.payload)
			require.NoError(t, err)
		} else {
			require.NoError(t, w.WriteField(p.name, p.value))
		}
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestDemuxerSequence(t *testing.T) {
	body, contentType := buildMultipart(t,
		bodyPart{name: "id", value: "17"},
		bodyPart{name: "date", value: "2024-03-01"},
		bodyPart{name: "image", filename: "contrato.pdf", payload: []byte("%PDF-1.4 conteúdo")},
	)

	dmx, err := NewDemuxer(body, contentType, testIngestionConfig())
	require.NoError(t, err)

	p, err := dmx.Next()
	require.NoError(t, err)
	assert.Equal(t, "id", p.FormName)
	assert.False(t, p.IsFile())
	v, err := p.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, "17", v)

	p, err = dmx.Next()
	require.NoError(t, err)
	v, err = p.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", v)

	p, err = dmx.Next()
	require.NoError(t, err)
	assert.True(t, p.IsFile())
	assert.Equal(t, "contrato.pdf", p.Filename)
	payload, truncated, err := p.ReadPayload(1 << 20)
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Equal(t, []byte("%PDF-1.4 conteúdo"), payload)

	_, err = dmx.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNewDemuxerRejectsBadContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
	}{
		{"not multipart", "application/json"},
		{"missing boundary", "multipart/form-data"},
		{"unparseable", ";;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDemuxer(strings.NewReader(""), tt.contentType, testIngestionConfig())
			assert.ErrorIs(t, err, ErrMalformedMultipart)
		})
	}
}

func TestDemuxerAggregateCap(t *testing.T) {
	body, contentType := buildMultipart(t,
		bodyPart{name: "image", filename: "a.pdf", payload: bytes.Repeat([]byte("x"), 4096)},
	)

	cfg := testIngestionConfig()
	cfg.MaxFileSize = 1024
	cfg.MaxFiles = 1
	cfg.MetadataOverhead = 256

	dmx, err := NewDemuxer(body, contentType, cfg)
	require.NoError(t, err)

	var streamErr error
	for {
		p, err := dmx.Next()
		if err != nil {
			streamErr = err
			break
		}
		if _, _, err := p.ReadPayload(cfg.MaxFileSize); err != nil {
			streamErr = err
			break
		}
	}
	assert.ErrorIs(t, streamErr, ErrRequestTooLarge)
}

func TestDemuxerMalformedBody(t *testing.T) {
	// The terminal boundary never arrives.
	body, contentType := buildMultipart(t,
		bodyPart{name: "id", value: "17"},
		bodyPart{name: "image", filename: "a.pdf", payload: []byte("payload")},
	)
	truncatedBody := bytes.NewReader(body.Bytes()[:body.Len()-12])

	dmx, err := NewDemuxer(truncatedBody, contentType, testIngestionConfig())
	require.NoError(t, err)

	var streamErr error
	for {
		p, err := dmx.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		if err := p.Discard(); err != nil {
			streamErr = err
			break
		}
	}
	assert.ErrorIs(t, streamErr, ErrMalformedMultipart)
}

func TestReadPayloadTruncatesOversizedFile(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 2048)
	body, contentType := buildMultipart(t,
		bodyPart{name: "image", filename: "big.pdf", payload: payload},
		bodyPart{name: "id", value: "18"},
	)

	dmx, err := NewDemuxer(body, contentType, testIngestionConfig())
	require.NoError(t, err)

	p, err := dmx.Next()
	require.NoError(t, err)
	got, truncated, err := p.ReadPayload(1024)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Len(t, got, 1024)

	// The remainder was drained: the following part still parses.
	p, err = dmx.Next()
	require.NoError(t, err)
	assert.Equal(t, "id", p.FormName)
	v, err := p.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, "18", v)
}

func TestReadValueCapsFieldSize(t *testing.T) {
	body, contentType := buildMultipart(t,
		bodyPart{name: "id", value: strings.Repeat("x", maxFieldBytes+1)},
	)

	dmx, err := NewDemuxer(body, contentType, testIngestionConfig())
	require.NoError(t, err)

	p, err := dmx.Next()
	require.NoError(t, err)
	_, err = p.ReadValue()
	assert.ErrorIs(t, err, ErrMalformedMultipart)
}
