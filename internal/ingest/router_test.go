package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouterRecognized(t *testing.T) {
	r := NewRouter()
	for _, name := range []string{"id", "date", "expire", "type", "isPrivate"} {
		assert.True(t, r.Recognized(name), name)
	}
	assert.False(t, r.Recognized("csrf_token"))
	assert.False(t, r.Recognized(""))
}

func TestRouterGroupsFieldsIntoSubmission(t *testing.T) {
	r := NewRouter()
	r.SetField("id", "17")
	r.SetField("date", "2024-03-01")
	r.SetField("expire", "2030-01-01")
	r.SetField("type", "1")
	r.SetField("isPrivate", "true")

	sub := r.Seal("contrato.pdf", []byte("payload"), false)
	assert.Equal(t, "17", sub.SequenceID)
	assert.Equal(t, "2024-03-01", sub.CreatedDate)
	assert.Equal(t, "2030-01-01", sub.ExpiryDate)
	assert.Equal(t, "1", sub.TypeID)
	assert.True(t, sub.Private)
	assert.Equal(t, "contrato.pdf", sub.Filename)
	assert.Equal(t, []byte("payload"), sub.Payload)
	assert.True(t, sub.hasMetadata)
}

func TestRouterSealStartsFreshDraft(t *testing.T) {
	r := NewRouter()
	r.SetField("id", "1")
	first := r.Seal("a.pdf", nil, false)

	r.SetField("id", "2")
	second := r.Seal("b.pdf", nil, false)

	assert.Equal(t, "1", first.SequenceID)
	assert.Equal(t, "2", second.SequenceID)
}

func TestRouterLastValueWins(t *testing.T) {
	r := NewRouter()
	r.SetField("id", "1")
	r.SetField("id", "2")
	sub := r.Seal("a.pdf", nil, false)
	assert.Equal(t, "2", sub.SequenceID)
}

func TestRouterFileWithoutMetadata(t *testing.T) {
	r := NewRouter()
	sub := r.Seal("orphan.pdf", []byte("x"), false)
	assert.False(t, sub.hasMetadata)
	assert.Equal(t, "orphan.pdf", sub.Filename)
}

func TestRouterPrivateParsing(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"false", false},
		{"", false},
		{"1", false},
	}
	for _, tt := range tests {
		r := NewRouter()
		r.SetField("isPrivate", tt.value)
		sub := r.Seal("a.pdf", nil, false)
		assert.Equal(t, tt.want, sub.Private, "isPrivate=%q", tt.value)
	}
}
