package model

import "time"

// AccessLevel controls who may see a stored document.
type AccessLevel string

const (
	AccessPublic  AccessLevel = "public"
	AccessPrivate AccessLevel = "private"
)

// Valid reports whether the level is one of the two known values.
func (a AccessLevel) Valid() bool {
	return a == AccessPublic || a == AccessPrivate
}

// DocumentType is one entry of the configured category catalog.
// ReducedName is an optional short label used by listing UIs.
type DocumentType struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	ReducedName string `json:"reducedName,omitempty"`
}

// Document represents a stored file in the archive.
// This is a pure domain model with no database-specific dependencies or tags.
//
// Hash is the lowercase hex digest of the file content and acts as the
// immutable primary key: two uploads with identical bytes produce the same
// hash and the second one is rejected as a duplicate. StorageKey (hash plus
// the original filename extension) addresses the payload in object storage
// and is likewise immutable; Filename, Access and the calendar dates may
// change via admin edits. The payload itself never changes: different bytes
// are a different document with a different hash.
type Document struct {
	Hash           string      `json:"hash"`
	Filename       string      `json:"filename"`
	StorageKey     string      `json:"storage_key"`
	Size           int64       `json:"size"`
	Access         AccessLevel `json:"access"`
	DocumentTypeID int         `json:"document_type_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UploadedAt     time.Time   `json:"uploaded_at"`
	ExpiresAt      time.Time   `json:"expires_at"`
}

// Expired reports whether the document's expiry date lies before now.
func (d *Document) Expired(now time.Time) bool {
	return d.ExpiresAt.Before(now)
}
