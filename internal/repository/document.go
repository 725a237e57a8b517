package repository

import (
	"context"
	"errors"
	"time"

	"arkiv/internal/model"
)

// ErrDuplicateHash is returned by Insert when a document with the same
// content hash already exists. Implementations map their backend's unique
// violation onto this sentinel so callers never inspect driver errors.
var ErrDuplicateHash = errors.New("document hash already exists")

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations keyed by content hash.
type DocumentRepository interface {
	// Insert stores a new document row. Returns ErrDuplicateHash when the
	// hash is already present; the row is never overwritten.
	Insert(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByHash returns a document by its content hash.
	// Returns sql.ErrNoRows when absent.
	FindByHash(ctx context.Context, hash string) (*model.Document, error)

	// List returns a paginated list of documents and the total row count for
	// the given filter.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateByHash applies a metadata patch and returns the updated row.
	// Content-bearing columns (hash, storage_key, size) are never touched.
	// Returns sql.ErrNoRows when the hash is unknown.
	UpdateByHash(ctx context.Context, hash string, patch DocumentPatch) (*model.Document, error)

	// DeleteByHash removes a document row. It returns nil if the row was
	// deleted or did not exist.
	DeleteByHash(ctx context.Context, hash string) error
}

// DocumentPatch carries the admin-editable fields. Nil fields are left
// unchanged.
type DocumentPatch struct {
	Filename  *string
	Access    *model.AccessLevel
	CreatedAt *time.Time
	ExpiresAt *time.Time
}

// PageQuery holds pagination and visibility filters for listing.
type PageQuery struct {
	Limit  int
	Offset int
	// IncludePrivate includes private documents (all-tier actors only).
	IncludePrivate bool
	// IncludeExpired includes documents whose expiry date has passed.
	IncludeExpired bool
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
