package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"arkiv/internal/ingest"
	"arkiv/internal/model"
	"arkiv/internal/repository"
	"arkiv/internal/storage"
)

var (
	ErrHashRequired  = errors.New("hash is required")
	ErrNotFound      = errors.New("document not found")
	ErrForbidden     = errors.New("operation not allowed for this actor")
	ErrInvalidAccess = errors.New("invalid access level")
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling archived documents.
// FindByHash and Insert double as the persistence port the upload pipeline
// drives; the remaining methods back the read/admin endpoints.
type DocumentService interface {
	// FindByHash reports whether a document with the content hash exists.
	FindByHash(ctx context.Context, hash string) (*model.Document, bool, error)

	// Insert stores the payload in object storage and the metadata row in
	// the database as a unit. The blob goes in first; a failed row insert
	// rolls the blob back, except on a duplicate hash where the existing
	// blob already holds the identical content.
	Insert(ctx context.Context, doc *model.Document, payload []byte) error

	// List returns documents visible to the actor using limit/offset and a
	// total count. Private documents appear only for all-tier actors.
	List(ctx context.Context, limit, offset int, actor model.Actor, includeExpired bool) (*DocumentListResult, error)

	// Get returns a single document by content hash. Private documents are
	// reported as not found to actors who may not see them.
	Get(ctx context.Context, hash string, actor model.Actor) (*model.Document, error)

	// Open returns the document metadata plus a streaming reader over the
	// original payload bytes, transparently undoing storage-side compression.
	Open(ctx context.Context, hash string, actor model.Actor) (io.ReadCloser, *model.Document, error)

	// Update applies an admin metadata patch and returns the updated row.
	Update(ctx context.Context, hash string, patch repository.DocumentPatch, actor model.Actor) (*model.Document, error)

	// Delete removes a document from both storage and the database.
	Delete(ctx context.Context, hash string, actor model.Actor) error
}

// The upload coordinator consumes the service through its store port.
var _ ingest.DocumentStore = DocumentService(nil)

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository) DocumentService {
	return &documentService{store: store, repo: repo}
}

func (s *documentService) FindByHash(ctx context.Context, hash string) (*model.Document, bool, error) {
	if hash == "" {
		return nil, false, ErrHashRequired
	}
	doc, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return doc, true, nil
}

func (s *documentService) Insert(ctx context.Context, doc *model.Document, payload []byte) error {
	data, encoded := storage.Compress(payload)

	metadata := map[string]string{
		storage.MetaOriginalSize: strconv.FormatInt(doc.Size, 10),
		"Original-Filename":      doc.Filename,
	}
	if encoded {
		metadata[storage.MetaEncoding] = storage.EncodingZstd
	}

	if _, err := s.store.Put(ctx, doc.StorageKey, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentTypeFor(doc.Filename),
		Metadata:    metadata,
	}); err != nil {
		return fmt.Errorf("upload to storage: %w", err)
	}

	if _, err := s.repo.Insert(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrDuplicateHash) {
			// A concurrent upload of identical bytes won the row. The blob
			// under this key holds the same content, so there is nothing to
			// roll back.
			return ingest.ErrDuplicate
		}
		if delErr := s.store.Delete(ctx, doc.StorageKey); delErr != nil {
			return fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return fmt.Errorf("db save failed: %w", err)
	}
	return nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int, actor model.Actor, includeExpired bool) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{
		Limit:          limit,
		Offset:         offset,
		IncludePrivate: actor.CanViewPrivate(),
		IncludeExpired: includeExpired,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Get(ctx context.Context, hash string, actor model.Actor) (*model.Document, error) {
	if hash == "" {
		return nil, ErrHashRequired
	}
	doc, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Private documents are concealed, not merely forbidden.
	if doc.Access == model.AccessPrivate && !actor.CanViewPrivate() {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *documentService) Open(ctx context.Context, hash string, actor model.Actor) (io.ReadCloser, *model.Document, error) {
	doc, err := s.Get(ctx, hash, actor)
	if err != nil {
		return nil, nil, err
	}

	rc, info, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch from storage: %w", err)
	}
	if metaValue(info.Metadata, storage.MetaEncoding) == storage.EncodingZstd {
		rc, err = storage.DecompressStream(rc)
		if err != nil {
			return nil, nil, err
		}
	}
	return rc, doc, nil
}

func (s *documentService) Update(ctx context.Context, hash string, patch repository.DocumentPatch, actor model.Actor) (*model.Document, error) {
	if hash == "" {
		return nil, ErrHashRequired
	}
	if !actor.CanAdminister() {
		return nil, ErrForbidden
	}
	if patch.Access != nil && !patch.Access.Valid() {
		return nil, ErrInvalidAccess
	}

	doc, err := s.repo.UpdateByHash(ctx, hash, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes the blob first; if that fails the row stays so the document
// is never left pointing at nothing.
func (s *documentService) Delete(ctx context.Context, hash string, actor model.Actor) error {
	if hash == "" {
		return ErrHashRequired
	}
	if !actor.CanAdminister() {
		return ErrForbidden
	}

	doc, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.DeleteByHash(ctx, hash)
}

// contentTypeFor derives the response content type from the stored filename
// extension.
func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// metaValue looks a key up case-insensitively: S3 backends canonicalize user
// metadata keys on the way back.
func metaValue(metadata map[string]string, key string) string {
	for k, v := range metadata {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
