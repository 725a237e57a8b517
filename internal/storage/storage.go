package storage

import (
	"context"
	"io"
	"time"
)

// Package storage contains the content blob store abstraction for
// S3-compatible object stores. Implementations must avoid using local disk
// and rely on streaming I/O only. Objects are keyed by content hash plus the
// original filename extension, so a key always addresses exactly one payload.

// Metadata keys attached to stored objects. Encoding marks zstd-compressed
// payloads; OriginalSize preserves the uncompressed byte count so retrieval
// can verify the round trip.
const (
	MetaEncoding     = "Content-Encoding-Internal"
	MetaOriginalSize = "Original-Size"

	EncodingZstd = "zstd"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
// Methods use context and streaming readers/writers; no local disk is used.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
}
