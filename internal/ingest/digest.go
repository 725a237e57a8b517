package ingest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the lowercase hex SHA-256 of the payload. The digest is
// both the deduplication key and the primary identifier a stored document is
// addressed by, so it must be computed over the exact uploaded bytes before
// any storage-side transformation.
func Digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
