package storage

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Stored payloads are zstd-compressed when that actually shrinks them;
// already-compressed formats (PDF, JPEG, ZIP) are stored as-is. The content
// hash is always computed over the uncompressed bytes, so compression never
// affects deduplication.

// zstdEncoder and zstdDecoder are reused across calls to avoid repeated
// initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("storage: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("storage: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress returns the zstd-compressed payload, or the original bytes with
// encoded=false when compression does not make it smaller.
func Compress(payload []byte) (data []byte, encoded bool) {
	if len(payload) == 0 {
		return payload, false
	}
	compressed := zstdEncoder.EncodeAll(payload, nil)
	if len(compressed) >= len(payload) {
		return payload, false
	}
	return compressed, true
}

// Decompress restores a zstd-compressed payload. originalSize must match the
// uncompressed length exactly; a mismatch returns an error.
func Decompress(compressed []byte, originalSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, originalSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != originalSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), originalSize)
	}
	return result, nil
}

// DecompressStream wraps r so reads yield the uncompressed payload. Closing
// the returned reader closes r.
func DecompressStream(r io.ReadCloser) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return &decompressReadCloser{dec: dec, underlying: r}, nil
}

type decompressReadCloser struct {
	dec        *zstd.Decoder
	underlying io.ReadCloser
}

func (d *decompressReadCloser) Read(p []byte) (int, error) {
	return d.dec.Read(p)
}

func (d *decompressReadCloser) Close() error {
	d.dec.Close()
	return d.underlying.Close()
}
