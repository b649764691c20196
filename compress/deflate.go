// Package compress implements the zlib/deflate compression contract
// consumed by the writer pool's transform pipeline (spec §4.3, §6):
// compress(bytes, level) -> bytes and its inverse, decompress.
//
// Grounded on github.com/klauspost/compress (a dependency of
// _examples/SaveTheRbtz-zstd-seekable-format-go), whose zlib package is a
// drop-in, faster replacement for the standard library's compress/zlib.
// Levels 1..9 enable compression at the given level; 0 means "disabled"
// at the caller (spec §6 compression_level), but Compress itself still
// accepts 0 as zlib.NoCompression for callers that want a framed,
// zlib-wrapped but uncompressed buffer.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compress returns data compressed with zlib/deflate at the given level
// (0 through 9).
func Compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inverts Compress.
func Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}

// IsCompressed reports whether data begins with a zlib header, following
// _examples/original_source/include/Compression.hpp's isCompressed.
func IsCompressed(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	// RFC 1950: CMF/FLG header whose 16-bit big-endian value is a
	// multiple of 31.
	cmf, flg := data[0], data[1]
	if cmf&0x0f != 8 {
		return false
	}
	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}
