// Package export implements the sequential segment-file read path:
// listing a stream's segments in creation order, decoding frames,
// decrypting, decompressing, and deserializing entries. This is not a
// query or index engine — only whole-file, in-order scans, matching
// _examples/original_source/include/LogExporter.hpp's model.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/njcx/auditlogd/compress"
	"github.com/njcx/auditlogd/entry"
	"github.com/njcx/auditlogd/writer"
)

// Options configures how Reader decodes segment files; it must match
// the Config a Manager was writing with.
type Options struct {
	BasePath         string
	BaseFilename     string
	Destination      string // "" for the default stream
	UseEncryption    bool
	Key              []byte
	CompressionLevel int // >0 means segments were compressed
}

// Reader sequentially scans a stream's segment files.
type Reader struct {
	opts Options
}

// NewReader constructs a Reader for the given options.
func NewReader(opts Options) *Reader {
	return &Reader{opts: opts}
}

// ListSegments returns the stream's segment file paths in creation
// order (spec §8 invariant 3: "the sequence of segment files sorted by
// filename equals the order in which they were created" — filenames
// embed a sortable timestamp and zero-padded index, see storage's
// generateSegmentPath).
func (r *Reader) ListSegments() ([]string, error) {
	entries, err := os.ReadDir(r.opts.BasePath)
	if err != nil {
		return nil, fmt.Errorf("export: listing %s: %w", r.opts.BasePath, err)
	}

	prefix := r.opts.BaseFilename
	if r.opts.Destination != "" {
		prefix = fmt.Sprintf("%s-%s", r.opts.BaseFilename, r.opts.Destination)
	}
	prefix += "_"

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		paths = append(paths, filepath.Join(r.opts.BasePath, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadAll decodes every entry across all of the stream's segments, in
// file order and in on-disk frame order within each file. A frame that
// fails to decode (a truncated trailing frame at EOF, or an encrypted
// frame that fails authentication) ends that file's scan without error;
// frames after it in the same file are not read.
func (r *Reader) ReadAll() ([]entry.Entry, error) {
	paths, err := r.ListSegments()
	if err != nil {
		return nil, err
	}

	var out []entry.Entry
	for _, path := range paths {
		entries, err := r.readSegment(path)
		if err != nil {
			return out, fmt.Errorf("export: reading %s: %w", path, err)
		}
		out = append(out, entries...)
	}
	return out, nil
}

func (r *Reader) readSegment(path string) ([]entry.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out []entry.Entry
	off := 0
	for off < len(data) {
		raw, n, err := writer.DecodeFrame(data[off:], r.opts.UseEncryption, r.opts.Key)
		if err != nil {
			// Truncation or a failed authentication: stop this file
			// cleanly instead of failing the whole scan.
			break
		}
		off += n

		if r.opts.CompressionLevel > 0 || compress.IsCompressed(raw) {
			decompressed, err := compress.Decompress(raw)
			if err != nil {
				return out, fmt.Errorf("decompress: %w", err)
			}
			raw = decompressed
		}

		batch, err := entry.DeserializeBatch(raw)
		if err != nil {
			return out, fmt.Errorf("deserialize: %w", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}
