package writer

import (
	"fmt"

	"github.com/njcx/auditlogd/compress"
	"github.com/njcx/auditlogd/entry"
)

// writeBucket runs one destination's entries through
// serialize -> compress? -> encrypt? -> frame -> storage.write (spec
// §4.3 step 4).
func (w *Writer) writeBucket(destination string, entries []entry.Entry) error {
	bytes := entry.SerializeBatch(entries)

	if w.cfg.CompressionLevel > 0 {
		compressed, err := compress.Compress(bytes, w.cfg.CompressionLevel)
		if err != nil {
			return fmt.Errorf("compress: %w", err)
		}
		bytes = compressed
	}

	frame, err := EncodeFrame(bytes, w.cfg.UseEncryption, w.cfg.Key)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}

	if _, err := w.storage.WriteTo(destination, frame); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}
