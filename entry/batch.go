package entry

import (
	"encoding/binary"
	"fmt"
)

// Batch is an ordered, ephemeral sequence of Entries sharing a destination.
// It exists only between dequeue and storage.write (spec §3).
type Batch []Entry

// SerializeBatch returns `[count u32]` followed by `[entry_len u32][entry]`
// for each entry, in order (spec §4.1).
func SerializeBatch(entries []Entry) []byte {
	total := 4
	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		b := Serialize(e)
		encoded[i] = b
		total += 4 + len(b)
	}

	buf := make([]byte, total)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(entries)))
	off += 4
	for _, b := range encoded {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(b)))
		off += 4
		copy(buf[off:], b)
		off += len(b)
	}
	return buf
}

// ErrCorruptBatch indicates the batch's declared count or entry lengths are
// inconsistent with the buffer's actual size (spec §4.1).
var ErrCorruptBatch = fmt.Errorf("entry: corrupt batch buffer")

// DeserializeBatch is the inverse of SerializeBatch. It fails with
// ErrCorruptBatch (wrapping the underlying cause) if declared counts or
// lengths don't fit the buffer.
func DeserializeBatch(buf []byte) ([]Entry, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("%w: missing count", ErrCorruptBatch)
	}
	count := binary.LittleEndian.Uint32(buf)
	off := 4

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(buf) < off+4 {
			return nil, fmt.Errorf("%w: missing length for entry %d", ErrCorruptBatch, i)
		}
		entryLen := int(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
		if entryLen < 0 || len(buf) < off+entryLen {
			return nil, fmt.Errorf("%w: entry %d length %d exceeds buffer", ErrCorruptBatch, i, entryLen)
		}
		e, n, err := Deserialize(buf[off : off+entryLen])
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrCorruptBatch, i, err)
		}
		if n != entryLen {
			return nil, fmt.Errorf("%w: entry %d declared length %d but consumed %d", ErrCorruptBatch, i, entryLen, n)
		}
		entries = append(entries, e)
		off += entryLen
	}

	return entries, nil
}
