package entry

import (
	"encoding/binary"
	"fmt"
)

// Serialize returns the canonical little-endian, length-prefixed encoding
// of a single Entry (spec §4.1):
//
//	[timestamp u64][sequence u64][action u8]
//	[key_len u32][key][subject_len u32][subject]
//	[controller_len u32][controller][processor_len u32][processor]
//	[prev_hash_len u32][prev_hash][payload_len u32][payload]
func Serialize(e Entry) []byte {
	size := 8 + 8 + 1 +
		4 + len(e.key) +
		4 + len(e.subject) +
		4 + len(e.controller) +
		4 + len(e.processor) +
		4 + len(e.previousHash) +
		4 + len(e.payload)

	buf := make([]byte, size)
	off := 0

	binary.LittleEndian.PutUint64(buf[off:], uint64(e.timestamp))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], e.sequence)
	off += 8
	buf[off] = byte(e.action)
	off++

	off = putBytes(buf, off, e.key)
	off = putBytes(buf, off, e.subject)
	off = putBytes(buf, off, e.controller)
	off = putBytes(buf, off, e.processor)
	off = putBytes(buf, off, e.previousHash)
	off = putBytes(buf, off, e.payload)

	return buf
}

func putBytes(buf []byte, off int, b []byte) int {
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(b)))
	off += 4
	copy(buf[off:], b)
	return off + len(b)
}

// ErrTruncated indicates a buffer ended before a length-prefixed field
// could be fully read.
var ErrTruncated = fmt.Errorf("entry: truncated buffer")

// Deserialize parses a single Entry encoded by Serialize. It does not
// reassign a sequence number from the process-wide counter: the decoded
// value is used verbatim, since it represents a previously-assigned entry
// read back from storage.
func Deserialize(buf []byte) (Entry, int, error) {
	var e Entry
	off := 0

	if len(buf) < off+17 {
		return e, 0, ErrTruncated
	}
	e.timestamp = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	e.sequence = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	e.action = Action(buf[off])
	off++

	var err error
	if e.key, off, err = getBytes(buf, off); err != nil {
		return Entry{}, 0, err
	}
	if e.subject, off, err = getBytes(buf, off); err != nil {
		return Entry{}, 0, err
	}
	if e.controller, off, err = getBytes(buf, off); err != nil {
		return Entry{}, 0, err
	}
	if e.processor, off, err = getBytes(buf, off); err != nil {
		return Entry{}, 0, err
	}
	if e.previousHash, off, err = getBytes(buf, off); err != nil {
		return Entry{}, 0, err
	}
	if e.payload, off, err = getBytes(buf, off); err != nil {
		return Entry{}, 0, err
	}

	return e, off, nil
}

func getBytes(buf []byte, off int) ([]byte, int, error) {
	if len(buf) < off+4 {
		return nil, 0, ErrTruncated
	}
	n := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	if n < 0 || len(buf) < off+n {
		return nil, 0, ErrTruncated
	}
	if n == 0 {
		return nil, off, nil
	}
	out := make([]byte, n)
	copy(out, buf[off:off+n])
	return out, off + n, nil
}
