package entry

import (
	"crypto/sha256"
	"encoding/binary"
)

// ChainHasher is an opt-in, per-producer helper implementing the tamper-
// evident chaining discipline spec §9 describes: "producers set it when
// they want tamper evidence... not enforced by the engine." The engine
// never calls this; a producer owns one alongside its queue.ProducerToken
// and threads it through successive entries.
//
// Grounded on _examples/original_source/src/LogEntry.cpp's
// LogEntry::calculateHash()/verifyChain(), reimplemented with SHA-256 via
// the standard library (see SPEC_FULL.md for why no third-party hash
// package is warranted here).
type ChainHasher struct {
	prev []byte
}

// NewChainHasher returns a hasher with no previous entry; the first call
// to Next therefore produces an Entry with an empty PreviousHash.
func NewChainHasher() *ChainHasher {
	return &ChainHasher{}
}

// Next returns a copy of e with PreviousHash set to the hash of the last
// entry this hasher produced, then updates its internal state to the hash
// of the returned entry so the following call chains correctly.
func (c *ChainHasher) Next(e Entry) Entry {
	chained := e.WithPreviousHash(c.prev)
	c.prev = calculateHash(chained)
	return chained
}

// calculateHash hashes the fields that identify an entry, the same set
// LogEntry::calculateHash hashes in the original source: timestamp,
// action, key, subject, controller, processor, payload, sequence, and the
// previous hash already carried by e.
func calculateHash(e Entry) []byte {
	h := sha256.New()

	var tsBuf [8]byte
	binary.LittleEndian.PutUint64(tsBuf[:], uint64(e.timestamp))
	h.Write(tsBuf[:])

	h.Write([]byte{byte(e.action)})
	h.Write(e.key)
	h.Write(e.subject)
	h.Write(e.controller)
	h.Write(e.processor)
	h.Write(e.payload)

	var seqBuf [8]byte
	binary.LittleEndian.PutUint64(seqBuf[:], e.sequence)
	h.Write(seqBuf[:])

	h.Write(e.previousHash)

	return h.Sum(nil)
}

// VerifyChain reports whether entry's PreviousHash equals the hash of
// prevEntry, detecting tampering the way
// _examples/original_source/include/LogEntry.hpp's verifyChain does.
func VerifyChain(prevEntry, e Entry) bool {
	want := calculateHash(prevEntry)
	got := e.PreviousHash()
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}
