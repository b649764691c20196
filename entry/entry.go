// Package entry defines the log entry value object and its canonical byte
// encoding.
//
// Grounded on _examples/original_source/include/LogEntry.hpp and
// src/LogEntry.cpp: a sequence number assigned from a process-wide atomic
// counter, a nanosecond timestamp, an action tag, key/subject/controller/
// processor identifiers, an opaque payload, and an optional previous-entry
// hash used for per-producer chaining (spec §3, §9).
package entry

import (
	"time"

	"go.uber.org/atomic"
)

// Action is the closed set of audit action tags an Entry may carry.
type Action uint8

const (
	ActionCreate Action = iota
	ActionRead
	ActionUpdate
	ActionDelete
	// ActionOther covers the GDPR variant's generic operation byte: any
	// action tag outside the CRUD set still round-trips through the codec.
	ActionOther Action = 0xFF
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "CREATE"
	case ActionRead:
		return "READ"
	case ActionUpdate:
		return "UPDATE"
	case ActionDelete:
		return "DELETE"
	default:
		return "OTHER"
	}
}

// sequenceCounter is the process-wide monotonic sequence source. Entries
// across every producer share it, so sequence numbers are globally unique
// and non-decreasing as spec §3 requires.
var sequenceCounter atomic.Uint64

// NextSequence returns the next process-wide sequence number. Exported so
// callers that pre-assign sequence numbers (e.g. replaying a batch) can
// still draw from the same counter.
func NextSequence() uint64 {
	return sequenceCounter.Add(1) - 1
}

// Entry is an immutable audit log record. Construct with New; fields are
// unexported to enforce the "immutable once constructed" invariant of
// spec §3 — no setter mutates a field after construction other than the
// pre-append chaining assignment, which is expressed by building a fresh
// Entry with WithPreviousHash.
type Entry struct {
	sequence     uint64
	timestamp    int64 // nanoseconds since epoch
	action       Action
	key          []byte
	subject      []byte
	controller   []byte
	processor    []byte
	previousHash []byte
	payload      []byte
}

// New constructs an Entry with the current time and the next sequence
// number from the process-wide counter.
func New(action Action, key, payload []byte) Entry {
	return NewAt(time.Now(), action, key, payload)
}

// NewAt constructs an Entry with an explicit timestamp, for deterministic
// tests and replay.
func NewAt(ts time.Time, action Action, key, payload []byte) Entry {
	return Entry{
		sequence:  NextSequence(),
		timestamp: ts.UnixNano(),
		action:    action,
		key:       append([]byte(nil), key...),
		payload:   append([]byte(nil), payload...),
	}
}

// WithIdentifiers returns a copy of e with controller/processor identifiers
// attached. Entries are immutable, so this builds a new value.
func (e Entry) WithIdentifiers(controller, processor string) Entry {
	e.controller = []byte(controller)
	e.processor = []byte(processor)
	return e
}

// WithSubject returns a copy of e with the data-subject identifier set.
func (e Entry) WithSubject(subject string) Entry {
	e.subject = []byte(subject)
	return e
}

// WithPreviousHash returns a copy of e carrying the chaining hash of the
// entry a producer created immediately before this one. The engine never
// calls this itself (spec §9); it exists for producers that opt into the
// per-producer chaining discipline via ChainHasher.
func (e Entry) WithPreviousHash(prevHash []byte) Entry {
	e.previousHash = append([]byte(nil), prevHash...)
	return e
}

func (e Entry) Sequence() uint64        { return e.sequence }
func (e Entry) Timestamp() time.Time    { return time.Unix(0, e.timestamp) }
func (e Entry) Action() Action          { return e.action }
func (e Entry) Key() []byte             { return e.key }
func (e Entry) Subject() []byte         { return e.subject }
func (e Entry) Controller() []byte      { return e.controller }
func (e Entry) Processor() []byte       { return e.processor }
func (e Entry) PreviousHash() []byte    { return e.previousHash }
func (e Entry) Payload() []byte         { return e.payload }
