package manager

import "fmt"

// Error kinds are semantic, not type-named (spec §7): each is a sentinel
// wrapped with context via fmt.Errorf("...: %w", ErrX), matched with
// errors.Is by callers.
var (
	// ErrNotAccepting is returned by append*() before start or after stop.
	ErrNotAccepting = fmt.Errorf("manager: not accepting")
	// ErrQueueTimeout is returned when enqueue_blocking exhausts its timeout.
	ErrQueueTimeout = fmt.Errorf("manager: queue enqueue timed out")
)

// Invariant violations (spec §7: "a bug ... abort the process", e.g. a
// negative/overflowed reserved offset or a missing active segment) are
// detected where they actually arise, in storage's bookkeeping — see
// storage.ErrInvariantViolation. They panic rather than surface as a
// manager-level sentinel, since the only correct response is process
// termination, not a caller-handled error path.
