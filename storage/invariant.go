package storage

import "fmt"

// ErrInvariantViolation marks an internal bug, not a runtime condition
// (spec §7: "a bug ... abort the process"). Storage's two bookkeeping
// operations, stream.reserve and stream.rotate, are the named sources of
// such bugs (negative/overflowed reserved offsets, a missing active
// segment once current_offset has advanced past zero) — checkInvariant
// panics rather than returning an error because the only correct
// response to a violated invariant is process termination, not a
// caller-handled error path.
var ErrInvariantViolation = fmt.Errorf("storage: invariant violation")

func checkInvariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...)))
	}
}
