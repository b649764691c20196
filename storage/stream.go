package storage

import (
	"os"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// stream holds the per-destination state described in spec §4.4: an
// atomic segment index and offset cursor, the active segment's path, and
// a write_lock held shared by in-flight writers and exclusive only for
// rotation and flush.
type stream struct {
	destination string

	writeLock sync.RWMutex

	segmentIndex  atomic.Uint64
	currentOffset atomic.Uint64
	activePath    atomic.String

	createdAt time.Time
}

func newStream(s *Storage, destination string, now time.Time) *stream {
	st := &stream{destination: destination, createdAt: now}
	st.activePath.Store(generateSegmentPath(s.cfg.BasePath, s.cfg.BaseFilename, destination, 0, now, s.cfg.TimestampFormat))
	return st
}

// reserve performs the fetch-add offset reservation (step 2 of the append
// protocol) and reports whether the reservation overshot the segment
// bound. A reservation of exactly max_segment_size does not overshoot
// (spec §8: "a batch whose framed size equals exactly max_segment_size
// fits in one segment").
func (st *stream) reserve(dataLen uint64, maxSegmentSize uint64) (reserved uint64, overshoot bool) {
	reserved = st.currentOffset.Add(dataLen) - dataLen
	checkInvariant(reserved+dataLen >= reserved, "reserved offset overflow: reserved=%d dataLen=%d", reserved, dataLen)
	checkInvariant(reserved == 0 || st.activePath.Load() != "", "missing active segment for %q with current_offset=%d", st.destination, reserved)
	// reserved != 0 guards the case where a single write is itself larger
	// than max_segment_size: rotating an already-empty segment to make
	// room for it again would just overshoot again, looping forever. Spec
	// §8 permits this write to "occupy the full new segment" instead.
	overshoot = reserved != 0 && reserved+dataLen > maxSegmentSize
	return reserved, overshoot
}

// rotate closes the current segment (via the FD cache), advances the
// segment index, resets the offset cursor, and computes the new active
// path. Callers must hold writeLock exclusively and must re-check the
// overshoot condition beforehand — rotate unconditionally rotates once
// called, it does not itself detect "did someone already rotate".
func (st *stream) rotate(s *Storage, now time.Time) error {
	oldPath := st.activePath.Load()
	if err := s.closeSegment(oldPath); err != nil {
		// Closing is best-effort: a failed close must not block rotation,
		// since the fd cache may also close it later on eviction.
		s.log.Warnf("storage: closing segment %s on rotation: %v", oldPath, err)
	}

	idx := st.segmentIndex.Add(1)
	st.currentOffset.Store(0)
	newPath := generateSegmentPath(s.cfg.BasePath, s.cfg.BaseFilename, st.destination, idx, now, s.cfg.TimestampFormat)
	checkInvariant(newPath != "", "rotate produced an empty segment path for %q at index %d", st.destination, idx)
	st.activePath.Store(newPath)
	return nil
}

func (st *stream) segmentIndexSnapshot() uint64 {
	return st.segmentIndex.Load()
}

// padHole zero-fills the reserved range on a write failure, per spec
// §4.4's implementation option ("MAY choose to pad the reserved range
// with zeros"). Chosen here so export's frame decoder sees a
// zero-length-prefixed gap instead of trailing garbage from a previous
// file truncation.
func padHole(f *os.File, reserved uint64, dataLen uint64) {
	zeros := make([]byte, dataLen)
	_, _ = f.WriteAt(zeros, int64(reserved))
}
