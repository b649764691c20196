// Package storage implements the segmented, per-stream append-only
// storage layer of spec §4.4: size-triggered segment rotation, shared/
// exclusive per-stream locking, an LRU file descriptor cache, and
// retry-with-backoff on transient I/O faults.
//
// Grounded on _examples/original_source/include/SegmentedStorage.hpp and
// Segment.hpp (fetch-add offset reservation, rotation under an exclusive
// upgrade) and on the FD-cache shape used for open segment handles in
// _examples/njcx-libbeat_v8's file-based stores, reimplemented with
// hashicorp/golang-lru/v2 rather than a hand-rolled cache (SPEC_FULL.md
// DOMAIN STACK).
package storage

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/elastic/elastic-agent-libs/logp"

	"github.com/njcx/auditlogd/common/fmtstr"
)

// Config mirrors the storage-relevant subset of spec §6's config table.
type Config struct {
	BasePath       string
	BaseFilename   string
	MaxSegmentSize uint64
	MaxOpenFiles   int
	MaxAttempts    int
	BaseRetryDelay time.Duration
	// TimestampFormat controls the timestamp segment of generated
	// filenames (storage/filename.go); nil uses the compact
	// YYYYMMDD_HHMMSS default.
	TimestampFormat *fmtstr.TimestampFormatString
}

// DefaultDestination names the default stream (spec §3): append calls
// that don't name a destination land here.
const DefaultDestination = ""

// Storage owns a set of per-destination streams and their segment files.
type Storage struct {
	log *logp.Logger
	cfg Config

	fds *fdCache

	mu      sync.RWMutex // guards streams map membership, not per-stream state
	streams map[string]*stream

	now func() time.Time
}

// New constructs a Storage rooted at cfg.BasePath, creating the directory
// if missing.
func New(cfg Config, log *logp.Logger) (*Storage, error) {
	if log == nil {
		log = logp.L()
	}
	log = log.Named("storage")

	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("storage: creating base path %s: %w", cfg.BasePath, err)
	}
	fds, err := newFDCache(cfg.MaxOpenFiles, cfg.MaxAttempts, cfg.BaseRetryDelay, log)
	if err != nil {
		return nil, err
	}
	return &Storage{
		log:     log,
		cfg:     cfg,
		fds:     fds,
		streams: make(map[string]*stream),
		now:     time.Now,
	}, nil
}

// WriteDefault appends bytes to the default stream, returning the
// reserved offset within the segment the bytes landed in.
func (s *Storage) WriteDefault(data []byte) (uint64, error) {
	return s.WriteTo(DefaultDestination, data)
}

// WriteTo appends bytes to the named stream, creating it lazily, and
// returns the reserved offset. Implements the append protocol of spec
// §4.4 verbatim: shared-lock reserve, exclusive-lock rotate-and-retry on
// overshoot, FD-cache lookup, positional write.
func (s *Storage) WriteTo(destination string, data []byte) (uint64, error) {
	st := s.streamFor(destination)
	dataLen := uint64(len(data))

	for {
		st.writeLock.RLock()
		segBefore := st.segmentIndexSnapshot()
		reserved, overshoot := st.reserve(dataLen, s.cfg.MaxSegmentSize)
		if overshoot {
			st.writeLock.RUnlock()

			st.writeLock.Lock()
			// segBefore lets us detect whether another writer already
			// rotated while we waited for the exclusive lock: if the
			// segment index moved, the rotation already happened and
			// we just restart step 1 against the fresh segment.
			// Our own reservation above is abandoned (it overshot the
			// old segment and is never written, per spec §4.4's
			// "reserved range becomes a hole" semantics).
			if st.segmentIndexSnapshot() == segBefore {
				if err := st.rotate(s, s.now()); err != nil {
					st.writeLock.Unlock()
					return 0, err
				}
			}
			st.writeLock.Unlock()
			continue
		}

		path := st.activePath.Load()
		f, err := s.fds.get(path)
		if err != nil {
			st.writeLock.RUnlock()
			return 0, fmt.Errorf("storage: %w", err)
		}

		writeErr := pwriteFull(f, data, int64(reserved))
		st.writeLock.RUnlock()
		if writeErr != nil {
			padHole(f, reserved, dataLen)
			return 0, fmt.Errorf("storage: write to %s at offset %d: %w", path, reserved, writeErr)
		}
		return reserved, nil
	}
}

// streamFor returns the stream for destination, creating it under a
// write-lock on first use.
func (s *Storage) streamFor(destination string) *stream {
	s.mu.RLock()
	st, ok := s.streams[destination]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.streams[destination]; ok {
		return st
	}
	st = newStream(s, destination, s.now())
	s.streams[destination] = st
	return st
}

// Flush fsyncs every currently open segment file (spec §4.4).
func (s *Storage) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var firstErr error
	for _, st := range s.streams {
		st.writeLock.Lock()
		path := st.activePath.Load()
		f, err := s.fds.get(path)
		if err == nil {
			err = retryWithBackoff(s.cfg.MaxAttempts, s.cfg.BaseRetryDelay, s.log, "fsync "+path, f.Sync)
		}
		st.writeLock.Unlock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close flushes and closes every open segment file descriptor.
func (s *Storage) Close() error {
	if err := s.Flush(); err != nil {
		s.log.Warnf("storage: flush on close: %v", err)
	}
	return s.fds.closeAll()
}

// closeSegment closes path's descriptor if the FD cache currently holds
// it, used by stream.rotate before advancing to a new segment.
func (s *Storage) closeSegment(path string) error {
	s.fds.mu.Lock()
	defer s.fds.mu.Unlock()
	if f, ok := s.fds.cache.Peek(path); ok {
		s.fds.cache.Remove(path)
		return f.Close()
	}
	return nil
}

// pwriteFull writes all of data to f at off. os.File.WriteAt already
// loops over short writes and retries EINTR internally, so the
// manual pwrite-loop from the original source collapses to a single
// call (spec §4.4 step 5).
func pwriteFull(f *os.File, data []byte, off int64) error {
	_, err := f.WriteAt(data, off)
	return err
}
