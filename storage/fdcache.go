package storage

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/elastic/elastic-agent-libs/logp"
	lru "github.com/hashicorp/golang-lru/v2"
)

// fdCache is a bounded LRU of open segment file descriptors (spec §4.4
// "FD cache"), grounded on the generic hashicorp/golang-lru/v2 cache used
// for content-addressable lookups in the example pack
// (other_examples, LRU-backed cache). Eviction closes the descriptor so
// the process never accumulates more than capacity open files.
type fdCache struct {
	log *logp.Logger

	mu    sync.Mutex // guards open-on-miss against concurrent opens of the same path
	cache *lru.Cache[string, *os.File]

	maxAttempts int
	baseDelay   time.Duration
}

func newFDCache(capacity int, maxAttempts int, baseDelay time.Duration, log *logp.Logger) (*fdCache, error) {
	fc := &fdCache{
		log:         log,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
	c, err := lru.NewWithEvict[string, *os.File](capacity, func(_ string, f *os.File) {
		if err := f.Close(); err != nil {
			log.Warnf("fdcache: closing evicted descriptor: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("storage: building fd cache: %w", err)
	}
	fc.cache = c
	return fc, nil
}

// get returns the open file for path, opening it (with retry-with-backoff
// on transient failure) if it is not already cached.
func (fc *fdCache) get(path string) (*os.File, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if f, ok := fc.cache.Get(path); ok {
		return f, nil
	}

	var f *os.File
	err := retryWithBackoff(fc.maxAttempts, fc.baseDelay, fc.log, "open "+path, func() error {
		var openErr error
		// No O_APPEND: writes are positional (pwrite via WriteAt) against
		// the stream's own reserved offset, and os.File.WriteAt refuses to
		// operate on a file opened with O_APPEND.
		f, openErr = os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644)
		return openErr
	})
	if err != nil {
		return nil, err
	}
	fc.cache.Add(path, f)
	return f, nil
}

// closeAll closes every cached descriptor without syncing it; Storage.Close
// calls Flush before it.
func (fc *fdCache) closeAll() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	var firstErr error
	for _, path := range fc.cache.Keys() {
		f, ok := fc.cache.Peek(path)
		if !ok {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	fc.cache.Purge()
	return firstErr
}
