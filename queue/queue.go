// Package queue implements the bounded multi-producer multi-consumer queue
// sitting between producers and writers (spec §4.2).
//
// The original source offers two interchangeable implementations selected
// at compile time: a hand-rolled lock-free ring
// (_examples/original_source/include/LockFreeQueue.hpp) and a
// moodycamel::ConcurrentQueue wrapper
// (_examples/original_source/include/BufferQueue.hpp). Spec §9 says
// "functional behavior is equivalent" and leaves the choice open. This
// package implements the ring-buffer shape with a single mutex and
// condition variables rather than lock-free CAS loops: Go's sync.Cond is
// the idiomatic equivalent of the C++ mutex-guarded queues in the same
// corpus (see _examples/njcx-libbeat_v8/publisher/queue/memqueue, whose
// broker serializes all queue state behind channel sends/receives rather
// than atomics). Holding one mutex across an entire batch push or pull is
// also what makes "batch enqueues are atomic with respect to other
// enqueues" (spec §4.2) fall out for free, instead of needing a
// single-chunk-per-batch channel encoding.
package queue

import (
	"sync"

	"github.com/elastic/elastic-agent-libs/logp"
	"go.uber.org/atomic"

	"github.com/njcx/auditlogd/entry"
)

// WorkItem is an (Entry, optional destination) pair (spec §3). An empty
// Destination means the default stream.
type WorkItem struct {
	Entry       entry.Entry
	Destination string
}

// Queue is a bounded MPMC queue of WorkItems.
type Queue struct {
	log *logp.Logger

	mu   sync.Mutex
	cond *sync.Cond // signaled on "not full" and "not empty"

	items []WorkItem
	head  int // index of the oldest item
	count int // number of live items

	capacity int
	size     atomic.Int64 // approximate, monotonic-eventual (spec §4.2 size())

	maxProducerTokens int
	producerTokens    atomic.Int64
}

// New returns a queue bounded to capacity items, accepting up to
// maxProducerTokens concurrently-live producer tokens (spec §6
// max_explicit_producers).
func New(capacity, maxProducerTokens int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &Queue{
		log:               logp.L().Named("queue"),
		items:             make([]WorkItem, capacity),
		capacity:          capacity,
		maxProducerTokens: maxProducerTokens,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Size returns an approximate, monotonic-eventual count of queued items
// (spec §4.2).
func (q *Queue) Size() int {
	return int(q.size.Load())
}

// Capacity returns the queue's configured bound.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Flush returns once the queue is observed empty (spec §4.2).
func (q *Queue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.count != 0 {
		q.cond.Wait()
	}
}

// pushLocked appends items to the ring, growing neither head nor capacity;
// callers must already hold q.mu and must have verified enough free space.
func (q *Queue) pushLocked(items []WorkItem) {
	for _, it := range items {
		idx := (q.head + q.count) % q.capacity
		q.items[idx] = it
		q.count++
	}
	q.size.Store(int64(q.count))
	q.cond.Broadcast()
}

// popLocked removes up to max items from the ring in FIFO order; callers
// must hold q.mu.
func (q *Queue) popLocked(max int) []WorkItem {
	n := max
	if n > q.count {
		n = q.count
	}
	if n == 0 {
		return nil
	}
	out := make([]WorkItem, n)
	for i := 0; i < n; i++ {
		out[i] = q.items[(q.head+i)%q.capacity]
	}
	q.head = (q.head + n) % q.capacity
	q.count -= n
	q.size.Store(int64(q.count))
	q.cond.Broadcast()
	return out
}

func (q *Queue) freeSpace() int {
	return q.capacity - q.count
}
