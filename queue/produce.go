package queue

import (
	"time"
)

// Enqueue is the non-blocking try: it returns true if item was accepted,
// false if the queue is currently full (spec §4.2).
func (t *ProducerToken) Enqueue(item WorkItem) bool {
	q := t.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.freeSpace() < 1 {
		return false
	}
	q.pushLocked([]WorkItem{item})
	return true
}

// EnqueueBlocking retries with the exponential-backoff-plus-jitter schedule
// of spec §4.2 until item is accepted or timeout elapses.
func (t *ProducerToken) EnqueueBlocking(item WorkItem, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	var backoff time.Duration

	for {
		if t.Enqueue(item) {
			return true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		backoff = nextBackoff(backoff, remaining)
		if backoff <= 0 {
			return false
		}
		time.Sleep(backoff)
	}
}

// EnqueueBatchBlocking accepts items all-or-nothing on each attempt: every
// retry either admits the entire batch or none of it, and on timeout no
// items are enqueued (spec §4.2).
func (t *ProducerToken) EnqueueBatchBlocking(items []WorkItem, timeout time.Duration) bool {
	if len(items) == 0 {
		return true
	}

	q := t.q
	deadline := time.Now().Add(timeout)
	var backoff time.Duration

	for {
		q.mu.Lock()
		if q.freeSpace() >= len(items) {
			q.pushLocked(items)
			q.mu.Unlock()
			return true
		}
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		backoff = nextBackoff(backoff, remaining)
		if backoff <= 0 {
			return false
		}
		time.Sleep(backoff)
	}
}
