package queue

// Dequeue is the non-blocking try: it returns one item and true, or a zero
// value and false if the queue is currently empty (spec §4.2).
func (c *ConsumerToken) Dequeue() (WorkItem, bool) {
	q := c.q
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.popLocked(1)
	if len(items) == 0 {
		return WorkItem{}, false
	}
	return items[0], true
}

// DequeueBatch moves up to len(buf) items into buf and returns the actual
// count moved, which may be zero (spec §4.2). A zero result is the idle
// signal writers use to decide whether to sleep (spec §4.3).
func (c *ConsumerToken) DequeueBatch(buf []WorkItem) int {
	q := c.q
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.popLocked(len(buf))
	copy(buf, items)
	return len(items)
}
