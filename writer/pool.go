package writer

import (
	"time"

	"github.com/elastic/elastic-agent-libs/logp"

	"github.com/njcx/auditlogd/queue"
)

// Pool owns a fixed set of Writers (spec §4.3, §5: "writer pool is a
// fixed set of OS threads spawned at start").
type Pool struct {
	log     *logp.Logger
	writers []*Writer
	errCh   chan ErrorEvent
}

// NewPool spawns numWriters Writers, each with its own ConsumerToken on
// q, and starts their Run loops. errBuffer sizes the shared error
// channel; 0 uses a reasonable default.
func NewPool(numWriters int, cfg Config, storage Storage, q *queue.Queue, errBuffer int, log *logp.Logger) *Pool {
	if log == nil {
		log = logp.L()
	}
	if errBuffer <= 0 {
		errBuffer = 64
	}
	p := &Pool{
		log:   log.Named("writerpool"),
		errCh: make(chan ErrorEvent, errBuffer),
	}
	for i := 0; i < numWriters; i++ {
		w := New(i, cfg, storage, q.ConsumerToken(), p.errCh, log)
		p.writers = append(p.writers, w)
		go w.Run()
	}
	return p
}

// Errors returns the channel writers report per-bucket failures on.
func (p *Pool) Errors() <-chan ErrorEvent { return p.errCh }

// TotalWritten sums the entries successfully dispatched across all
// writers in the pool.
func (p *Pool) TotalWritten() uint64 {
	var total uint64
	for _, w := range p.writers {
		total += w.Written()
	}
	return total
}

// States returns a snapshot of every writer's lifecycle state, in pool
// order.
func (p *Pool) States() []State {
	out := make([]State, len(p.writers))
	for i, w := range p.writers {
		out[i] = w.State()
	}
	return out
}

// Stop signals every writer to drain and exit, then blocks (up to
// timeout) for all of them to join (spec §4.5 stop: "stops writers
// (joining their threads)").
func (p *Pool) Stop(timeout time.Duration) bool {
	for _, w := range p.writers {
		w.Stop()
	}
	deadline := time.Now().Add(timeout)
	for _, w := range p.writers {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		select {
		case <-w.Done():
		case <-time.After(remaining):
			return false
		}
	}
	close(p.errCh)
	return true
}
