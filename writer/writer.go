// Package writer implements the writer pool of spec §4.3: drains the
// shared queue, groups items by destination, runs the
// serialize/compress/encrypt transform pipeline, and dispatches framed
// bytes to storage.
//
// Grounded on _examples/njcx-libbeat_v8/publisher/pipeline's
// worker-loop shape (drain, transform, dispatch, report errors without
// killing the loop) and on
// _examples/original_source/include/Writer.hpp's starting/running/
// draining/stopped state machine.
package writer

import (
	"time"

	"github.com/elastic/elastic-agent-libs/logp"
	"go.uber.org/atomic"

	"github.com/njcx/auditlogd/entry"
	"github.com/njcx/auditlogd/queue"
)

// State is a writer thread's lifecycle stage (spec §4.3).
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Storage is the subset of storage.Storage the writer needs, kept as an
// interface so writer tests can stub it without a real filesystem.
type Storage interface {
	WriteTo(destination string, data []byte) (uint64, error)
}

// ErrorEvent reports a non-fatal, per-bucket dispatch failure
// (StorageIoFatal / CryptoError in spec §7). The writer logs each failure
// and sends an ErrorEvent if the error channel has room, dropping it
// otherwise; it keeps no count of failures. A failure is never fatal to
// the writer.
type ErrorEvent struct {
	Destination string
	Err         error
}

// Config configures the transform pipeline and drain cadence.
type Config struct {
	BatchSize        int
	IdleSleep        time.Duration // sleep after a zero-item dequeue
	CompressionLevel int           // 0 disables compression
	UseEncryption    bool
	Key              []byte // AES-256 key, required if UseEncryption
}

// Writer drains one ConsumerToken's share of the queue and dispatches
// transformed buckets to Storage.
type Writer struct {
	id int

	log     *logp.Logger
	cfg     Config
	storage Storage
	cons    *queue.ConsumerToken

	state   atomic.Int32
	errCh   chan<- ErrorEvent
	written atomic.Uint64 // total entries successfully written, for stats

	stopRequested atomic.Bool
	done          chan struct{}
}

// New constructs a Writer. errCh may be nil if the caller doesn't want
// per-bucket error reporting.
func New(id int, cfg Config, storage Storage, cons *queue.ConsumerToken, errCh chan<- ErrorEvent, log *logp.Logger) *Writer {
	if log == nil {
		log = logp.L()
	}
	w := &Writer{
		id:      id,
		log:     log.Named("writer").With("writer_id", id),
		cfg:     cfg,
		storage: storage,
		cons:    cons,
		errCh:   errCh,
		done:    make(chan struct{}),
	}
	w.state.Store(int32(StateStarting))
	return w
}

func (w *Writer) State() State { return State(w.state.Load()) }

// Written returns the total count of entries this writer has
// successfully dispatched to storage.
func (w *Writer) Written() uint64 { return w.written.Load() }

// Stop requests the writer drain and exit; it does not block. Callers
// should select on Done() to join.
func (w *Writer) Stop() {
	w.stopRequested.Store(true)
}

// Done is closed once the writer has reached StateStopped.
func (w *Writer) Done() <-chan struct{} { return w.done }

// Run is the writer's main loop (spec §4.3); call it in its own
// goroutine. It returns once draining completes.
func (w *Writer) Run() {
	defer close(w.done)
	w.state.Store(int32(StateRunning))

	buf := make([]queue.WorkItem, w.cfg.BatchSize)
	for {
		if w.stopRequested.Load() {
			w.state.Store(int32(StateDraining))
		}

		n := w.cons.DequeueBatch(buf)
		if n == 0 {
			if w.stopRequested.Load() {
				// A zero-result dequeue while draining confirms the
				// queue is empty (spec §4.3).
				w.state.Store(int32(StateStopped))
				return
			}
			time.Sleep(w.idleSleep())
			continue
		}
		if !w.stopRequested.Load() {
			w.state.Store(int32(StateRunning))
		}
		w.dispatch(buf[:n])
	}
}

func (w *Writer) idleSleep() time.Duration {
	if w.cfg.IdleSleep <= 0 {
		return 2 * time.Millisecond
	}
	return w.cfg.IdleSleep
}

// dispatch partitions items by destination (preserving intra-bucket
// order) and runs each bucket through the transform pipeline.
func (w *Writer) dispatch(items []queue.WorkItem) {
	order := make([]string, 0, 4)
	buckets := make(map[string][]entry.Entry, 4)
	for _, it := range items {
		if _, ok := buckets[it.Destination]; !ok {
			order = append(order, it.Destination)
		}
		buckets[it.Destination] = append(buckets[it.Destination], it.Entry)
	}

	for _, dest := range order {
		entries := buckets[dest]
		if err := w.writeBucket(dest, entries); err != nil {
			w.log.Errorw("bucket dispatch failed", "destination", dest, "error", err)
			if w.errCh != nil {
				select {
				case w.errCh <- ErrorEvent{Destination: dest, Err: err}:
				default:
				}
			}
			continue
		}
		w.written.Add(uint64(len(entries)))
	}
}
