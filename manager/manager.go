// Package manager composes the queue, storage, and writer pool into the
// single public Manager type of spec §4.5 / §6: start, stop,
// producer_token, append, append_batch.
//
// Grounded on _examples/njcx-libbeat_v8/publisher/pipeline/module.go's
// Load/Monitors composition root (metrics/telemetry/tracer wiring) and
// on _examples/original_source/include/LoggingManager.hpp's
// created/started/accepting/draining/stopped state machine.
package manager

import (
	"fmt"
	"time"

	"github.com/elastic/elastic-agent-libs/logp"
	"github.com/elastic/elastic-agent-libs/monitoring"
	"go.elastic.co/apm/v2"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/njcx/auditlogd/common/fmtstr"
	"github.com/njcx/auditlogd/entry"
	"github.com/njcx/auditlogd/publisher/processing"
	"github.com/njcx/auditlogd/queue"
	"github.com/njcx/auditlogd/storage"
	"github.com/njcx/auditlogd/writer"
)

// State is the Manager's lifecycle stage (spec §4.5).
type State int32

const (
	StateCreated State = iota
	StateStarted
	StateAccepting
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateAccepting:
		return "accepting"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Monitors groups the optional observability hooks, mirroring the
// teacher's publisher/pipeline.Monitors composition.
type Monitors struct {
	Metrics *monitoring.Registry
	Tracer  *apm.Tracer
}

// Manager is the engine's single public entry point.
type Manager struct {
	log *logp.Logger
	cfg Config

	q       *queue.Queue
	storage *storage.Storage
	pool    *writer.Pool
	tracer  *apm.Tracer

	state     atomic.Int32
	accepting atomic.Bool

	appended       atomic.Uint64
	metricAppended *monitoring.Uint

	processor processing.Processor
}

// SetProcessor installs the entry enrichment chain every Append/
// AppendBatch call runs entries through before enqueueing. Passing nil
// disables enrichment. Not safe to call concurrently with Append*.
func (m *Manager) SetProcessor(p processing.Processor) {
	m.processor = p
}

// New constructs a Manager in StateCreated; call Start to begin
// accepting entries.
func New(cfg Config, monitors Monitors, log *logp.Logger) (*Manager, error) {
	if log == nil {
		log = logp.L()
	}
	log = log.Named("auditlogd")
	cfg = cfg.WithDefaults()

	var tsFormat *fmtstr.TimestampFormatString
	if cfg.SegmentTimestampLayout != "" {
		tsFormat = fmtstr.NewTimestampFormatString(cfg.SegmentTimestampLayout)
	}
	st, err := storage.New(storage.Config{
		BasePath:        cfg.BasePath,
		BaseFilename:    cfg.BaseFilename,
		MaxSegmentSize:  cfg.MaxSegmentSize,
		MaxOpenFiles:    cfg.MaxOpenFiles,
		MaxAttempts:     cfg.MaxAttempts,
		BaseRetryDelay:  cfg.BaseRetryDelay,
		TimestampFormat: tsFormat,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("manager: %w", err)
	}

	m := &Manager{
		log:     log,
		cfg:     cfg,
		q:       queue.New(cfg.QueueCapacity, cfg.MaxExplicitProducers),
		storage: st,
		tracer:  monitors.Tracer,
	}
	m.state.Store(int32(StateCreated))

	if monitors.Metrics != nil {
		reg := monitors.Metrics.NewRegistry("auditlogd")
		m.metricAppended = monitoring.NewUint(reg, "appended")
	}
	return m, nil
}

// Start spawns the writer pool and opens the accepting-gate (spec §4.5).
func (m *Manager) Start() {
	m.pool = writer.NewPool(m.cfg.NumWriterThreads, writer.Config{
		BatchSize:        m.cfg.BatchSize,
		CompressionLevel: m.cfg.CompressionLevel,
		UseEncryption:    m.cfg.UseEncryption,
		Key:              m.cfg.EncryptionKey,
	}, m.storage, m.q, 0, m.log)

	m.state.Store(int32(StateStarted))
	m.accepting.Store(true)
	m.state.Store(int32(StateAccepting))
}

// ProducerToken mints a producer token, bounded by max_explicit_producers
// (spec §6).
func (m *Manager) ProducerToken() (*queue.ProducerToken, error) {
	return m.q.ProducerToken()
}

// Append enqueues a single entry under tok, blocking up to
// append_timeout (spec §6 append). destination == "" targets the
// default stream.
func (m *Manager) Append(tok *queue.ProducerToken, e entry.Entry, destination string) error {
	var span *apm.Span
	if m.tracer != nil {
		tx := m.tracer.StartTransaction("append", "auditlogd")
		defer tx.End()
		span = tx.StartSpan("enqueue", "queue", nil)
		defer span.End()
	}

	if !m.accepting.Load() {
		return ErrNotAccepting
	}
	if m.processor != nil {
		var err error
		e, err = m.processor.Process(e)
		if err != nil {
			return fmt.Errorf("manager: processing: %w", err)
		}
	}
	ok := tok.EnqueueBlocking(queue.WorkItem{Entry: e, Destination: destination}, m.cfg.AppendTimeout)
	if !ok {
		return ErrQueueTimeout
	}
	m.appended.Add(1)
	if m.metricAppended != nil {
		m.metricAppended.Set(m.appended.Load())
	}
	return nil
}

// AppendBatch enqueues entries atomically with respect to other
// enqueues (spec §4.2 batch-atomicity), blocking up to append_timeout.
func (m *Manager) AppendBatch(tok *queue.ProducerToken, entries []entry.Entry, destination string) error {
	if !m.accepting.Load() {
		return ErrNotAccepting
	}
	items := make([]queue.WorkItem, len(entries))
	for i, e := range entries {
		if m.processor != nil {
			var err error
			e, err = m.processor.Process(e)
			if err != nil {
				return fmt.Errorf("manager: processing entry %d: %w", i, err)
			}
		}
		items[i] = queue.WorkItem{Entry: e, Destination: destination}
	}
	ok := tok.EnqueueBatchBlocking(items, m.cfg.AppendTimeout)
	if !ok {
		return ErrQueueTimeout
	}
	m.appended.Add(uint64(len(entries)))
	if m.metricAppended != nil {
		m.metricAppended.Set(m.appended.Load())
	}
	return nil
}

// State returns the Manager's current lifecycle stage.
func (m *Manager) State() State { return State(m.state.Load()) }

// Stop transitions created/accepting manager -> draining -> stopped
// (spec §4.5): flips the accepting-gate, waits for the queue to empty,
// stops writers, then flushes storage.
func (m *Manager) Stop(writerJoinTimeout time.Duration) error {
	m.accepting.Store(false)
	m.state.Store(int32(StateDraining))

	m.q.Flush()

	var err error
	if m.pool != nil {
		if !m.pool.Stop(writerJoinTimeout) {
			err = multierr.Append(err, fmt.Errorf("manager: writer pool did not join within %s", writerJoinTimeout))
		}
	}
	if closeErr := m.storage.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("manager: storage close: %w", closeErr))
	}

	m.state.Store(int32(StateStopped))
	return err
}

// QueueSize exposes the current queue depth, useful for tests and
// dashboards (spec §8 invariant 4: size() is monotone within a phase).
func (m *Manager) QueueSize() int { return m.q.Size() }
