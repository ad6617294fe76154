package diagnostics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/genewise-api/internal/orchestrator"
)

// RecorderConfig sizes an AsyncRecorder.
type RecorderConfig struct {
	// Workers is the number of goroutines writing to the store.
	Workers int

	// QueueSize is how many records may wait before new ones are dropped.
	QueueSize int

	// WriteTimeout bounds a single store write.
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns a RecorderConfig with reasonable defaults.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Workers:      2,
		QueueSize:    100,
		WriteTimeout: 5 * time.Second,
	}
}

// AsyncRecorder implements orchestrator.Recorder by queueing diagnostics for
// background workers. The run ID is used as the record path and the run name
// as the collection.
type AsyncRecorder struct {
	store  Store
	config RecorderConfig
	logger *slog.Logger

	queue  chan orchestrator.Diagnostic
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	dropped atomic.Int64
	written atomic.Int64
}

// NewAsyncRecorder creates a recorder and starts its workers.
func NewAsyncRecorder(store Store, config RecorderConfig, logger *slog.Logger) *AsyncRecorder {
	defaults := DefaultRecorderConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &AsyncRecorder{
		store:  store,
		config: config,
		logger: logger.With("component", "diagnostics"),
		queue:  make(chan orchestrator.Diagnostic, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	return r
}

// Record queues d for persistence. It never blocks.
func (r *AsyncRecorder) Record(d orchestrator.Diagnostic) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		r.dropped.Add(1)
		r.logger.Warn("diagnostic dropped, recorder stopped", "run_id", d.RunID)
		return
	}

	select {
	case r.queue <- d:
	default:
		r.dropped.Add(1)
		r.logger.Warn("diagnostic dropped, queue is full",
			"run_id", d.RunID,
			"queue_size", r.config.QueueSize)
	}
}

// Stop stops accepting records and waits for queued ones to be written. If
// ctx ends first, in-flight writes are canceled and the remainder discarded.
func (r *AsyncRecorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return fmt.Errorf("diagnostics drain interrupted: %w", ctx.Err())
	}
}

// Dropped reports how many records were discarded without being written.
func (r *AsyncRecorder) Dropped() int64 { return r.dropped.Load() }

// Written reports how many records reached the store.
func (r *AsyncRecorder) Written() int64 { return r.written.Load() }

func (r *AsyncRecorder) worker(id int) {
	defer r.wg.Done()

	for d := range r.queue {
		if r.ctx.Err() != nil {
			r.dropped.Add(1)
			continue
		}
		r.write(d, id)
	}
}

func (r *AsyncRecorder) write(d orchestrator.Diagnostic, workerID int) {
	ctx, cancel := context.WithTimeout(r.ctx, r.config.WriteTimeout)
	defer cancel()

	log := r.logger.With("run_id", d.RunID, "collection", d.Name, "worker_id", workerID)
	if err := r.store.Store(ctx, d.Name, d.RunID, d); err != nil {
		r.dropped.Add(1)
		log.Error("failed to store diagnostic", "error", err)
		return
	}
	r.written.Add(1)
	log.Debug("diagnostic stored")
}
