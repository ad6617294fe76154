package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Orchestrator runs task sets with settle-all semantics.
type Orchestrator struct {
	opts     Options
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an Orchestrator. A nil recorder discards diagnostics.
func New(opts Options, recorder Recorder, logger *slog.Logger) *Orchestrator {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Name == "" {
		opts.Name = "run"
	}
	return &Orchestrator{
		opts:     opts,
		recorder: recorder,
		logger:   logger.With("component", "orchestrator", "run_name", opts.Name),
		now:      time.Now,
	}
}

type settled struct {
	index   int
	outcome TaskOutcome
	value   any
}

// Run executes every task concurrently and assembles their outcomes. The
// returned error is non-nil only for a malformed task set; task failures are
// reported through the result.
func (o *Orchestrator) Run(ctx context.Context, tasks []Task) (*CompositeResult, error) {
	if err := validateTasks(tasks); err != nil {
		return nil, err
	}

	result := &CompositeResult{
		RunID:     uuid.New().String(),
		StartedAt: o.now().UTC(),
		Fields:    make(map[string]any, len(tasks)),
		Outcomes:  make(map[string]TaskOutcome, len(tasks)),
		Status:    StatusSuccess,
	}
	log := o.logger.With("run_id", result.RunID)

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if o.opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
	}
	defer cancel()

	// Buffered so abandoned tasks can still deliver after Run returns.
	results := make(chan settled, len(tasks))

	p := pool.New()
	if o.opts.MaxConcurrency > 0 {
		p = p.WithMaxGoroutines(o.opts.MaxConcurrency)
	}
	go func() {
		for i := range tasks {
			if runCtx.Err() != nil {
				break
			}
			p.Go(func() {
				results <- runTask(runCtx, i, tasks[i])
			})
		}
		p.Wait()
	}()

	done := make([]bool, len(tasks))
	pending := len(tasks)
	for pending > 0 {
		select {
		case s := <-results:
			done[s.index] = true
			pending--
			o.settle(result, tasks[s.index], s.outcome, s.value)
		case <-runCtx.Done():
			// Results that settled before the deadline was noticed still count.
			for drained := false; !drained; {
				select {
				case s := <-results:
					done[s.index] = true
					o.settle(result, tasks[s.index], s.outcome, s.value)
				default:
					drained = true
				}
			}
			abandonErr := fmt.Errorf("%w: %w", ErrTaskTimeout, runCtx.Err())
			if !errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				abandonErr = fmt.Errorf("task abandoned: %w", runCtx.Err())
			}
			for i, task := range tasks {
				if done[i] {
					continue
				}
				done[i] = true
				o.settle(result, task, TaskOutcome{Name: task.Name, Err: abandonErr}, nil)
			}
			pending = 0
		}
	}

	result.Duration = o.now().Sub(result.StartedAt)
	for _, outcome := range result.Outcomes {
		if outcome.UsedFallback {
			result.Status = StatusPartialFailure
			break
		}
	}

	log.Info("run settled",
		"status", result.Status,
		"tasks", len(tasks),
		"fallbacks", countFallbacks(result),
		"duration_ms", result.Duration.Milliseconds())

	o.record(log, newDiagnostic(o.opts.Name, result, tasks))
	return result, nil
}

// settle stores a task's value, or its fallback when the task failed.
func (o *Orchestrator) settle(result *CompositeResult, task Task, outcome TaskOutcome, value any) {
	if outcome.Err != nil {
		outcome.UsedFallback = true
		outcome.Reason = outcome.Err.Error()
		value = task.Fallback
		o.logger.Warn("task fell back",
			"task", task.Name,
			"fulfilled", outcome.Fulfilled,
			"error", outcome.Reason)
	} else {
		o.logger.Debug("task succeeded", "task", task.Name, "duration_ms", outcome.Duration.Milliseconds())
	}
	result.Fields[task.Name] = value
	result.Outcomes[task.Name] = outcome
}

func (o *Orchestrator) record(log *slog.Logger, d Diagnostic) {
	var pc panics.Catcher
	pc.Try(func() { o.recorder.Record(d) })
	if r := pc.Recovered(); r != nil {
		log.Error("diagnostics recorder panicked", "panic", fmt.Sprint(r.Value))
	}
}

// runTask invokes and validates a single task, converting panics into errors.
func runTask(ctx context.Context, index int, task Task) settled {
	start := time.Now()
	outcome := TaskOutcome{Name: task.Name}
	var value any

	var pc panics.Catcher
	pc.Try(func() {
		raw, err := task.Invoke(ctx)
		if err != nil {
			outcome.Err = err
			return
		}
		outcome.Fulfilled = true
		outcome.Raw = raw

		if task.Validate == nil {
			value = raw
			return
		}
		v, err := task.Validate(raw)
		if err != nil {
			outcome.Err = fmt.Errorf("%w: %w", ErrValidation, err)
			return
		}
		value = v
	})
	if r := pc.Recovered(); r != nil {
		outcome.Err = fmt.Errorf("%w: %v", ErrTaskPanic, r.Value)
		value = nil
	}

	outcome.Duration = time.Since(start)
	return settled{index: index, outcome: outcome, value: value}
}

func validateTasks(tasks []Task) error {
	if len(tasks) == 0 {
		return fmt.Errorf("%w: no tasks", ErrInvalidTasks)
	}
	seen := make(map[string]struct{}, len(tasks))
	for i, task := range tasks {
		name := strings.TrimSpace(task.Name)
		switch {
		case name == "":
			return fmt.Errorf("%w: task %d has no name", ErrInvalidTasks, i)
		case name != task.Name:
			return fmt.Errorf("%w: task name %q has surrounding whitespace", ErrInvalidTasks, task.Name)
		case name == statusField:
			return fmt.Errorf("%w: task name %q is reserved", ErrInvalidTasks, name)
		case task.Invoke == nil:
			return fmt.Errorf("%w: task %q has no function", ErrInvalidTasks, name)
		case task.Fallback == nil:
			return fmt.Errorf("%w: task %q has no fallback", ErrInvalidTasks, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate task name %q", ErrInvalidTasks, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func countFallbacks(result *CompositeResult) int {
	n := 0
	for _, outcome := range result.Outcomes {
		if outcome.UsedFallback {
			n++
		}
	}
	return n
}
