package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/genewise-api/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func returns(value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return value, nil }
}

func fails(msg string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", errors.New(msg) }
}

// captureRecorder collects diagnostics for assertions.
type captureRecorder struct {
	mu    sync.Mutex
	diags []orchestrator.Diagnostic
}

func (c *captureRecorder) Record(d orchestrator.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

func (c *captureRecorder) all() []orchestrator.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]orchestrator.Diagnostic(nil), c.diags...)
}

func TestRunPartialFailure(t *testing.T) {
	t.Parallel()

	o := orchestrator.New(orchestrator.Options{}, nil, quietLogger())
	result, err := o.Run(context.Background(), []orchestrator.Task{
		{Name: "a", Invoke: returns("foo"), Fallback: "fallback-a"},
		{Name: "b", Invoke: fails("boom"), Fallback: "fallback-b"},
	})

	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusPartialFailure, result.Status)
	assert.Equal(t, "foo", result.Fields["a"])
	assert.Equal(t, "fallback-b", result.Fields["b"])
	assert.True(t, result.Succeeded("a"))
	assert.False(t, result.Succeeded("b"))
	assert.Equal(t, "boom", result.Outcomes["b"].Reason)
	assert.False(t, result.Outcomes["b"].Fulfilled)

	encoded, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"foo","b":"fallback-b","status":"Partial Failure or Failure"}`, string(encoded))
}

func TestRunAllSucceed(t *testing.T) {
	t.Parallel()

	o := orchestrator.New(orchestrator.Options{}, nil, quietLogger())
	result, err := o.Run(context.Background(), []orchestrator.Task{
		{Name: "one", Invoke: returns("1"), Fallback: ""},
		{Name: "two", Invoke: returns("2"), Fallback: ""},
		{Name: "three", Invoke: returns("3"), Fallback: ""},
	})

	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, result.Status)
	assert.Len(t, result.Fields, 3)
	for name, outcome := range result.Outcomes {
		assert.False(t, outcome.UsedFallback, name)
		assert.True(t, outcome.Fulfilled, name)
	}
}

// TestRunEachFailurePosition fails one task at a time out of N and checks
// that only that field falls back.
func TestRunEachFailurePosition(t *testing.T) {
	t.Parallel()

	const n = 5
	o := orchestrator.New(orchestrator.Options{}, nil, quietLogger())

	for failing := 0; failing < n; failing++ {
		t.Run(fmt.Sprintf("task_%d_fails", failing), func(t *testing.T) {
			tasks := make([]orchestrator.Task, n)
			for i := range tasks {
				tasks[i] = orchestrator.Task{
					Name:     fmt.Sprintf("t%d", i),
					Invoke:   returns(fmt.Sprintf("v%d", i)),
					Fallback: "fb",
				}
			}
			tasks[failing].Invoke = fails("nope")

			result, err := o.Run(context.Background(), tasks)

			require.NoError(t, err)
			assert.Len(t, result.Fields, n)
			assert.Equal(t, orchestrator.StatusPartialFailure, result.Status)
			for i := 0; i < n; i++ {
				name := fmt.Sprintf("t%d", i)
				if i == failing {
					assert.Equal(t, "fb", result.Fields[name])
				} else {
					assert.Equal(t, fmt.Sprintf("v%d", i), result.Fields[name])
				}
			}
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	o := orchestrator.New(orchestrator.Options{}, nil, quietLogger())
	tasks := []orchestrator.Task{
		{Name: "a", Invoke: returns("x"), Fallback: "fa"},
		{Name: "b", Invoke: fails("y"), Fallback: "fb"},
	}

	first, err := o.Run(context.Background(), tasks)
	require.NoError(t, err)
	second, err := o.Run(context.Background(), tasks)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Fields, second.Fields)
	assert.Equal(t, first.Status, second.Status)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	o := orchestrator.New(orchestrator.Options{}, nil, quietLogger())
	result, err := o.Run(context.Background(), []orchestrator.Task{
		{
			Name:     "count",
			Invoke:   returns("not a number"),
			Validate: func(string) (any, error) { return nil, errors.New("expected integer") },
			Fallback: 0,
		},
		{
			Name:     "upper",
			Invoke:   returns("ok"),
			Validate: func(raw string) (any, error) { return raw + "!", nil },
			Fallback: "",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Fields["count"])
	assert.Equal(t, "ok!", result.Fields["upper"])

	outcome := result.Outcomes["count"]
	assert.True(t, outcome.Fulfilled)
	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "not a number", outcome.Raw)
	assert.ErrorIs(t, outcome.Err, orchestrator.ErrValidation)
}

func TestRunRecoversPanics(t *testing.T) {
	t.Parallel()

	o := orchestrator.New(orchestrator.Options{}, nil, quietLogger())
	result, err := o.Run(context.Background(), []orchestrator.Task{
		{Name: "ok", Invoke: returns("fine"), Fallback: ""},
		{Name: "bad", Invoke: func(context.Context) (string, error) { panic("kaboom") }, Fallback: "safe"},
		{
			Name:     "bad_validator",
			Invoke:   returns("x"),
			Validate: func(string) (any, error) { panic("validator kaboom") },
			Fallback: "safe too",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "fine", result.Fields["ok"])
	assert.Equal(t, "safe", result.Fields["bad"])
	assert.Equal(t, "safe too", result.Fields["bad_validator"])
	assert.ErrorIs(t, result.Outcomes["bad"].Err, orchestrator.ErrTaskPanic)
	assert.Contains(t, result.Outcomes["bad"].Reason, "kaboom")
}

func TestRunDeadlineAbandonsSlowTasks(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	o := orchestrator.New(orchestrator.Options{Timeout: 50 * time.Millisecond}, nil, quietLogger())

	start := time.Now()
	result, err := o.Run(context.Background(), []orchestrator.Task{
		{Name: "fast", Invoke: returns("done"), Fallback: ""},
		{
			Name: "stuck",
			Invoke: func(context.Context) (string, error) {
				<-release // ignores its context
				return "late", nil
			},
			Fallback: "timed out",
		},
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, "done", result.Fields["fast"])
	assert.Equal(t, "timed out", result.Fields["stuck"])
	assert.ErrorIs(t, result.Outcomes["stuck"].Err, orchestrator.ErrTaskTimeout)
	assert.ErrorIs(t, result.Outcomes["stuck"].Err, context.DeadlineExceeded)
	assert.Equal(t, orchestrator.StatusPartialFailure, result.Status)
}

// gateHandler holds the first "task fell back" log line until released, which
// keeps Run busy while other tasks settle behind it.
type gateHandler struct {
	once    *sync.Once
	entered chan struct{}
	release chan struct{}
}

func (h gateHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h gateHandler) Handle(_ context.Context, r slog.Record) error {
	if r.Message != "task fell back" {
		return nil
	}
	h.once.Do(func() {
		close(h.entered)
		<-h.release
	})
	return nil
}

func (h gateHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h gateHandler) WithGroup(string) slog.Handler { return h }

func TestRunKeepsResultsSettledBeforeCancellation(t *testing.T) {
	t.Parallel()

	gate := gateHandler{once: &sync.Once{}, entered: make(chan struct{}), release: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fastDone := make(chan struct{})
	o := orchestrator.New(orchestrator.Options{}, nil, slog.New(gate))

	go func() {
		<-fastDone
		// Let the finished value reach the results queue, then cancel while
		// Run is still blocked in the log call.
		time.Sleep(50 * time.Millisecond)
		cancel()
		close(gate.release)
	}()

	result, err := o.Run(ctx, []orchestrator.Task{
		{Name: "broken", Invoke: fails("boom"), Fallback: "fb"},
		{
			Name: "fast",
			Invoke: func(context.Context) (string, error) {
				<-gate.entered
				defer close(fastDone)
				return "ok", nil
			},
			Fallback: "ff",
		},
		{
			Name: "slow",
			Invoke: func(ctx context.Context) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			Fallback: "fs",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result.Fields["fast"])
	assert.False(t, result.Outcomes["fast"].UsedFallback)
	assert.Equal(t, "fb", result.Fields["broken"])
	assert.Equal(t, "fs", result.Fields["slow"])
	assert.ErrorIs(t, result.Outcomes["slow"].Err, context.Canceled)
}

func TestRunCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := orchestrator.New(orchestrator.Options{}, nil, quietLogger())
	result, err := o.Run(ctx, []orchestrator.Task{
		{
			Name: "a",
			Invoke: func(ctx context.Context) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			Fallback: "fa",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "fa", result.Fields["a"])
	assert.ErrorIs(t, result.Outcomes["a"].Err, context.Canceled)
}

func TestRunMaxConcurrency(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	invoke := func(context.Context) (string, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return "ok", nil
	}

	tasks := make([]orchestrator.Task, 6)
	for i := range tasks {
		tasks[i] = orchestrator.Task{Name: fmt.Sprintf("t%d", i), Invoke: invoke, Fallback: ""}
	}

	o := orchestrator.New(orchestrator.Options{MaxConcurrency: 2}, nil, quietLogger())
	result, err := o.Run(context.Background(), tasks)

	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, result.Status)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunRejectsMalformedTaskSets(t *testing.T) {
	t.Parallel()

	var invoked atomic.Bool
	invoke := func(context.Context) (string, error) {
		invoked.Store(true)
		return "", nil
	}

	tests := []struct {
		name  string
		tasks []orchestrator.Task
	}{
		{"no tasks", nil},
		{"empty name", []orchestrator.Task{{Name: "", Invoke: invoke, Fallback: ""}}},
		{"padded name", []orchestrator.Task{{Name: " a", Invoke: invoke, Fallback: ""}}},
		{"reserved name", []orchestrator.Task{{Name: "status", Invoke: invoke, Fallback: ""}}},
		{"no function", []orchestrator.Task{{Name: "a", Fallback: ""}}},
		{"no fallback", []orchestrator.Task{{Name: "a", Invoke: invoke}}},
		{"duplicate", []orchestrator.Task{
			{Name: "a", Invoke: invoke, Fallback: ""},
			{Name: "a", Invoke: invoke, Fallback: ""},
		}},
	}

	o := orchestrator.New(orchestrator.Options{}, nil, quietLogger())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := o.Run(context.Background(), tc.tasks)

			assert.Nil(t, result)
			assert.ErrorIs(t, err, orchestrator.ErrInvalidTasks)
		})
	}
	assert.False(t, invoked.Load(), "no task starts when the set is malformed")
}

func TestRunRecordsDiagnostics(t *testing.T) {
	t.Parallel()

	recorder := &captureRecorder{}
	o := orchestrator.New(orchestrator.Options{Name: "report"}, recorder, quietLogger())

	result, err := o.Run(context.Background(), []orchestrator.Task{
		{Name: "a", Prompt: "say foo", Invoke: returns("foo"), Fallback: ""},
		{Name: "b", Prompt: "say bar", Invoke: fails("boom"), Fallback: "fb"},
	})
	require.NoError(t, err)

	diags := recorder.all()
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, result.RunID, d.RunID)
	assert.Equal(t, "report", d.Name)
	assert.Equal(t, orchestrator.StatusPartialFailure, d.Status)
	require.Len(t, d.Tasks, 2)

	assert.Equal(t, "a", d.Tasks[0].Name)
	assert.Equal(t, "say foo", d.Tasks[0].Prompt)
	assert.Equal(t, "foo", d.Tasks[0].Raw)
	assert.Equal(t, "foo", d.Tasks[0].Value)
	assert.Empty(t, d.Tasks[0].Error)

	assert.Equal(t, "b", d.Tasks[1].Name)
	assert.Equal(t, "fb", d.Tasks[1].Value)
	assert.True(t, d.Tasks[1].UsedFallback)
	assert.Equal(t, "boom", d.Tasks[1].Error)
}

func TestRunSurvivesPanickingRecorder(t *testing.T) {
	t.Parallel()

	recorder := orchestrator.RecorderFunc(func(orchestrator.Diagnostic) { panic("disk full") })
	o := orchestrator.New(orchestrator.Options{}, recorder, quietLogger())

	result, err := o.Run(context.Background(), []orchestrator.Task{
		{Name: "a", Invoke: returns("foo"), Fallback: ""},
	})

	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, result.Status)
}
