package diagnostics_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/genewise-api/internal/diagnostics"
	"github.com/phrazzld/genewise-api/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// blockingStore blocks every write until release is closed.
type blockingStore struct {
	release chan struct{}
	started chan struct{}
}

func (b *blockingStore) Store(ctx context.Context, _, _ string, _ any) error {
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type failingStore struct{}

func (failingStore) Store(context.Context, string, string, any) error {
	return errors.New("connection refused")
}

func diagnostic(runID string) orchestrator.Diagnostic {
	return orchestrator.Diagnostic{
		RunID:     runID,
		Name:      "report_simplification",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Status:    orchestrator.StatusSuccess,
		Tasks:     []orchestrator.TaskDiagnostic{{Name: "summary_html", Value: "<p>ok</p>"}},
	}
}

func TestAsyncRecorderWritesRecords(t *testing.T) {
	t.Parallel()

	store := diagnostics.NewMemoryStore()
	rec := diagnostics.NewAsyncRecorder(store, diagnostics.RecorderConfig{Workers: 2, QueueSize: 10}, quietLogger())

	rec.Record(diagnostic("run-1"))
	rec.Record(diagnostic("run-2"))
	require.NoError(t, rec.Stop(context.Background()))

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, int64(2), rec.Written())
	assert.Zero(t, rec.Dropped())

	raw, ok := store.Get("report_simplification", "run-1")
	require.True(t, ok)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "Success", got["status"])
}

func TestAsyncRecorderDropsWhenFull(t *testing.T) {
	t.Parallel()

	store := &blockingStore{release: make(chan struct{}), started: make(chan struct{}, 1)}
	rec := diagnostics.NewAsyncRecorder(store, diagnostics.RecorderConfig{Workers: 1, QueueSize: 1}, quietLogger())

	rec.Record(diagnostic("in-flight"))
	<-store.started // the worker holds the first record

	rec.Record(diagnostic("queued"))
	start := time.Now()
	rec.Record(diagnostic("overflow"))
	assert.Less(t, time.Since(start), 100*time.Millisecond, "Record must not block")

	assert.Equal(t, int64(1), rec.Dropped())

	close(store.release)
	require.NoError(t, rec.Stop(context.Background()))
	assert.Equal(t, int64(2), rec.Written())
}

func TestAsyncRecorderStopTimeout(t *testing.T) {
	t.Parallel()

	store := &blockingStore{release: make(chan struct{}), started: make(chan struct{}, 1)}
	rec := diagnostics.NewAsyncRecorder(store, diagnostics.RecorderConfig{Workers: 1, QueueSize: 4}, quietLogger())

	rec.Record(diagnostic("stuck"))
	<-store.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rec.Stop(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, rec.Written())
}

func TestAsyncRecorderAfterStop(t *testing.T) {
	t.Parallel()

	store := diagnostics.NewMemoryStore()
	rec := diagnostics.NewAsyncRecorder(store, diagnostics.RecorderConfig{}, quietLogger())
	require.NoError(t, rec.Stop(context.Background()))
	require.NoError(t, rec.Stop(context.Background()), "Stop is idempotent")

	rec.Record(diagnostic("late"))

	assert.Zero(t, store.Len())
	assert.Equal(t, int64(1), rec.Dropped())
}

func TestAsyncRecorderStoreFailure(t *testing.T) {
	t.Parallel()

	rec := diagnostics.NewAsyncRecorder(failingStore{}, diagnostics.RecorderConfig{Workers: 1}, quietLogger())
	rec.Record(diagnostic("run-1"))
	require.NoError(t, rec.Stop(context.Background()))

	assert.Zero(t, rec.Written())
	assert.Equal(t, int64(1), rec.Dropped())
}

// TestAsyncRecorderWithOrchestrator checks that a run's diagnostic lands in
// the store under the run name and ID.
func TestAsyncRecorderWithOrchestrator(t *testing.T) {
	t.Parallel()

	store := diagnostics.NewMemoryStore()
	rec := diagnostics.NewAsyncRecorder(store, diagnostics.DefaultRecorderConfig(), quietLogger())
	o := orchestrator.New(orchestrator.Options{Name: "report_simplification"}, rec, quietLogger())

	result, err := o.Run(context.Background(), []orchestrator.Task{{
		Name:     "a",
		Prompt:   "prompt a",
		Invoke:   func(context.Context) (string, error) { return "foo", nil },
		Fallback: "",
	}})
	require.NoError(t, err)
	require.NoError(t, rec.Stop(context.Background()))

	raw, ok := store.Get("report_simplification", result.RunID)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"prompt":"prompt a"`)
}
