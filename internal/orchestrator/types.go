package orchestrator

import (
	"context"
	"encoding/json"
	"time"
)

// Status is the aggregate outcome of a run.
type Status string

const (
	// StatusSuccess means every task fulfilled and passed validation.
	StatusSuccess Status = "Success"

	// StatusPartialFailure means at least one field holds its fallback.
	StatusPartialFailure Status = "Partial Failure or Failure"
)

// statusField is the key the aggregate status occupies in JSON output, so no
// task may use it as a name.
const statusField = "status"

// Task is one named unit of work in a run.
type Task struct {
	// Name identifies the task and becomes its field in the composite result.
	Name string

	// Prompt is the input sent by Invoke, kept for diagnostics only.
	Prompt string

	// Invoke produces the task's raw output.
	Invoke func(ctx context.Context) (string, error)

	// Validate turns raw output into the field value, or rejects it. When nil
	// the raw string is used as is.
	Validate func(raw string) (any, error)

	// Fallback is substituted when the task fails for any reason. It must be
	// non-nil.
	Fallback any
}

// TaskOutcome records how a single task settled.
type TaskOutcome struct {
	Name string `json:"name"`

	// Fulfilled is true when Invoke returned without error.
	Fulfilled bool `json:"fulfilled"`

	// UsedFallback is true when the field holds the task's fallback.
	UsedFallback bool `json:"used_fallback"`

	// Raw is the unvalidated output, if any.
	Raw string `json:"raw,omitempty"`

	// Err is the failure reason; Reason is its text.
	Err    error  `json:"-"`
	Reason string `json:"reason,omitempty"`

	Duration time.Duration `json:"-"`
}

// CompositeResult is the assembled output of a run.
type CompositeResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	// Fields holds one value per task name, real or fallback.
	Fields map[string]any

	// Outcomes holds per-task settlement details keyed by task name.
	Outcomes map[string]TaskOutcome

	Status Status
}

// Succeeded reports whether the named task produced a validated value.
func (r *CompositeResult) Succeeded(name string) bool {
	outcome, ok := r.Outcomes[name]
	return ok && !outcome.UsedFallback
}

// MarshalJSON renders the caller-facing shape: one key per task plus status.
func (r *CompositeResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	for name, value := range r.Fields {
		out[name] = value
	}
	out[statusField] = r.Status
	return json.Marshal(out)
}

// Options tune a run.
type Options struct {
	// Name labels the run in logs and diagnostics.
	Name string

	// Timeout bounds the whole run. Zero means only the caller's context applies.
	Timeout time.Duration

	// MaxConcurrency caps how many tasks run at once. Zero means no cap.
	MaxConcurrency int
}
