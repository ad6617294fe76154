package orchestrator

import "time"

// Diagnostic captures everything needed to audit one run after the fact.
type Diagnostic struct {
	RunID      string           `json:"run_id"`
	Name       string           `json:"name"`
	Timestamp  time.Time        `json:"timestamp"`
	Status     Status           `json:"status"`
	DurationMS int64            `json:"duration_ms"`
	Tasks      []TaskDiagnostic `json:"tasks"`
}

// TaskDiagnostic is the per-task slice of a Diagnostic.
type TaskDiagnostic struct {
	Name         string `json:"name"`
	Prompt       string `json:"prompt,omitempty"`
	Raw          string `json:"raw,omitempty"`
	Value        any    `json:"value"`
	UsedFallback bool   `json:"used_fallback"`
	Error        string `json:"error,omitempty"`
	DurationMS   int64  `json:"duration_ms"`
}

// Recorder receives a Diagnostic after each run. Record must not block; any
// persistence failure stays inside the recorder.
type Recorder interface {
	Record(d Diagnostic)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(d Diagnostic)

// Record calls f(d).
func (f RecorderFunc) Record(d Diagnostic) { f(d) }

type nopRecorder struct{}

func (nopRecorder) Record(Diagnostic) {}

func newDiagnostic(name string, result *CompositeResult, tasks []Task) Diagnostic {
	d := Diagnostic{
		RunID:      result.RunID,
		Name:       name,
		Timestamp:  result.StartedAt,
		Status:     result.Status,
		DurationMS: result.Duration.Milliseconds(),
		Tasks:      make([]TaskDiagnostic, 0, len(tasks)),
	}
	for _, task := range tasks {
		outcome := result.Outcomes[task.Name]
		d.Tasks = append(d.Tasks, TaskDiagnostic{
			Name:         task.Name,
			Prompt:       task.Prompt,
			Raw:          outcome.Raw,
			Value:        result.Fields[task.Name],
			UsedFallback: outcome.UsedFallback,
			Error:        outcome.Reason,
			DurationMS:   outcome.Duration.Milliseconds(),
		})
	}
	return d
}
