package orchestrator

import "errors"

var (
	// ErrInvalidTasks is returned by Run when the task set is malformed. It is
	// the only error that aborts a run, and it does so before any task starts.
	ErrInvalidTasks = errors.New("invalid task set")

	// ErrValidation marks a task whose value did not pass its validator.
	ErrValidation = errors.New("task output failed validation")

	// ErrTaskTimeout marks a task abandoned at the run deadline.
	ErrTaskTimeout = errors.New("task did not finish before the run deadline")

	// ErrTaskPanic marks a task whose function panicked.
	ErrTaskPanic = errors.New("task panicked")
)
