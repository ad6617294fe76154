package analysis

import (
	"errors"
	"fmt"
	"time"
)

// Common errors returned by the analysis package
var (
	// ErrInvalidRequest is returned when a request has neither a document URL
	// nor inline content.
	ErrInvalidRequest = errors.New("invalid document analysis request")

	// ErrSubmission is returned when the remote job could not be started or the
	// service did not return a trackable handle.
	ErrSubmission = errors.New("document analysis submission failed")

	// ErrAnalysisFailed is returned when the remote service reports the job as failed.
	ErrAnalysisFailed = errors.New("document analysis failed")

	// ErrTimeout is returned when the attempt budget or the caller's deadline
	// is exhausted while the job is still running.
	ErrTimeout = errors.New("document analysis timed out")

	// ErrPoll is returned when a status poll is rejected for a reason that a
	// later poll cannot fix, such as an unknown operation or bad credentials.
	ErrPoll = errors.New("document analysis poll failed")

	// ErrTransient marks service errors that may succeed on a later attempt.
	// Service implementations wrap it; the poller retries on it.
	ErrTransient = errors.New("transient document analysis error")
)

// ServiceError carries the error detail reported by the remote service for a
// failed job.
type ServiceError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s: %s", ErrAnalysisFailed, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", ErrAnalysisFailed, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", ErrAnalysisFailed, e.Code)
	default:
		return ErrAnalysisFailed.Error()
	}
}

// Unwrap makes errors.Is(err, ErrAnalysisFailed) hold for every ServiceError.
func (e *ServiceError) Unwrap() error {
	return ErrAnalysisFailed
}

// Delayer is implemented by service errors that carry a server-requested
// wait, such as an HTTP Retry-After header.
type Delayer interface {
	Delay() time.Duration
}

// RetryDelay returns the wait requested by err, or zero when it has none.
func RetryDelay(err error) time.Duration {
	var d Delayer
	if errors.As(err, &d) {
		return d.Delay()
	}
	return 0
}
