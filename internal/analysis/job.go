package analysis

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the lifecycle state of an analysis job.
type Status string

// Job states. NotStarted, Running, Succeeded and Failed mirror the remote
// service; Pending and TimedOut exist only on the poller side.
const (
	StatusPending    Status = "pending"
	StatusNotStarted Status = "notStarted"
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusTimedOut   Status = "timedOut"
)

// Terminal reports whether no further polling can change the status.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusTimedOut
}

// ParseStatus maps a status string reported by the remote service to a
// Status. Matching is case-insensitive. The second result is false for
// values the poller does not recognize.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "notstarted":
		return StatusNotStarted, true
	case "running":
		return StatusRunning, true
	case "succeeded":
		return StatusSucceeded, true
	case "failed":
		return StatusFailed, true
	default:
		return StatusRunning, false
	}
}

// Request describes the document to analyze. Exactly one of DocumentURL and
// Content is expected.
type Request struct {
	DocumentURL string
	Content     []byte
}

// Validate checks that the request references a document.
func (r Request) Validate() error {
	if strings.TrimSpace(r.DocumentURL) == "" && len(r.Content) == 0 {
		return ErrInvalidRequest
	}
	return nil
}

// Result is the payload of a successfully analyzed document.
type Result struct {
	// Content is the full extracted text of the document.
	Content string `json:"content"`

	// Pages is the number of pages the service analyzed.
	Pages int `json:"pages"`

	// Raw holds the service's analyze result verbatim.
	Raw json.RawMessage `json:"-"`
}

// PollResponse is one status observation returned by a Service.
type PollResponse struct {
	Status string

	// Result is set when Status is succeeded.
	Result *Result

	// Failure is set when Status is failed.
	Failure *ServiceError
}

// Job tracks a submitted analysis. It is created by Poller.Submit and mutated
// only by the poller.
type Job struct {
	ID          string
	SubmittedAt time.Time
	Status      Status
	PollCount   int
	Result      *Result
	Err         error
}

// Options bound a polling loop.
type Options struct {
	// Interval is the delay before each status poll.
	Interval time.Duration

	// MaxAttempts is the number of polls allowed before giving up.
	MaxAttempts int
}

// DefaultOptions returns a 1s interval and 45 attempts.
func DefaultOptions() Options {
	return Options{
		Interval:    1000 * time.Millisecond,
		MaxAttempts: 45,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Interval <= 0 {
		o.Interval = d.Interval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	return o
}
