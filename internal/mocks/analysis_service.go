package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/genewise-api/internal/analysis"
)

// PollStep is one scripted reply of MockAnalysisService.Poll.
type PollStep struct {
	Response *analysis.PollResponse
	Err      error
}

// MockAnalysisService implements analysis.Service by replaying scripted poll
// steps. Once the script is exhausted the last step repeats.
type MockAnalysisService struct {
	// Handle is returned by Submit unless SubmitErr is set.
	Handle    string
	SubmitErr error

	Steps []PollStep

	mu       sync.Mutex
	requests []analysis.Request
	polls    int
}

// Submit records req and returns the configured handle.
func (m *MockAnalysisService) Submit(_ context.Context, req analysis.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	return m.Handle, nil
}

// Poll returns the next scripted step.
func (m *MockAnalysisService) Poll(ctx context.Context, _ string) (*analysis.PollResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.polls
	m.polls++
	if len(m.Steps) == 0 {
		return &analysis.PollResponse{Status: string(analysis.StatusRunning)}, nil
	}
	if i >= len(m.Steps) {
		i = len(m.Steps) - 1
	}
	return m.Steps[i].Response, m.Steps[i].Err
}

// Polls returns how many times Poll was called.
func (m *MockAnalysisService) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

// Requests returns the submitted requests.
func (m *MockAnalysisService) Requests() []analysis.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]analysis.Request(nil), m.requests...)
}

// Running is a poll step reporting a job in progress.
func Running() PollStep {
	return PollStep{Response: &analysis.PollResponse{Status: string(analysis.StatusRunning)}}
}

// Succeeded is a poll step reporting a finished job with content.
func Succeeded(content string, pages int) PollStep {
	return PollStep{Response: &analysis.PollResponse{
		Status: string(analysis.StatusSucceeded),
		Result: &analysis.Result{Content: content, Pages: pages},
	}}
}

// Failed is a poll step reporting a failed job.
func Failed(code, message string) PollStep {
	return PollStep{Response: &analysis.PollResponse{
		Status:  string(analysis.StatusFailed),
		Failure: &analysis.ServiceError{Code: code, Message: message},
	}}
}

// Status is a poll step reporting the raw status string, recognized or not.
func Status(status string) PollStep {
	return PollStep{Response: &analysis.PollResponse{Status: status}}
}

// PollError is a poll step whose request fails with err.
func PollError(err error) PollStep {
	return PollStep{Err: err}
}
