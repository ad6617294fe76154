package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/genewise-api/internal/redact"
)

// Service is the boundary to an external asynchronous document analysis API.
type Service interface {
	// Submit starts an analysis job and returns its handle (for example an
	// operation URL). An empty handle is treated as a submission failure.
	Submit(ctx context.Context, req Request) (string, error)

	// Poll fetches the current status of the job identified by handle.
	// Errors that may clear up on a later attempt should wrap ErrTransient.
	Poll(ctx context.Context, handle string) (*PollResponse, error)
}

// Poller submits analysis jobs and waits for them to finish.
type Poller struct {
	service Service
	options Options
	logger  *slog.Logger
	now     func() time.Time
}

// NewPoller creates a Poller. Zero fields in opts take DefaultOptions values.
func NewPoller(service Service, opts Options, logger *slog.Logger) (*Poller, error) {
	if service == nil {
		return nil, errors.New("analysis service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		service: service,
		options: opts.withDefaults(),
		logger:  logger.With("component", "analysis_poller"),
		now:     time.Now,
	}, nil
}

// Options returns the poller's default polling bounds.
func (p *Poller) Options() Options {
	return p.options
}

// Submit starts a job. It is not retried: the caller decides whether a
// failed submission is worth repeating.
func (p *Poller) Submit(ctx context.Context, req Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	handle, err := p.service.Submit(ctx, req)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to submit analysis job", "error", redact.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	if handle == "" {
		p.logger.ErrorContext(ctx, "analysis service returned no operation handle")
		return nil, fmt.Errorf("%w: no operation handle returned", ErrSubmission)
	}

	job := &Job{
		ID:          handle,
		SubmittedAt: p.now(),
		Status:      StatusPending,
	}
	p.logger.DebugContext(ctx, "analysis job submitted")
	return job, nil
}

// AwaitCompletion polls job until it succeeds, fails or exhausts the attempt
// budget. Zero fields in opts fall back to the poller's options. The job's
// Status, PollCount, Result and Err fields are updated in place.
func (p *Poller) AwaitCompletion(ctx context.Context, job *Job, opts Options) (*Result, error) {
	if job == nil || job.ID == "" {
		return nil, fmt.Errorf("%w: job has no handle", ErrInvalidRequest)
	}
	if job.Status.Terminal() {
		return job.Result, job.Err
	}
	if opts.Interval <= 0 {
		opts.Interval = p.options.Interval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = p.options.MaxAttempts
	}

	timer := time.NewTimer(opts.Interval)
	defer timer.Stop()

	wait := opts.Interval
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer.Reset(wait)
			wait = opts.Interval
		}

		select {
		case <-ctx.Done():
			return nil, p.abandon(ctx, job)
		case <-timer.C:
		}

		job.PollCount = attempt
		resp, err := p.service.Poll(ctx, job.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, p.abandon(ctx, job)
			}
			if errors.Is(err, ErrTransient) {
				// A server-requested delay stretches the next wait but still
				// spends one attempt.
				if delay := RetryDelay(err); delay > wait {
					wait = delay
				}
				p.logger.WarnContext(ctx, "transient error polling analysis job, will retry",
					"attempt", attempt,
					"max_attempts", opts.MaxAttempts,
					"next_poll_in", wait.String(),
					"error", redact.Error(err))
				continue
			}
			job.Status = StatusFailed
			job.Err = fmt.Errorf("%w: %w", ErrPoll, err)
			p.logger.ErrorContext(ctx, "analysis job poll rejected",
				"poll_count", attempt,
				"error", redact.Error(err))
			return nil, job.Err
		}

		status, known := ParseStatus(resp.Status)
		if !known {
			p.logger.WarnContext(ctx, "unrecognized analysis status, treating as running",
				"status", resp.Status,
				"attempt", attempt)
		}
		job.Status = status

		switch status {
		case StatusSucceeded:
			result := resp.Result
			if result == nil {
				result = &Result{}
			}
			job.Result = result
			p.logger.InfoContext(ctx, "analysis job succeeded",
				"poll_count", attempt,
				"pages", result.Pages,
				"elapsed", p.now().Sub(job.SubmittedAt).String())
			return result, nil

		case StatusFailed:
			failure := resp.Failure
			if failure == nil {
				failure = &ServiceError{}
			}
			job.Err = failure
			p.logger.ErrorContext(ctx, "analysis job failed",
				"poll_count", attempt,
				"code", failure.Code,
				"error", redact.String(failure.Message))
			return nil, failure

		default:
			p.logger.DebugContext(ctx, "analysis job still running",
				"status", string(status),
				"attempt", attempt)
		}
	}

	job.Status = StatusTimedOut
	job.Err = fmt.Errorf("%w: still running after %d polls", ErrTimeout, opts.MaxAttempts)
	p.logger.WarnContext(ctx, "analysis job timed out",
		"poll_count", job.PollCount,
		"interval", opts.Interval.String())
	return nil, job.Err
}

// Analyze submits req and waits for its result using the poller's options.
func (p *Poller) Analyze(ctx context.Context, req Request) (*Result, *Job, error) {
	job, err := p.Submit(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	result, err := p.AwaitCompletion(ctx, job, p.options)
	return result, job, err
}

// abandon records a context stop on the job. Deadlines surface as ErrTimeout.
func (p *Poller) abandon(ctx context.Context, job *Job) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		job.Status = StatusTimedOut
		job.Err = fmt.Errorf("%w: %w", ErrTimeout, err)
	} else {
		job.Err = err
	}
	p.logger.WarnContext(ctx, "stopped polling analysis job",
		"poll_count", job.PollCount,
		"error", err)
	return job.Err
}
