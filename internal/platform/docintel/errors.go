package docintel

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/genewise-api/internal/analysis"
)

// ErrInvalidConfig is returned when the client is built without an endpoint or key.
var ErrInvalidConfig = errors.New("invalid document intelligence configuration")

// StatusError is a non-success HTTP response from the service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("docintel %s: http %d: %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

// Delay returns the wait requested by the Retry-After header. It satisfies
// analysis.Delayer.
func (e *StatusError) Delay() time.Duration {
	return e.RetryAfter
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// classify wraps err with analysis.ErrTransient when a later attempt may
// succeed: 408, 429, 5xx and network timeouts.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Transient() {
			return fmt.Errorf("%w: %w", analysis.ErrTransient, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", analysis.ErrTransient, err)
	}

	// Connection refused and resets surface as *net.OpError without Timeout set.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %w", analysis.ErrTransient, err)
	}

	return err
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay
		}
	}
	return 0
}
