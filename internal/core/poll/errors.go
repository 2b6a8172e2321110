package poll

import (
	"errors"
	"fmt"
	"time"

	perr "metaview/internal/platform/errors"
)

var (
	// ErrTimedOut matches every *TimeoutError via errors.Is
	ErrTimedOut = perr.New(perr.ErrorCodeTimeout, "polling budget exhausted")

	// ErrFailed matches every *FailureError via errors.Is
	ErrFailed = perr.New(perr.ErrorCodeJobFailed, "remote work failed")
)

// FailureError is a terminal failure reported by the server
// Fetch functions return it (possibly wrapped) to stop polling immediately
type FailureError struct {
	Message string
}

// Fail builds a *FailureError
func Fail(format string, a ...any) error {
	return &FailureError{Message: fmt.Sprintf(format, a...)}
}

func (e *FailureError) Error() string {
	if e.Message == "" {
		return ErrFailed.Error()
	}
	return e.Message
}

func (e *FailureError) Unwrap() error { return ErrFailed }

// TimeoutError means the policy budget ran out while the work was still pending
type TimeoutError struct {
	Attempts int
	Elapsed  time.Duration
	LastErr  error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("gave up after %d attempts (%s)", e.Attempts, e.Elapsed.Round(time.Millisecond))
	if e.LastErr != nil {
		msg += ": last error: " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() []error {
	if e.LastErr != nil {
		return []error{ErrTimedOut, e.LastErr}
	}
	return []error{ErrTimedOut}
}

// IsTerminalFailure reports whether err is a server-reported failure
func IsTerminalFailure(err error) bool { return errors.Is(err, ErrFailed) }

// IsTimeout reports whether err is an exhausted budget
func IsTimeout(err error) bool { return errors.Is(err, ErrTimedOut) }
