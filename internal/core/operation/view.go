package operation

import (
	"errors"
	"time"

	perr "metaview/internal/platform/errors"
	ptime "metaview/internal/platform/time"
)

// Progress is the render model of a controller: what a progress indicator shows and why
type Progress struct {
	OperationID   string     `json:"operation_id,omitempty"`
	Phase         Phase      `json:"phase"`
	Reason        Reason     `json:"reason"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	AttemptBudget int        `json:"attempt_budget"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	CanStart      bool       `json:"can_start"`
}

// ProgressOf renders a snapshot; canStart comes from the controller since a submission in flight
// is not visible in the snapshot
func ProgressOf[T any](s Snapshot[T], canStart bool) Progress {
	p := Progress{
		OperationID:   s.ID,
		Phase:         s.Phase,
		Reason:        s.Reason,
		Attempts:      s.Attempts,
		AttemptBudget: s.AttemptBudget,
		CanStart:      canStart,
	}
	if s.Phase != PhaseIdle {
		p.Status = s.Reason.String()
	}
	if !s.StartedAt.IsZero() {
		p.StartedAt = ptime.Ptr(s.StartedAt)
	}
	if !s.LastCheckedAt.IsZero() {
		p.LastCheckedAt = ptime.Ptr(s.LastCheckedAt)
	}
	return p
}

// ErrorKind says which stage of an operation produced an InlineError
type ErrorKind string

const (
	ErrorKindSubmission ErrorKind = "submission"
	ErrorKindFailed     ErrorKind = "failed"
	ErrorKindTimedOut   ErrorKind = "timed_out"
)

// InlineError is the dismissible error a consumer shows next to its start action
type InlineError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

// InlineErrorOf returns the error to display for a terminal snapshot, nil for anything else.
// Cancellation is never displayed
func InlineErrorOf[T any](s Snapshot[T]) *InlineError {
	switch s.Phase {
	case PhaseFailed:
		return &InlineError{Kind: ErrorKindFailed, Message: s.Reason.String(), Retryable: true}
	case PhaseTimedOut:
		return &InlineError{Kind: ErrorKindTimedOut, Message: s.Reason.String(), Retryable: true}
	}
	return nil
}

// SubmissionInlineError renders a failed Start. Input and credential problems are not retryable
// as-is; the user has to change something first
func SubmissionInlineError(err error) *InlineError {
	if err == nil || errors.Is(err, ErrBusy) {
		return nil
	}
	msg := err.Error()
	var se *SubmissionError
	if errors.As(err, &se) {
		msg = se.Err.Error()
		if e, ok := perr.As(se.Err); ok {
			msg = e.Message()
		}
	}
	retry := true
	switch perr.CodeOf(err) {
	case perr.ErrorCodeValidation, perr.ErrorCodeInvalidArgument, perr.ErrorCodeJSON,
		perr.ErrorCodeUnauthorized, perr.ErrorCodeForbidden, perr.ErrorCodeNotFound:
		retry = false
	}
	return &InlineError{Kind: ErrorKindSubmission, Message: msg, Retryable: retry}
}
