package operation

import (
	"fmt"
	"strconv"
)

// ReasonCode says why an operation is (not) progressing
type ReasonCode string

const (
	ReasonStarting       ReasonCode = "starting"
	ReasonWaiting        ReasonCode = "waiting"
	ReasonTransientError ReasonCode = "transient_error"
	ReasonSucceeded      ReasonCode = "succeeded"
	ReasonFailed         ReasonCode = "failed"
	ReasonTimedOut       ReasonCode = "timed_out"
	ReasonCancelled      ReasonCode = "cancelled"
)

// Reason is the structured status line shown next to a progress indicator
type Reason struct {
	Code    ReasonCode `json:"code"`
	Attempt int        `json:"attempt"`
	Budget  int        `json:"budget,omitempty"`
	Detail  string     `json:"detail,omitempty"`
}

func (r Reason) progress() string {
	if r.Budget > 0 {
		return fmt.Sprintf("attempt %d/%d", r.Attempt, r.Budget)
	}
	return "attempt " + strconv.Itoa(r.Attempt)
}

// String renders the reason for humans, e.g. "record not found yet, attempt 6/24"
func (r Reason) String() string {
	switch r.Code {
	case ReasonStarting:
		return "starting"
	case ReasonWaiting:
		detail := r.Detail
		if detail == "" {
			detail = "waiting"
		}
		return detail + ", " + r.progress()
	case ReasonTransientError:
		if r.Detail == "" {
			return "check failed, retrying, " + r.progress()
		}
		return "check failed (" + r.Detail + "), retrying, " + r.progress()
	case ReasonSucceeded:
		if r.Detail != "" {
			return r.Detail
		}
		return "done"
	case ReasonFailed:
		if r.Detail != "" {
			return "failed: " + r.Detail
		}
		return "failed"
	case ReasonTimedOut:
		msg := fmt.Sprintf("gave up after %d attempts", r.Attempt)
		if r.Detail != "" {
			msg += ": " + r.Detail
		}
		return msg
	case ReasonCancelled:
		return "cancelled"
	default:
		return ""
	}
}
