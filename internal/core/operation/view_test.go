package operation

import (
	"errors"
	"testing"
	"time"

	"metaview/internal/core/poll"
	perr "metaview/internal/platform/errors"
)

func TestProgressOf(t *testing.T) {
	idle := ProgressOf(Snapshot[int]{Phase: PhaseIdle, AttemptBudget: 24}, true)
	if idle.Status != "" || idle.StartedAt != nil || !idle.CanStart || idle.AttemptBudget != 24 {
		t.Fatalf("idle progress %+v", idle)
	}

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := ProgressOf(Snapshot[int]{
		ID:            "op-1",
		Phase:         PhaseRunning,
		Attempts:      6,
		AttemptBudget: 24,
		StartedAt:     start,
		LastCheckedAt: start.Add(76 * time.Second),
		Reason:        Reason{Code: ReasonWaiting, Attempt: 6, Budget: 24, Detail: "record not found yet"},
	}, false)
	if p.Status != "record not found yet, attempt 6/24" {
		t.Fatalf("status %q", p.Status)
	}
	if p.StartedAt == nil || !p.StartedAt.Equal(start) || p.LastCheckedAt == nil || p.CanStart {
		t.Fatalf("progress %+v", p)
	}
}

func TestInlineErrorOf(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot[int]
		want *InlineError
	}{
		{"running", Snapshot[int]{Phase: PhaseRunning}, nil},
		{"succeeded", Snapshot[int]{Phase: PhaseSucceeded}, nil},
		{"cancelled", Snapshot[int]{Phase: PhaseCancelled}, nil},
		{
			"failed",
			Snapshot[int]{Phase: PhaseFailed, Err: poll.Fail("render crashed"), Reason: Reason{Code: ReasonFailed, Detail: "render crashed"}},
			&InlineError{Kind: ErrorKindFailed, Message: "failed: render crashed", Retryable: true},
		},
		{
			"timed out",
			Snapshot[int]{Phase: PhaseTimedOut, Reason: Reason{Code: ReasonTimedOut, Attempt: 24, Detail: "record not found yet"}},
			&InlineError{Kind: ErrorKindTimedOut, Message: "gave up after 24 attempts: record not found yet", Retryable: true},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := InlineErrorOf(tc.snap)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("got %+v want %+v", *got, *tc.want)
			}
		})
	}
}

func TestSubmissionInlineError(t *testing.T) {
	if SubmissionInlineError(nil) != nil || SubmissionInlineError(ErrBusy) != nil {
		t.Fatalf("nil and busy must not be displayed")
	}

	bad := SubmissionInlineError(&SubmissionError{Operation: "preview_generation", Err: perr.Validationf("url is not reachable")})
	if bad.Kind != ErrorKindSubmission || bad.Message != "url is not reachable" || bad.Retryable {
		t.Fatalf("validation submission %+v", *bad)
	}

	down := SubmissionInlineError(&SubmissionError{Operation: "preview_generation", Err: perr.Wrap(errors.New("dial tcp: refused"), perr.ErrorCodeUnavailable, "metaview unreachable")})
	if down.Message != "metaview unreachable" || !down.Retryable {
		t.Fatalf("unavailable submission %+v", *down)
	}
}
