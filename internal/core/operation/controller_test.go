package operation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"metaview/internal/core/poll"
	perr "metaview/internal/platform/errors"
	"metaview/internal/platform/logger"
	kit "metaview/internal/platform/testkit"

	"github.com/jonboulle/clockwork"
)

type jobParams struct{ URL string }

// fakeJob answers status fetches from a list of statuses, repeating the last one
type fakeJob struct {
	statuses []string
	calls    atomic.Int32
	submits  atomic.Int32
}

func (j *fakeJob) submitter() Submitter[jobParams, string] {
	return func(ctx context.Context, p jobParams) (poll.FetchFunc[string], error) {
		j.submits.Add(1)
		j.calls.Store(0)
		return func(context.Context) (poll.Check[string], error) {
			n := int(j.calls.Add(1))
			s := j.statuses[len(j.statuses)-1]
			if n <= len(j.statuses) {
				s = j.statuses[n-1]
			}
			switch s {
			case "finished", "verified":
				return poll.Check[string]{Outcome: poll.Succeeded, Value: p.URL}, nil
			case "failed":
				return poll.Check[string]{Outcome: poll.Failed, Message: "render crashed"}, nil
			case "error":
				return poll.Check[string]{}, errors.New("connection reset")
			default:
				return poll.Check[string]{Outcome: poll.Pending, Message: s}, nil
			}
		}, nil
	}
}

// previewTimers is what a parked preview poller holds: its sleep and its run deadline
const previewTimers = 2

func newCtl(t *testing.T, policy poll.Policy, job *fakeJob) (*Controller[jobParams, string], *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	c := New("test", policy, job.submitter(), WithClock(fc), WithLogger(logger.Discard()))
	return c, fc
}

func waitDone(t *testing.T, c *Controller[jobParams, string]) Snapshot[string] {
	t.Helper()
	kit.WaitClosed(t, c.Done(), "operation run to exit")
	return c.Snapshot()
}

func TestController_PreviewScenario(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"queued", "started", "finished"}}
	c, fc := newCtl(t, poll.PreviewGenerationPolicy, job)

	var mu sync.Mutex
	var phases []Phase
	unsub := c.Subscribe(func(s Snapshot[string]) {
		mu.Lock()
		phases = append(phases, s.Phase)
		mu.Unlock()
	})
	defer unsub()

	if c.Phase() != PhaseIdle {
		t.Fatalf("initial phase = %s", c.Phase())
	}
	start := fc.Now()
	if err := c.Start(context.Background(), jobParams{URL: "https://example.com"}); err != nil {
		t.Fatal(err)
	}
	kit.StepN(t, fc, previewTimers, 1500*time.Millisecond)
	kit.StepN(t, fc, previewTimers, 1500*time.Millisecond)
	s := waitDone(t, c)

	if s.Phase != PhaseSucceeded || s.Value != "https://example.com" {
		t.Fatalf("snapshot = %+v", s)
	}
	if job.calls.Load() != 3 || s.Attempts != 3 {
		t.Fatalf("calls=%d attempts=%d, want 3", job.calls.Load(), s.Attempts)
	}
	if got := s.LastCheckedAt.Sub(start); got != 3*time.Second {
		t.Fatalf("elapsed = %s, want 3s", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(phases) < 2 || phases[0] != PhaseRunning || phases[len(phases)-1] != PhaseSucceeded {
		t.Fatalf("phase sequence = %v", phases)
	}
	for _, p := range phases[:len(phases)-1] {
		if p != PhaseRunning {
			t.Fatalf("unexpected intermediate phase in %v", phases)
		}
	}
}

func TestController_DomainTimesOutAfter24(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"record not found yet"}}
	c, fc := newCtl(t, poll.DomainVerificationPolicy, job)

	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	kit.Step(t, fc, time.Second)
	for range 23 {
		kit.Step(t, fc, 15*time.Second)
	}
	s := waitDone(t, c)

	if s.Phase != PhaseTimedOut {
		t.Fatalf("phase = %s", s.Phase)
	}
	fc.Advance(time.Hour)
	if job.calls.Load() != 24 || len(s.History) != 24 {
		t.Fatalf("calls=%d history=%d, want 24", job.calls.Load(), len(s.History))
	}
	if !errors.Is(s.Err, poll.ErrTimedOut) || perr.CodeOf(s.Err) != perr.ErrorCodeTimeout {
		t.Fatalf("err = %v", s.Err)
	}
	if got := s.Reason.String(); got != "gave up after 24 attempts: record not found yet" {
		t.Fatalf("reason = %q", got)
	}
}

func TestController_ReasonTracksAttempts(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"record not found yet"}}
	c, fc := newCtl(t, poll.DomainVerificationPolicy, job)

	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().Reason.Code; got != ReasonStarting {
		t.Fatalf("reason before first tick = %s", got)
	}
	kit.Step(t, fc, time.Second)
	for range 5 {
		kit.Step(t, fc, 15*time.Second)
	}
	kit.Eventually(t, func() bool { return c.Snapshot().Attempts == 6 }, "sixth tick recorded")
	if got := c.Snapshot().Reason.String(); got != "record not found yet, attempt 6/24" {
		t.Fatalf("reason = %q", got)
	}
	c.Cancel()
}

func TestController_TerminalFailure(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"queued", "failed"}}
	c, fc := newCtl(t, poll.PreviewGenerationPolicy, job)

	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	kit.StepN(t, fc, previewTimers, 1500*time.Millisecond)
	s := waitDone(t, c)
	if s.Phase != PhaseFailed || s.Reason.Detail != "render crashed" {
		t.Fatalf("snapshot = %+v", s)
	}
	if !poll.IsTerminalFailure(s.Err) {
		t.Fatalf("err = %v", s.Err)
	}
}

func TestController_TransientThenSuccess(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"queued", "started", "error", "finished"}}
	c, fc := newCtl(t, poll.PreviewGenerationPolicy, job)

	if err := c.Start(context.Background(), jobParams{URL: "u"}); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		kit.StepN(t, fc, previewTimers, 1500*time.Millisecond)
	}
	s := waitDone(t, c)
	if s.Phase != PhaseSucceeded || s.Attempts != 4 {
		t.Fatalf("phase=%s attempts=%d", s.Phase, s.Attempts)
	}
	if s.History[2].Outcome != poll.TickTransient {
		t.Fatalf("tick 3 = %+v", s.History[2])
	}
}

func TestController_CancelStopsFetching(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"queued"}}
	c, fc := newCtl(t, poll.PreviewGenerationPolicy, job)

	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	kit.StepN(t, fc, previewTimers, 1500*time.Millisecond)
	if err := fc.BlockUntilContext(context.Background(), previewTimers); err != nil {
		t.Fatal(err)
	}
	c.Cancel()
	if c.Phase() != PhaseCancelled {
		t.Fatalf("phase after Cancel = %s", c.Phase())
	}
	s := waitDone(t, c)
	fc.Advance(10 * time.Minute)

	if got := job.calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
	if s.Err != nil || s.Reason.Code != ReasonCancelled {
		t.Fatalf("cancel must not surface an error: %+v", s)
	}

	c.Cancel()
	if c.Phase() != PhaseCancelled {
		t.Fatal("second Cancel changed the phase")
	}
}

func TestController_CancelAfterTerminationIsNoop(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"finished"}}
	c, _ := newCtl(t, poll.PreviewGenerationPolicy, job)

	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)
	c.Cancel()
	if c.Phase() != PhaseSucceeded {
		t.Fatalf("phase = %s", c.Phase())
	}
}

func TestController_RestartResetsCounters(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"queued", "failed"}}
	c, fc := newCtl(t, poll.PreviewGenerationPolicy, job)

	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	kit.StepN(t, fc, previewTimers, 1500*time.Millisecond)
	if s := waitDone(t, c); s.Phase != PhaseFailed || s.Err == nil {
		t.Fatalf("first run = %+v", s)
	}

	job.statuses = []string{"queued"}
	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	// the first fetch runs right away; wait for the poller to park before inspecting
	if err := fc.BlockUntilContext(context.Background(), previewTimers); err != nil {
		t.Fatal(err)
	}
	kit.Eventually(t, func() bool { return c.Snapshot().Attempts == 1 }, "first tick of the new run")
	s := c.Snapshot()
	if s.Phase != PhaseRunning || s.Err != nil || len(s.History) != 1 {
		t.Fatalf("restart did not reset: %+v", s)
	}
	c.Cancel()
}

func TestController_BusyWhileRunning(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"queued"}}
	c, _ := newCtl(t, poll.PreviewGenerationPolicy, job)

	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	defer c.Cancel()
	if c.CanStart() {
		t.Fatal("CanStart must be false while running")
	}
	err := c.Start(context.Background(), jobParams{})
	if !errors.Is(err, ErrBusy) || perr.CodeOf(err) != perr.ErrorCodeConflict {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
	if job.submits.Load() != 1 {
		t.Fatalf("busy start must not submit, submits = %d", job.submits.Load())
	}
}

func TestController_SubmissionFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClock()
	want := perr.Validationf("url is required")
	submit := func(context.Context, jobParams) (poll.FetchFunc[string], error) { return nil, want }
	c := New("test", poll.PreviewGenerationPolicy, submit, WithClock(fc), WithLogger(logger.Discard()))

	err := c.Start(context.Background(), jobParams{})
	var se *SubmissionError
	if !errors.As(err, &se) || !errors.Is(err, want) {
		t.Fatalf("err = %v, want SubmissionError wrapping %v", err, want)
	}
	if perr.CodeOf(err) != perr.ErrorCodeValidation {
		t.Fatalf("code = %s", perr.CodeOf(err))
	}
	s := c.Snapshot()
	if s.Phase != PhaseIdle || s.ID != "" {
		t.Fatalf("state changed after failed submission: %+v", s)
	}
	if !c.CanStart() {
		t.Fatal("controller must accept a new start")
	}
}

func TestController_BusyWhileSubmitting(t *testing.T) {
	t.Parallel()
	entered := make(chan struct{})
	release := make(chan struct{})
	var fetches atomic.Int32
	submit := func(context.Context, jobParams) (poll.FetchFunc[string], error) {
		close(entered)
		<-release
		return func(context.Context) (poll.Check[string], error) {
			fetches.Add(1)
			return poll.Check[string]{}, nil
		}, nil
	}
	c := New("test", poll.PreviewGenerationPolicy, submit, WithClock(clockwork.NewFakeClock()), WithLogger(logger.Discard()))

	errc := make(chan error, 1)
	go func() { errc <- c.Start(context.Background(), jobParams{}) }()
	kit.WaitClosed(t, entered, "submission")

	if err := c.Start(context.Background(), jobParams{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}

	// cancel during submission: the run never polls
	c.Cancel()
	close(release)
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if c.Phase() != PhaseCancelled {
		t.Fatalf("phase = %s", c.Phase())
	}
	if fetches.Load() != 0 {
		t.Fatalf("fetches = %d after cancel during submission", fetches.Load())
	}
}

func TestController_StaleFetchResultDropped(t *testing.T) {
	t.Parallel()
	entered := make(chan struct{})
	release := make(chan struct{})
	submit := func(context.Context, jobParams) (poll.FetchFunc[string], error) {
		return func(context.Context) (poll.Check[string], error) {
			close(entered)
			<-release
			return poll.Check[string]{Outcome: poll.Succeeded, Value: "late"}, nil
		}, nil
	}
	c := New("test", poll.PreviewGenerationPolicy, submit, WithClock(clockwork.NewFakeClock()), WithLogger(logger.Discard()))

	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	kit.WaitClosed(t, entered, "fetch")
	c.Cancel()
	close(release)
	s := waitDone(t, c)
	if s.Phase != PhaseCancelled || s.Value != "" || len(s.History) != 0 {
		t.Fatalf("late result leaked into state: %+v", s)
	}
}

func TestController_WaitHonoursContext(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"queued"}}
	c, _ := newCtl(t, poll.PreviewGenerationPolicy, job)
	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	defer c.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestController_StartContextDoesNotCancelRun(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"queued"}}
	c, fc := newCtl(t, poll.PreviewGenerationPolicy, job)

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx, jobParams{}); err != nil {
		t.Fatal(err)
	}
	cancel()
	kit.StepN(t, fc, previewTimers, 1500*time.Millisecond)
	kit.Eventually(t, func() bool { return c.Snapshot().Attempts == 2 }, "second tick after request ctx ended")
	if c.Phase() != PhaseRunning {
		t.Fatalf("phase = %s", c.Phase())
	}
	c.Cancel()
}

func TestController_UnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	job := &fakeJob{statuses: []string{"finished"}}
	c, _ := newCtl(t, poll.PreviewGenerationPolicy, job)

	var n atomic.Int32
	unsub := c.Subscribe(func(Snapshot[string]) { n.Add(1) })
	unsub()
	unsub()
	if err := c.Start(context.Background(), jobParams{}); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)
	if n.Load() != 0 {
		t.Fatalf("deliveries after unsubscribe = %d", n.Load())
	}
}

func TestReason_String(t *testing.T) {
	t.Parallel()
	cases := []struct {
		r    Reason
		want string
	}{
		{Reason{Code: ReasonStarting}, "starting"},
		{Reason{Code: ReasonWaiting, Attempt: 6, Budget: 24, Detail: "record not found yet"}, "record not found yet, attempt 6/24"},
		{Reason{Code: ReasonWaiting, Attempt: 2}, "waiting, attempt 2"},
		{Reason{Code: ReasonTransientError, Attempt: 3, Budget: 80, Detail: "timeout"}, "check failed (timeout), retrying, attempt 3/80"},
		{Reason{Code: ReasonSucceeded}, "done"},
		{Reason{Code: ReasonFailed, Detail: "bad url"}, "failed: bad url"},
		{Reason{Code: ReasonTimedOut, Attempt: 24}, "gave up after 24 attempts"},
		{Reason{Code: ReasonCancelled}, "cancelled"},
	}
	for _, tc := range cases {
		if got := tc.r.String(); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.r.Code, got, tc.want)
		}
	}
}

func TestPhase_Terminal(t *testing.T) {
	t.Parallel()
	for p, want := range map[Phase]bool{
		PhaseIdle: false, PhaseRunning: false,
		PhaseSucceeded: true, PhaseFailed: true, PhaseCancelled: true, PhaseTimedOut: true,
	} {
		if p.Terminal() != want {
			t.Fatalf("%s.Terminal() = %v", p, !want)
		}
	}
}
