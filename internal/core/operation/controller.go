// Package operation turns a one-shot job submission plus a status poll into an observable,
// cancellable, restartable operation with a single phase variable
package operation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"metaview/internal/core/poll"
	perr "metaview/internal/platform/errors"
	"metaview/internal/platform/logger"
	ptime "metaview/internal/platform/time"

	"github.com/google/uuid"
)

// ErrBusy is returned by Start while a run or a submission is in progress
var ErrBusy = perr.New(perr.ErrorCodeConflict, "operation already running")

// SubmissionError means the initial start request failed; the controller never entered running
type SubmissionError struct {
	Operation string
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s: submit: %v", e.Operation, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Submitter issues exactly one request that starts server-side work and returns the status
// fetch bound to the resulting job or resource. It is never retried
type Submitter[P, T any] func(ctx context.Context, params P) (poll.FetchFunc[T], error)

// Snapshot is a consistent copy of the controller state
type Snapshot[T any] struct {
	ID            string
	Operation     string
	Policy        poll.Policy
	Phase         Phase
	Attempts      int
	AttemptBudget int
	StartedAt     time.Time
	LastCheckedAt time.Time
	Reason        Reason
	Err           error
	Value         T
	History       []poll.Tick
}

// Option configures a Controller
type Option func(*options)

type options struct {
	clock ptime.Clock
	log   *logger.Logger
}

// WithClock injects the time source shared by the controller and its poller
func WithClock(c ptime.Clock) Option { return func(o *options) { o.clock = ptime.OrReal(c) } }

// WithLogger overrides the component logger
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Controller owns one poller and its phase. Safe for concurrent use
type Controller[P, T any] struct {
	name   string
	policy poll.Policy
	submit Submitter[P, T]
	clock  ptime.Clock
	log    *logger.Logger

	mu         sync.Mutex
	gen        uint64
	submitting bool
	abort      bool
	state      Snapshot[T]
	cancel     context.CancelFunc
	done       chan struct{}

	emitMu  sync.Mutex
	subs    map[int]func(Snapshot[T])
	nextSub int
}

// New builds an idle controller
func New[P, T any](name string, policy poll.Policy, submit Submitter[P, T], opts ...Option) *Controller[P, T] {
	o := options{clock: ptime.Real()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = logger.Named("operation")
	}
	if policy.Name == "" {
		policy.Name = name
	}
	closed := make(chan struct{})
	close(closed)
	return &Controller[P, T]{
		name:   name,
		policy: policy,
		submit: submit,
		clock:  o.clock,
		log:    o.log,
		state: Snapshot[T]{
			Operation:     name,
			Policy:        policy,
			Phase:         PhaseIdle,
			AttemptBudget: policy.AttemptBudget(),
		},
		done: closed,
		subs: map[int]func(Snapshot[T]){},
	}
}

// Name returns the operation name
func (c *Controller[P, T]) Name() string { return c.name }

// Policy returns the polling policy
func (c *Controller[P, T]) Policy() poll.Policy { return c.policy }

// CanStart reports whether Start would be accepted right now
func (c *Controller[P, T]) CanStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.submitting && c.state.Phase != PhaseRunning
}

// Start submits the job and begins polling on a background goroutine.
// The run is detached from ctx cancellation; ctx only bounds the submission. Use Cancel to stop
func (c *Controller[P, T]) Start(ctx context.Context, params P) error {
	c.mu.Lock()
	if c.submitting || c.state.Phase == PhaseRunning {
		c.mu.Unlock()
		return ErrBusy
	}
	c.submitting, c.abort = true, false
	c.mu.Unlock()

	fetch, err := c.submit(ctx, params)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("operation", c.name).Msg("submission failed")
		return &SubmissionError{Operation: c.name, Err: err}
	}

	c.gen++
	gen := c.gen
	id := uuid.NewString()
	budget := c.policy.AttemptBudget()
	c.state = Snapshot[T]{
		ID:            id,
		Operation:     c.name,
		Policy:        c.policy,
		Phase:         PhaseRunning,
		AttemptBudget: budget,
		StartedAt:     c.clock.Now(),
		Reason:        Reason{Code: ReasonStarting, Budget: budget},
	}
	if c.abort {
		// Cancel arrived while the submission was in flight
		c.state.Phase = PhaseCancelled
		c.state.Reason = Reason{Code: ReasonCancelled, Budget: budget}
		c.mu.Unlock()
		c.runLogger(id).Info().Msg("cancelled before polling")
		c.emit()
		return nil
	}

	runCtx, cancel := context.WithCancel(logger.WithOperation(context.WithoutCancel(ctx), id))
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	log := c.runLogger(id)
	log.Info().Int("budget", budget).Msg("operation started")
	c.emit()
	go c.run(runCtx, log, gen, fetch, done)
	return nil
}

func (c *Controller[P, T]) runLogger(id string) *logger.Logger {
	l := c.log.With().Str("operation", c.name).Str("op_id", id).Logger()
	return &l
}

func (c *Controller[P, T]) run(ctx context.Context, log *logger.Logger, gen uint64, fetch poll.FetchFunc[T], done chan struct{}) {
	defer close(done)
	p := poll.New(c.policy, fetch,
		poll.WithClock(c.clock),
		poll.WithObserver(func(t poll.Tick) { c.onTick(log, gen, t) }),
	)
	v, err := p.Run(ctx)
	c.finish(log, gen, v, err)
}

func (c *Controller[P, T]) onTick(log *logger.Logger, gen uint64, t poll.Tick) {
	c.mu.Lock()
	if gen != c.gen || c.state.Phase != PhaseRunning {
		c.mu.Unlock()
		return
	}
	c.state.Attempts = t.Attempt
	c.state.LastCheckedAt = t.CheckedAt
	c.state.History = append(c.state.History, t)
	switch t.Outcome {
	case poll.TickPending:
		c.state.Reason = Reason{Code: ReasonWaiting, Attempt: t.Attempt, Budget: c.state.AttemptBudget, Detail: t.Message}
	case poll.TickTransient:
		c.state.Reason = Reason{Code: ReasonTransientError, Attempt: t.Attempt, Budget: c.state.AttemptBudget, Detail: t.Message}
	}
	c.mu.Unlock()

	ev := log.Debug()
	if t.Outcome == poll.TickTransient {
		ev = log.Warn().Err(t.Err)
	}
	ev.Int("attempt", t.Attempt).Str("outcome", string(t.Outcome)).Msg("poll tick")
	c.emit()
}

func (c *Controller[P, T]) finish(log *logger.Logger, gen uint64, v T, err error) {
	c.mu.Lock()
	if gen != c.gen || c.state.Phase != PhaseRunning {
		c.mu.Unlock()
		return
	}
	s := &c.state
	var te *poll.TimeoutError
	var fe *poll.FailureError
	switch {
	case err == nil:
		s.Phase, s.Value = PhaseSucceeded, v
		s.Reason = Reason{Code: ReasonSucceeded, Attempt: s.Attempts, Budget: s.AttemptBudget}
	case errors.As(err, &te):
		s.Phase, s.Err = PhaseTimedOut, err
		detail := ""
		if n := len(s.History); n > 0 {
			detail = s.History[n-1].Message
		}
		s.Reason = Reason{Code: ReasonTimedOut, Attempt: te.Attempts, Budget: s.AttemptBudget, Detail: detail}
	case errors.As(err, &fe):
		s.Phase, s.Err = PhaseFailed, err
		s.Reason = Reason{Code: ReasonFailed, Attempt: s.Attempts, Budget: s.AttemptBudget, Detail: fe.Message}
	case errors.Is(err, context.Canceled):
		s.Phase = PhaseCancelled
		s.Reason = Reason{Code: ReasonCancelled, Attempt: s.Attempts, Budget: s.AttemptBudget}
	default:
		s.Phase, s.Err = PhaseFailed, err
		s.Reason = Reason{Code: ReasonFailed, Attempt: s.Attempts, Budget: s.AttemptBudget, Detail: err.Error()}
	}
	phase, attempts := s.Phase, s.Attempts
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	ev := log.Info()
	if phase.Failed() {
		ev = log.Warn().Err(err)
	}
	ev.Str("phase", string(phase)).Int("attempt", attempts).Msg("operation finished")
	c.emit()
}

// Cancel stops the current run. It is synchronous from the caller's view: once it returns no
// further tick is evaluated and an in-flight fetch result is discarded. Safe to call repeatedly
// and after termination
func (c *Controller[P, T]) Cancel() {
	c.mu.Lock()
	if c.submitting {
		c.abort = true
	}
	if c.state.Phase != PhaseRunning {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.state.Phase = PhaseCancelled
	c.state.Reason = Reason{Code: ReasonCancelled, Attempt: c.state.Attempts, Budget: c.state.AttemptBudget}
	cancel, id, attempts := c.cancel, c.state.ID, c.state.Attempts
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.runLogger(id).Info().Int("attempt", attempts).Msg("operation cancelled")
	c.emit()
}

// Snapshot returns a copy of the current state
func (c *Controller[P, T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.History = append([]poll.Tick(nil), c.state.History...)
	return s
}

// Phase is a shortcut for Snapshot().Phase
func (c *Controller[P, T]) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Phase
}

// Done is closed when the polling goroutine of the current run has exited
func (c *Controller[P, T]) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Wait blocks until the current run exits or ctx ends, then returns the latest snapshot
func (c *Controller[P, T]) Wait(ctx context.Context) (Snapshot[T], error) {
	select {
	case <-c.Done():
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

// Subscribe registers fn to receive a snapshot after every state change. Deliveries are
// serialized and in order; fn must not call Start, Cancel or unsubscribe on the same controller
func (c *Controller[P, T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	c.emitMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.emitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.emitMu.Lock()
			delete(c.subs, id)
			c.emitMu.Unlock()
		})
	}
}

func (c *Controller[P, T]) emit() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if len(c.subs) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range c.subs {
		fn(snap)
	}
}
