// Package poll drives a status fetch on a fixed cadence until the remote work settles,
// the policy budget runs out or the caller cancels
package poll

import (
	"context"
	"errors"
	"time"

	ptime "metaview/internal/platform/time"
)

// Outcome is what a single status fetch says about the remote work
type Outcome uint8

const (
	// Pending means not terminal yet; keep polling
	Pending Outcome = iota
	// Succeeded is terminal success; Check.Value carries the payload
	Succeeded
	// Failed is terminal failure reported by the server; Check.Message carries the reason
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Check is the evaluated result of one fetch
type Check[T any] struct {
	Outcome Outcome
	Value   T
	Message string
}

// FetchFunc fetches the current status once
// Errors are transient unless they wrap *FailureError
type FetchFunc[T any] func(ctx context.Context) (Check[T], error)

// TickOutcome labels an evaluated tick for observers
type TickOutcome string

const (
	TickPending   TickOutcome = "pending"
	TickSucceeded TickOutcome = "succeeded"
	TickFailed    TickOutcome = "failed"
	TickTransient TickOutcome = "transient_error"
)

// Tick is one fetch-and-evaluate cycle
type Tick struct {
	Attempt   int
	CheckedAt time.Time
	Elapsed   time.Duration
	Outcome   TickOutcome
	Message   string
	Err       error
}

// Option configures a Poller
type Option func(*settings)

type settings struct {
	clock    ptime.Clock
	observer func(Tick)
}

// WithClock injects the time source; nil keeps the wall clock
func WithClock(c ptime.Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithObserver receives every evaluated tick, on the polling goroutine
func WithObserver(fn func(Tick)) Option {
	return func(s *settings) { s.observer = fn }
}

// Poller runs one FetchFunc under one Policy. It is single use per Run call but holds no
// state between runs, so Run may be called again
type Poller[T any] struct {
	policy Policy
	fetch  FetchFunc[T]
	cfg    settings
}

// New builds a Poller
func New[T any](policy Policy, fetch FetchFunc[T], opts ...Option) *Poller[T] {
	cfg := settings{clock: ptime.Real()}
	for _, o := range opts {
		o(&cfg)
	}
	return &Poller[T]{policy: policy, fetch: fetch, cfg: cfg}
}

// Policy returns the policy the poller was built with
func (p *Poller[T]) Policy() Policy { return p.policy }

// Run polls until a terminal outcome. The next fetch is scheduled only after the previous one
// returned, so there is never more than one pending sleep or request.
// A policy timeout is a hard ceiling: a fetch still running when it passes is cut off through
// its context and Run reports *TimeoutError.
// On cancellation Run returns ctx.Err() and drops whatever the in-flight fetch produced
func (p *Poller[T]) Run(ctx context.Context) (T, error) {
	var zero T
	if err := p.policy.Validate(); err != nil {
		return zero, err
	}
	if p.fetch == nil {
		return zero, errors.New("poll: nil fetch")
	}

	clock := p.cfg.clock
	start := clock.Now()
	delay := p.policy.InitialDelay
	attempts := 0
	var lastErr error

	runCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)
	if p.policy.Timeout > 0 {
		deadline := clock.AfterFunc(p.policy.Timeout, func() { stop(ErrTimedOut) })
		defer deadline.Stop()
	}
	timedOut := func() error {
		return &TimeoutError{Attempts: attempts, Elapsed: clock.Now().Sub(start), LastErr: lastErr}
	}

	for {
		if p.policy.Timeout > 0 {
			if left := p.policy.Timeout - clock.Now().Sub(start); delay > left {
				delay = left
			}
		}
		if !ptime.Sleep(clock, delay, runCtx.Done()) {
			if err := ctx.Err(); err != nil {
				return zero, err
			}
			return zero, timedOut()
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if p.policy.Timeout > 0 && clock.Now().Sub(start) >= p.policy.Timeout {
			return zero, timedOut()
		}

		chk, err := p.fetch(runCtx)
		if cerr := ctx.Err(); cerr != nil {
			return zero, cerr
		}

		now := clock.Now()
		// cut off by the deadline; the fetch never produced a status
		if err != nil && errors.Is(context.Cause(runCtx), ErrTimedOut) && !errors.As(err, new(*FailureError)) {
			return zero, timedOut()
		}

		attempts++
		tick := Tick{Attempt: attempts, CheckedAt: now, Elapsed: now.Sub(start)}

		if err != nil {
			var fe *FailureError
			if errors.As(err, &fe) {
				tick.Outcome, tick.Message, tick.Err = TickFailed, fe.Message, err
				p.observe(tick)
				return zero, fe
			}
			tick.Outcome, tick.Message, tick.Err = TickTransient, err.Error(), err
			lastErr = err
		} else {
			switch chk.Outcome {
			case Succeeded:
				tick.Outcome, tick.Message = TickSucceeded, chk.Message
				p.observe(tick)
				return chk.Value, nil
			case Failed:
				fe := &FailureError{Message: chk.Message}
				tick.Outcome, tick.Message, tick.Err = TickFailed, chk.Message, fe
				p.observe(tick)
				return zero, fe
			default:
				tick.Outcome, tick.Message = TickPending, chk.Message
				lastErr = nil
			}
		}
		p.observe(tick)

		if p.policy.exhausted(attempts, tick.Elapsed) {
			return zero, &TimeoutError{Attempts: attempts, Elapsed: tick.Elapsed, LastErr: lastErr}
		}
		delay = p.policy.Interval
	}
}

func (p *Poller[T]) observe(t Tick) {
	if p.cfg.observer != nil {
		p.cfg.observer(t)
	}
}
