// Package service runs domain-verification wizards
package service

import (
	"context"
	"sync"

	"metaview/internal/adapters/metaview"
	"metaview/internal/core/operation"
	"metaview/internal/core/poll"
	perr "metaview/internal/platform/errors"
	"metaview/internal/platform/logger"
	"metaview/internal/platform/net/http/bind"
	"metaview/internal/platform/notify"
	ptime "metaview/internal/platform/time"
	"metaview/internal/services/domains/domain"
)

// OperationName labels the controller in logs and errors
const OperationName = "domain_verification"

var (
	// ErrClosed is returned by actions on a closed wizard
	ErrClosed = perr.New(perr.ErrorCodeConflict, "verification wizard closed")

	// ErrNoChallenge is returned by Verify before Begin succeeded
	ErrNoChallenge = perr.New(perr.ErrorCodeConflict, "choose a verification method first")
)

// Config tunes a wizard
type Config struct {
	Policy poll.Policy
	Clock  ptime.Clock
	Log    *logger.Logger
}

type action uint8

const (
	actionNone action = iota
	actionBegin
	actionVerify
)

// Wizard walks choose_method -> instructions -> checking -> verified. Begin issues the challenge
// once; Verify polls the check endpoint under one operation controller
type Wizard struct {
	api   domain.API
	ctl   *operation.Controller[string, metaview.Domain]
	log   *logger.Logger
	ctx   context.Context
	stop  context.CancelFunc
	hub   notify.Hub
	unsub func()

	mu        sync.Mutex
	step      domain.Step
	domainID  string
	method    metaview.VerificationMethod
	challenge *metaview.VerificationChallenge
	last      domain.BeginInput
	lastCall  action
	beginErr  *operation.InlineError
	dismissed string
	runDomain string
	runMethod metaview.VerificationMethod
	domains   []metaview.Domain
	listErr   string
	debug     *metaview.VerificationDebug
	closed    bool
}

var _ domain.WizardPort = (*Wizard)(nil)

// NewWizard builds a wizard on the choose_method step
func NewWizard(api domain.API, cfg Config) *Wizard {
	if api == nil {
		panic("domains.Wizard requires a non nil API")
	}
	if cfg.Policy.Interval == 0 {
		cfg.Policy = poll.DomainVerificationPolicy
	}
	log := cfg.Log
	if log == nil {
		log = logger.Named("domains")
	}
	ctx, stop := context.WithCancel(context.Background())
	w := &Wizard{api: api, log: log, ctx: ctx, stop: stop, step: domain.StepChooseMethod}
	w.ctl = operation.New(OperationName, cfg.Policy, w.submit,
		operation.WithClock(cfg.Clock),
		operation.WithLogger(log),
	)
	w.unsub = w.ctl.Subscribe(w.onChange)
	return w
}

// Begin asks the server for a challenge. It is sent once and never polled
func (w *Wizard) Begin(ctx context.Context, in domain.BeginInput) error {
	if w.isClosed() {
		return ErrClosed
	}
	if err := bind.Validate(in); err != nil {
		return err
	}
	method, err := metaview.ParseMethod(in.Method)
	if err != nil {
		return perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "unknown verification method"), "method")
	}
	if !w.ctl.CanStart() {
		return operation.ErrBusy
	}

	w.mu.Lock()
	w.last, w.lastCall, w.beginErr = in, actionBegin, nil
	w.mu.Unlock()

	ch, err := w.api.StartDomainVerification(ctx, in.DomainID, method)
	if err != nil {
		logger.With(ctx, w.log).Warn().Err(err).Str("domain_id", in.DomainID).Msg("verification challenge failed")
		w.mu.Lock()
		w.beginErr = operation.SubmissionInlineError(&operation.SubmissionError{Operation: OperationName, Err: err})
		w.mu.Unlock()
		w.hub.Publish()
		return &operation.SubmissionError{Operation: OperationName, Err: err}
	}

	prev := w.ctl.Snapshot().ID
	w.mu.Lock()
	w.domainID, w.method, w.challenge = in.DomainID, method, &ch
	w.step, w.debug = domain.StepInstructions, nil
	// a new challenge supersedes the outcome of the previous run
	w.dismissed = prev
	w.mu.Unlock()
	logger.With(ctx, w.log).Info().Str("domain_id", in.DomainID).Str("method", string(method)).Msg("verification challenge issued")
	w.hub.Publish()
	return nil
}

// Verify starts polling the check endpoint. Refused with operation.ErrBusy while checking
func (w *Wizard) Verify(ctx context.Context) error {
	if w.isClosed() {
		return ErrClosed
	}
	w.mu.Lock()
	if w.challenge == nil {
		w.mu.Unlock()
		return ErrNoChallenge
	}
	w.lastCall = actionVerify
	w.runDomain, w.runMethod = w.domainID, w.method
	id := w.domainID
	w.mu.Unlock()

	return w.ctl.Start(ctx, id)
}

// submit has nothing to send: the challenge was issued by Begin, so it only binds the check
func (w *Wizard) submit(_ context.Context, domainID string) (poll.FetchFunc[metaview.Domain], error) {
	return func(ctx context.Context) (poll.Check[metaview.Domain], error) {
		d, err := w.api.CheckDomainVerification(ctx, domainID)
		if err != nil {
			return poll.Check[metaview.Domain]{}, fetchError(err)
		}
		return domainCheck(d), nil
	}, nil
}

func (w *Wizard) onChange(s operation.Snapshot[metaview.Domain]) {
	w.mu.Lock()
	switch s.Phase {
	case operation.PhaseRunning:
		w.step = domain.StepChecking
	case operation.PhaseSucceeded:
		w.step = domain.StepVerified
	case operation.PhaseFailed, operation.PhaseTimedOut, operation.PhaseCancelled:
		w.step = domain.StepInstructions
	}
	w.mu.Unlock()

	if s.Phase == operation.PhaseSucceeded {
		w.refresh()
	}
	w.hub.Publish()
}

func (w *Wizard) refresh() {
	list, err := w.api.ListDomains(w.ctx)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if w.ctx.Err() == nil {
			w.log.Warn().Err(err).Msg("domains refresh failed")
			w.listErr = err.Error()
		}
		return
	}
	w.domains, w.listErr = list, ""
}

// Retry repeats whatever failed last: the challenge request or the check run
func (w *Wizard) Retry(ctx context.Context) error {
	w.mu.Lock()
	last, call := w.last, w.lastCall
	w.mu.Unlock()
	switch call {
	case actionBegin:
		return w.Begin(ctx, last)
	case actionVerify:
		return w.Verify(ctx)
	}
	return perr.WithField(perr.Validationf("nothing to retry; choose a domain and method first"), "domain_id")
}

// Attempts lists the checks of the current or last run
func (w *Wizard) Attempts() []domain.VerificationAttempt {
	s := w.ctl.Snapshot()
	w.mu.Lock()
	id, method := w.runDomain, w.runMethod
	w.mu.Unlock()
	out := make([]domain.VerificationAttempt, 0, len(s.History))
	for _, t := range s.History {
		out = append(out, attemptOf(t, id, method))
	}
	return out
}

// Debug fetches the server's diagnostic view on demand; it never runs from the poll loop
func (w *Wizard) Debug(ctx context.Context) (metaview.VerificationDebug, error) {
	w.mu.Lock()
	id := w.domainID
	w.mu.Unlock()
	if id == "" {
		return metaview.VerificationDebug{}, ErrNoChallenge
	}
	d, err := w.api.DebugDomainVerification(ctx, id)
	if err != nil {
		return metaview.VerificationDebug{}, err
	}
	w.mu.Lock()
	w.debug = &d
	w.mu.Unlock()
	w.hub.Publish()
	return d, nil
}

// Dismiss hides the current inline error until the next run
func (w *Wizard) Dismiss() {
	id := w.ctl.Snapshot().ID
	w.mu.Lock()
	w.beginErr = nil
	w.dismissed = id
	w.mu.Unlock()
	w.hub.Publish()
}

// Cancel stops checking; the wizard returns to the instructions step
func (w *Wizard) Cancel() { w.ctl.Cancel() }

// Close cancels any run and releases watchers. Safe to call repeatedly
func (w *Wizard) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.stop()
	w.ctl.Cancel()
	w.unsub()
	w.hub.Close()
}

func (w *Wizard) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// View returns the render model
func (w *Wizard) View() domain.View {
	s := w.ctl.Snapshot()
	canStart := w.ctl.CanStart() && !w.isClosed()

	w.mu.Lock()
	defer w.mu.Unlock()
	v := domain.View{
		Step:      w.step,
		DomainID:  w.domainID,
		Method:    w.method,
		Progress:  operation.ProgressOf(s, canStart && w.challenge != nil),
		Domains:   append([]metaview.Domain(nil), w.domains...),
		ListError: w.listErr,
	}
	if w.challenge != nil {
		c := *w.challenge
		v.Challenge = &c
	}
	if w.debug != nil {
		d := *w.debug
		d.FoundRecords = append([]string(nil), w.debug.FoundRecords...)
		v.Debug = &d
	}
	switch {
	case w.beginErr != nil:
		e := *w.beginErr
		v.Error = &e
	case s.ID != "" && s.ID != w.dismissed:
		v.Error = operation.InlineErrorOf(s)
	}
	if s.Phase == operation.PhaseSucceeded {
		d := s.Value
		v.Domain = &d
	}
	return v
}

// Changes signals after every state change; the channel closes with the wizard
func (w *Wizard) Changes() (<-chan struct{}, func()) { return w.hub.Subscribe() }

// Wait blocks until the current check run has ended, then returns the view
func (w *Wizard) Wait(ctx context.Context) (domain.View, error) {
	_, err := w.ctl.Wait(ctx)
	return w.View(), err
}
