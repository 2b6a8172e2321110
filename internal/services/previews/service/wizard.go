// Package service runs preview-generation wizards
package service

import (
	"context"
	"sync"

	"metaview/internal/adapters/metaview"
	"metaview/internal/core/normalize"
	"metaview/internal/core/operation"
	"metaview/internal/core/poll"
	perr "metaview/internal/platform/errors"
	"metaview/internal/platform/logger"
	"metaview/internal/platform/net/http/bind"
	"metaview/internal/platform/notify"
	ptime "metaview/internal/platform/time"
	"metaview/internal/services/previews/domain"
)

// OperationName labels the controller in logs and errors
const OperationName = "preview_generation"

// ErrClosed is returned by actions on a closed wizard
var ErrClosed = perr.New(perr.ErrorCodeConflict, "preview wizard closed")

// Config tunes a wizard
type Config struct {
	Policy poll.Policy
	Clock  ptime.Clock
	Log    *logger.Logger
}

// Wizard binds one operation controller to the enter_url -> generating -> review steps
type Wizard struct {
	api   domain.API
	ctl   *operation.Controller[domain.GenerateInput, metaview.JobStatus]
	log   *logger.Logger
	ctx   context.Context
	stop  context.CancelFunc
	hub   notify.Hub
	unsub func()

	mu        sync.Mutex
	step      domain.Step
	input     domain.GenerateInput
	jobID     string
	submitErr *operation.InlineError
	dismissed string
	previews  []metaview.Preview
	listErr   string
	closed    bool
}

var _ domain.WizardPort = (*Wizard)(nil)

// NewWizard builds an idle wizard on the enter_url step
func NewWizard(api domain.API, cfg Config) *Wizard {
	if api == nil {
		panic("previews.Wizard requires a non nil API")
	}
	if cfg.Policy.Interval == 0 {
		cfg.Policy = poll.PreviewGenerationPolicy
	}
	log := cfg.Log
	if log == nil {
		log = logger.Named("previews")
	}
	ctx, stop := context.WithCancel(context.Background())
	w := &Wizard{api: api, log: log, ctx: ctx, stop: stop, step: domain.StepEnterURL}
	w.ctl = operation.New(OperationName, cfg.Policy, w.submit,
		operation.WithClock(cfg.Clock),
		operation.WithLogger(log),
	)
	w.unsub = w.ctl.Subscribe(w.onChange)
	return w
}

// Start validates and normalises the input, then submits one preview job and polls it.
// Refused with operation.ErrBusy while a job is running
func (w *Wizard) Start(ctx context.Context, in domain.GenerateInput) error {
	if w.isClosed() {
		return ErrClosed
	}
	if err := bind.Validate(in); err != nil {
		return err
	}
	u, err := normalize.URL(in.URL)
	if err != nil {
		return err
	}
	in.URL = u
	if in.Domain != "" {
		d, err := normalize.Domain(in.Domain)
		if err != nil {
			return err
		}
		in.Domain = d
	}
	if !w.ctl.CanStart() {
		return operation.ErrBusy
	}

	w.mu.Lock()
	w.input = in
	w.submitErr = nil
	w.mu.Unlock()

	if err := w.ctl.Start(ctx, in); err != nil {
		if ie := operation.SubmissionInlineError(err); ie != nil {
			w.mu.Lock()
			w.submitErr = ie
			w.mu.Unlock()
			w.hub.Publish()
		}
		return err
	}
	return nil
}

func (w *Wizard) submit(ctx context.Context, in domain.GenerateInput) (poll.FetchFunc[metaview.JobStatus], error) {
	h, err := w.api.StartPreviewJob(ctx, metaview.PreviewJobInput{URL: in.URL, Domain: in.Domain})
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.jobID = h.ID
	w.mu.Unlock()
	logger.With(ctx, w.log).Info().Str("job_id", h.ID).Str("url", in.URL).Msg("preview job submitted")

	id := h.ID
	return func(ctx context.Context) (poll.Check[metaview.JobStatus], error) {
		st, err := w.api.JobStatus(ctx, id)
		if err != nil {
			return poll.Check[metaview.JobStatus]{}, fetchError(err)
		}
		return jobCheck(st), nil
	}, nil
}

// onChange runs on the controller's delivery path, so the list refresh finishes before Wait returns
func (w *Wizard) onChange(s operation.Snapshot[metaview.JobStatus]) {
	w.mu.Lock()
	switch s.Phase {
	case operation.PhaseRunning:
		w.step = domain.StepGenerating
	case operation.PhaseSucceeded:
		w.step = domain.StepReview
	case operation.PhaseFailed, operation.PhaseTimedOut, operation.PhaseCancelled:
		w.step = domain.StepEnterURL
	}
	w.mu.Unlock()

	if s.Phase == operation.PhaseSucceeded {
		w.refresh()
	}
	w.hub.Publish()
}

func (w *Wizard) refresh() {
	list, err := w.api.ListPreviews(w.ctx)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if w.ctx.Err() == nil {
			w.log.Warn().Err(err).Msg("previews refresh failed")
			w.listErr = err.Error()
		}
		return
	}
	w.previews, w.listErr = list, ""
}

// Retry starts a fresh job with the last submitted input
func (w *Wizard) Retry(ctx context.Context) error {
	w.mu.Lock()
	in := w.input
	w.mu.Unlock()
	if in.URL == "" {
		return perr.WithField(perr.Validationf("nothing to retry; enter a url first"), "url")
	}
	return w.Start(ctx, in)
}

// Dismiss hides the current inline error until the next run
func (w *Wizard) Dismiss() {
	id := w.ctl.Snapshot().ID
	w.mu.Lock()
	w.submitErr = nil
	w.dismissed = id
	w.mu.Unlock()
	w.hub.Publish()
}

// Cancel stops a running job poll; the wizard stays usable
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
		Input:     w.input,
		JobID:     w.jobID,
		Progress:  operation.ProgressOf(s, canStart),
		Previews:  append([]metaview.Preview(nil), w.previews...),
		ListError: w.listErr,
	}
	switch {
	case w.submitErr != nil:
		e := *w.submitErr
		v.Error = &e
	case s.ID != "" && s.ID != w.dismissed:
		v.Error = operation.InlineErrorOf(s)
	}
	if s.Phase == operation.PhaseSucceeded && s.Value.Result != nil {
		p := *s.Value.Result
		v.Preview = &p
	}
	return v
}

// Changes signals after every state change; the channel closes with the wizard
func (w *Wizard) Changes() (<-chan struct{}, func()) { return w.hub.Subscribe() }

// Wait blocks until the current run has ended, then returns the view
func (w *Wizard) Wait(ctx context.Context) (domain.View, error) {
	_, err := w.ctl.Wait(ctx)
	return w.View(), err
}
