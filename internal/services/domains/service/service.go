package service

import (
	"context"
	"errors"

	"metaview/internal/adapters/metaview"
	"metaview/internal/core/operation"
	"metaview/internal/modkit/sessionkit"
	"metaview/internal/platform/logger"
	"metaview/internal/services/domains/domain"
)

// Service hosts verification wizards as console sessions
type Service struct {
	api      domain.API
	cfg      Config
	sessions *sessionkit.Store[*Wizard]
}

var _ domain.ServicePort = (*Service)(nil)

// New constructs the service; maxSessions <= 0 means unbounded
func New(api domain.API, cfg Config, maxSessions int) *Service {
	if api == nil {
		panic("domains.Service requires a non nil API")
	}
	return &Service{api: api, cfg: cfg, sessions: sessionkit.New[*Wizard]("verification session", maxSessions)}
}

// Create opens a wizard and requests the challenge. Invalid input creates nothing; a failed
// challenge request keeps the session so it can be retried
func (s *Service) Create(ctx context.Context, in domain.BeginInput) (domain.Session, error) {
	w := NewWizard(s.api, s.cfg)
	err := w.Begin(ctx, in)
	if err != nil && !isSubmission(err) {
		w.Close()
		return domain.Session{}, err
	}
	id, aerr := s.sessions.Add(w)
	if aerr != nil {
		w.Close()
		return domain.Session{}, aerr
	}
	logger.With(ctx, s.log()).Info().Str("session", id).Str("domain_id", in.DomainID).Msg("verification session opened")
	return domain.Session{ID: id, View: w.View()}, nil
}

// Get returns the current view of a session
func (s *Service) Get(_ context.Context, id string) (domain.Session, error) {
	return s.view(id, nil)
}

// Check starts polling for the published token
func (s *Service) Check(ctx context.Context, id string) (domain.Session, error) {
	return s.view(id, func(w *Wizard) error { return w.Verify(ctx) })
}

// Attempts lists the checks of the session's current or last run
func (s *Service) Attempts(_ context.Context, id string) ([]domain.VerificationAttempt, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return w.Attempts(), nil
}

// Debug asks the server what it expected and what it found
func (s *Service) Debug(ctx context.Context, id string) (metaview.VerificationDebug, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return metaview.VerificationDebug{}, err
	}
	return w.Debug(ctx)
}

// Retry repeats the last failed step. A failed challenge request is reported in the view
func (s *Service) Retry(ctx context.Context, id string) (domain.Session, error) {
	return s.view(id, func(w *Wizard) error {
		if err := w.Retry(ctx); err != nil && !isSubmission(err) {
			return err
		}
		return nil
	})
}

// Dismiss clears the inline error
func (s *Service) Dismiss(_ context.Context, id string) (domain.Session, error) {
	return s.view(id, func(w *Wizard) error { w.Dismiss(); return nil })
}

// Cancel stops checking but keeps the session
func (s *Service) Cancel(_ context.Context, id string) (domain.Session, error) {
	return s.view(id, func(w *Wizard) error { w.Cancel(); return nil })
}

// Delete closes and forgets the session
func (s *Service) Delete(_ context.Context, id string) error { return s.sessions.Delete(id) }

// Wizard exposes a session's wizard for streaming
func (s *Service) Wizard(id string) (domain.WizardPort, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Sessions reports the number of open sessions
func (s *Service) Sessions() int { return s.sessions.Len() }

// CloseAll closes every session, on shutdown
func (s *Service) CloseAll() { s.sessions.CloseAll() }

func (s *Service) view(id string, act func(*Wizard) error) (domain.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return domain.Session{}, err
	}
	if act != nil {
		if err := act(w); err != nil {
			return domain.Session{}, err
		}
	}
	return domain.Session{ID: id, View: w.View()}, nil
}

func (s *Service) log() *logger.Logger {
	if s.cfg.Log != nil {
		return s.cfg.Log
	}
	return logger.Named("domains")
}

func isSubmission(err error) bool {
	var se *operation.SubmissionError
	return errors.As(err, &se)
}
