package service

import (
	"context"
	"errors"

	"metaview/internal/core/operation"
	"metaview/internal/modkit/sessionkit"
	"metaview/internal/platform/logger"
	"metaview/internal/services/previews/domain"
)

// Service hosts preview wizards as console sessions
type Service struct {
	api      domain.API
	cfg      Config
	sessions *sessionkit.Store[*Wizard]
}

var _ domain.ServicePort = (*Service)(nil)

// New constructs the service; maxSessions <= 0 means unbounded
func New(api domain.API, cfg Config, maxSessions int) *Service {
	if api == nil {
		panic("previews.Service requires a non nil API")
	}
	return &Service{api: api, cfg: cfg, sessions: sessionkit.New[*Wizard]("preview session", maxSessions)}
}

// Create opens a wizard and starts it. Invalid input creates nothing; a failed submission keeps
// the session so its inline error can be shown and retried
func (s *Service) Create(ctx context.Context, in domain.GenerateInput) (domain.Session, error) {
	w := NewWizard(s.api, s.cfg)
	err := w.Start(ctx, in)
	var se *operation.SubmissionError
	if err != nil && !errors.As(err, &se) {
		w.Close()
		return domain.Session{}, err
	}
	id, aerr := s.sessions.Add(w)
	if aerr != nil {
		w.Close()
		return domain.Session{}, aerr
	}
	logger.With(ctx, s.log()).Info().Str("session", id).Bool("submitted", err == nil).Msg("preview session opened")
	return domain.Session{ID: id, View: w.View()}, nil
}

// Get returns the current view of a session
func (s *Service) Get(_ context.Context, id string) (domain.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{ID: id, View: w.View()}, nil
}

// Retry restarts the session with its last input. A failed submission is reported in the view
func (s *Service) Retry(ctx context.Context, id string) (domain.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return domain.Session{}, err
	}
	if err := w.Retry(ctx); err != nil {
		var se *operation.SubmissionError
		if !errors.As(err, &se) {
			return domain.Session{}, err
		}
	}
	return domain.Session{ID: id, View: w.View()}, nil
}

// Dismiss clears the inline error
func (s *Service) Dismiss(_ context.Context, id string) (domain.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return domain.Session{}, err
	}
	w.Dismiss()
	return domain.Session{ID: id, View: w.View()}, nil
}

// Cancel stops the running job poll but keeps the session
func (s *Service) Cancel(_ context.Context, id string) (domain.Session, error) {
	w, err := s.sessions.Get(id)
	if err != nil {
		return domain.Session{}, err
	}
	w.Cancel()
	return domain.Session{ID: id, View: w.View()}, nil
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

func (s *Service) log() *logger.Logger {
	if s.cfg.Log != nil {
		return s.cfg.Log
	}
	return logger.Named("previews")
}
