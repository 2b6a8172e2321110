package domain

import (
	"context"

	"metaview/internal/adapters/metaview"
)

// API is the slice of the MetaView client the verification wizard calls
type API interface {
	StartDomainVerification(ctx context.Context, domainID string, method metaview.VerificationMethod) (metaview.VerificationChallenge, error)
	CheckDomainVerification(ctx context.Context, domainID string) (metaview.Domain, error)
	DebugDomainVerification(ctx context.Context, domainID string) (metaview.VerificationDebug, error)
	ListDomains(ctx context.Context) ([]metaview.Domain, error)
}

// WizardPort drives one verification wizard
type WizardPort interface {
	Begin(ctx context.Context, in BeginInput) error
	Verify(ctx context.Context) error
	Retry(ctx context.Context) error
	Attempts() []VerificationAttempt
	Debug(ctx context.Context) (metaview.VerificationDebug, error)
	Dismiss()
	Cancel()
	Close()
	View() View
	Changes() (<-chan struct{}, func())
	Wait(ctx context.Context) (View, error)
}

// ServicePort hosts wizard sessions for the console
type ServicePort interface {
	Create(ctx context.Context, in BeginInput) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Check(ctx context.Context, id string) (Session, error)
	Attempts(ctx context.Context, id string) ([]VerificationAttempt, error)
	Debug(ctx context.Context, id string) (metaview.VerificationDebug, error)
	Retry(ctx context.Context, id string) (Session, error)
	Dismiss(ctx context.Context, id string) (Session, error)
	Cancel(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	Wizard(id string) (WizardPort, error)
	Sessions() int
	CloseAll()
}
