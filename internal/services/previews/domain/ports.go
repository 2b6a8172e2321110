package domain

import (
	"context"

	"metaview/internal/adapters/metaview"
)

// API is the slice of the MetaView client the preview wizard calls
type API interface {
	StartPreviewJob(ctx context.Context, in metaview.PreviewJobInput) (metaview.JobHandle, error)
	JobStatus(ctx context.Context, jobID string) (metaview.JobStatus, error)
	ListPreviews(ctx context.Context) ([]metaview.Preview, error)
}

// WizardPort drives one preview wizard
type WizardPort interface {
	Start(ctx context.Context, in GenerateInput) error
	Retry(ctx context.Context) error
	Dismiss()
	Cancel()
	Close()
	View() View
	Changes() (<-chan struct{}, func())
	Wait(ctx context.Context) (View, error)
}

// ServicePort hosts wizard sessions for the console
type ServicePort interface {
	Create(ctx context.Context, in GenerateInput) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Retry(ctx context.Context, id string) (Session, error)
	Dismiss(ctx context.Context, id string) (Session, error)
	Cancel(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	Wizard(id string) (WizardPort, error)
	Sessions() int
	CloseAll()
}
