// Package domain holds preview wizard types independent of transport
package domain

import (
	"metaview/internal/adapters/metaview"
	"metaview/internal/core/operation"
)

// Step is the visual position of the preview wizard
type Step string

const (
	// StepEnterURL shows the url form
	StepEnterURL Step = "enter_url"

	// StepGenerating shows progress while the job runs
	StepGenerating Step = "generating"

	// StepReview shows the generated preview
	StepReview Step = "review"
)

// Status lines shown while the job is pending
const (
	MsgQueued     = "job queued"
	MsgGenerating = "generating preview"
	MsgGenerated  = "preview ready"
	MsgJobFailed  = "preview generation failed"
)

// GenerateInput is what the user submits
type GenerateInput struct {
	URL    string `json:"url" validate:"required,notblank,max=2048"`
	Domain string `json:"domain,omitempty" validate:"omitempty,max=253"`
}

// View is the render model of one wizard
type View struct {
	Step      Step                   `json:"step"`
	Input     GenerateInput          `json:"input"`
	JobID     string                 `json:"job_id,omitempty"`
	Progress  operation.Progress     `json:"progress"`
	Error     *operation.InlineError `json:"error,omitempty"`
	Preview   *metaview.Preview      `json:"preview,omitempty"`
	Previews  []metaview.Preview     `json:"previews,omitempty"`
	ListError string                 `json:"list_error,omitempty"`
}

// Session is a wizard view addressed by its console session id
type Session struct {
	ID string `json:"id"`
	View
}
