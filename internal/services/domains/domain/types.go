// Package domain holds domain-verification wizard types independent of transport
package domain

import (
	"time"

	"metaview/internal/adapters/metaview"
	"metaview/internal/core/operation"
)

// Step is the visual position of the verification wizard
type Step string

const (
	// StepChooseMethod asks how ownership will be proven
	StepChooseMethod Step = "choose_method"

	// StepInstructions shows the token and where to publish it
	StepInstructions Step = "instructions"

	// StepChecking shows progress while the server looks for the token
	StepChecking Step = "checking"

	// StepVerified is the final step
	StepVerified Step = "verified"
)

// AttemptOutcome is what one verification check found
type AttemptOutcome string

const (
	OutcomePending  AttemptOutcome = "pending"
	OutcomeVerified AttemptOutcome = "verified"
	OutcomeNotFound AttemptOutcome = "not_found"
	OutcomeError    AttemptOutcome = "error"
)

// Status lines shown while checking
const (
	MsgAwaitingDNS = "awaiting DNS propagation"
	MsgNotFound    = "record not found yet"
	MsgVerified    = "domain verified"
)

// BeginInput picks the domain and the proof method
type BeginInput struct {
	DomainID string `json:"domain_id" validate:"required,notblank,max=128"`
	Method   string `json:"method" validate:"required,oneof=dns html meta"`
}

// VerificationAttempt is one check of the current run, kept in memory only
type VerificationAttempt struct {
	DomainID      string                      `json:"domain_id"`
	Method        metaview.VerificationMethod `json:"method"`
	AttemptNumber int                         `json:"attempt_number"`
	CheckedAt     time.Time                   `json:"checked_at"`
	Outcome       AttemptOutcome              `json:"outcome"`
	Detail        string                      `json:"detail,omitempty"`
}

// View is the render model of one wizard
type View struct {
	Step      Step                            `json:"step"`
	DomainID  string                          `json:"domain_id,omitempty"`
	Method    metaview.VerificationMethod     `json:"method,omitempty"`
	Challenge *metaview.VerificationChallenge `json:"challenge,omitempty"`
	Progress  operation.Progress              `json:"progress"`
	Error     *operation.InlineError          `json:"error,omitempty"`
	Domain    *metaview.Domain                `json:"domain,omitempty"`
	Domains   []metaview.Domain               `json:"domains,omitempty"`
	Debug     *metaview.VerificationDebug     `json:"debug,omitempty"`
	ListError string                          `json:"list_error,omitempty"`
}

// Session is a wizard view addressed by its console session id
type Session struct {
	ID string `json:"id"`
	View
}
