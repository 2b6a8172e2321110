package metaview

import (
	"fmt"
	"time"
)

// JobHandle is the opaque reference returned when async work is enqueued
type JobHandle struct {
	ID string `json:"job_id"`
}

// JobStatusValue is the closed set of job states the server reports
type JobStatusValue string

const (
	JobQueued   JobStatusValue = "queued"
	JobStarted  JobStatusValue = "started"
	JobFinished JobStatusValue = "finished"
	JobFailed   JobStatusValue = "failed"
)

// Terminal reports whether no further progress happens without a new job
func (v JobStatusValue) Terminal() bool { return v == JobFinished || v == JobFailed }

// UnmarshalText rejects statuses outside the known set
func (v *JobStatusValue) UnmarshalText(b []byte) error {
	switch s := JobStatusValue(b); s {
	case JobQueued, JobStarted, JobFinished, JobFailed:
		*v = s
		return nil
	default:
		return fmt.Errorf("unknown job status %q", string(b))
	}
}

// JobStatus is the poll target for preview generation
type JobStatus struct {
	JobID  string         `json:"job_id,omitempty"`
	Status JobStatusValue `json:"status"`
	Error  string         `json:"error,omitempty"`
	Result *Preview       `json:"result,omitempty"`
}

// PreviewJobInput starts a preview generation job
type PreviewJobInput struct {
	URL    string `json:"url"`
	Domain string `json:"domain,omitempty"`
}

// Preview is a generated link preview card
type Preview struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Domain      string    `json:"domain,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DomainStatus is the closed set of verification states of a domain
type DomainStatus string

const (
	DomainPending  DomainStatus = "pending"
	DomainVerified DomainStatus = "verified"
	DomainFailed   DomainStatus = "failed"
)

// UnmarshalText rejects statuses outside the known set
func (s *DomainStatus) UnmarshalText(b []byte) error {
	switch v := DomainStatus(b); v {
	case DomainPending, DomainVerified, DomainFailed:
		*s = v
		return nil
	default:
		return fmt.Errorf("unknown domain status %q", string(b))
	}
}

// VerificationMethod is how ownership of a domain is proven
type VerificationMethod string

const (
	MethodDNS  VerificationMethod = "dns"
	MethodHTML VerificationMethod = "html"
	MethodMeta VerificationMethod = "meta"
)

// Methods lists every verification method in display order
var Methods = []VerificationMethod{MethodDNS, MethodHTML, MethodMeta}

// ParseMethod validates a user supplied method name
func ParseMethod(s string) (VerificationMethod, error) {
	var m VerificationMethod
	if s == "" {
		return "", fmt.Errorf("verification method is required")
	}
	if err := m.UnmarshalText([]byte(s)); err != nil {
		return "", err
	}
	return m, nil
}

// UnmarshalText rejects methods outside the known set; empty means not chosen yet
func (m *VerificationMethod) UnmarshalText(b []byte) error {
	switch v := VerificationMethod(b); v {
	case "", MethodDNS, MethodHTML, MethodMeta:
		*m = v
		return nil
	default:
		return fmt.Errorf("unknown verification method %q", string(b))
	}
}

// Domain is a customer domain as the server sees it
type Domain struct {
	ID                 string             `json:"id"`
	Domain             string             `json:"domain"`
	Status             DomainStatus       `json:"status"`
	VerificationMethod VerificationMethod `json:"verification_method,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// VerificationChallenge is what the user must publish to prove ownership
type VerificationChallenge struct {
	Token        string             `json:"token"`
	Method       VerificationMethod `json:"method,omitempty"`
	Instructions string             `json:"instructions"`
}

// VerificationDebug is the server's diagnostic view of a verification
type VerificationDebug struct {
	Domain        string   `json:"domain"`
	ExpectedValue string   `json:"expected_value"`
	FoundRecords  []string `json:"found_records"`
	IsVerified    bool     `json:"is_verified"`
	Error         string   `json:"error,omitempty"`
}
