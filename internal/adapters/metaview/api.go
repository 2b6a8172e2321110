package metaview

import "context"

// API is the full client surface; consumers usually declare a narrower port
type API interface {
	StartPreviewJob(ctx context.Context, in PreviewJobInput) (JobHandle, error)
	JobStatus(ctx context.Context, jobID string) (JobStatus, error)
	ListPreviews(ctx context.Context) ([]Preview, error)
	StartDomainVerification(ctx context.Context, domainID string, method VerificationMethod) (VerificationChallenge, error)
	CheckDomainVerification(ctx context.Context, domainID string) (Domain, error)
	DebugDomainVerification(ctx context.Context, domainID string) (VerificationDebug, error)
	ListDomains(ctx context.Context) ([]Domain, error)
}

var _ API = (*Client)(nil)
