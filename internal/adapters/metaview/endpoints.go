package metaview

import (
	"context"
	"encoding/json"
	"net/url"

	perr "metaview/internal/platform/errors"
)

// StartPreviewJob enqueues async preview generation. Sent exactly once
func (c *Client) StartPreviewJob(ctx context.Context, in PreviewJobInput) (JobHandle, error) {
	var out JobHandle
	if err := c.sendJSON(ctx, "/api/previews/generate-async", in, &out); err != nil {
		return JobHandle{}, err
	}
	if out.ID == "" {
		return JobHandle{}, perr.JSONErrf("metaview generate-async: response has no job_id")
	}
	return out, nil
}

// JobStatus reads the state of an async job
func (c *Client) JobStatus(ctx context.Context, jobID string) (JobStatus, error) {
	var out JobStatus
	if err := c.getJSON(ctx, "/api/jobs/"+url.PathEscape(jobID), &out); err != nil {
		return JobStatus{}, err
	}
	if out.Status == "" {
		return JobStatus{}, perr.JSONErrf("metaview job %s: response has no status", jobID)
	}
	return out, nil
}

// ListPreviews returns the caller's previews, newest first as the server orders them
func (c *Client) ListPreviews(ctx context.Context) ([]Preview, error) {
	var out []Preview
	if err := c.getList(ctx, "/api/previews", "previews", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StartDomainVerification issues the ownership challenge for a domain. One-shot, not polled
func (c *Client) StartDomainVerification(ctx context.Context, domainID string, method VerificationMethod) (VerificationChallenge, error) {
	body := struct {
		Method VerificationMethod `json:"method"`
	}{method}
	var out VerificationChallenge
	if err := c.sendJSON(ctx, "/api/domains/"+url.PathEscape(domainID)+"/verify", body, &out); err != nil {
		return VerificationChallenge{}, err
	}
	if out.Method == "" {
		out.Method = method
	}
	return out, nil
}

// CheckDomainVerification asks the server to look for the published token now
func (c *Client) CheckDomainVerification(ctx context.Context, domainID string) (Domain, error) {
	var out Domain
	if err := c.sendJSON(ctx, "/api/domains/"+url.PathEscape(domainID)+"/verify/check", nil, &out); err != nil {
		return Domain{}, err
	}
	if out.Status == "" {
		return Domain{}, perr.JSONErrf("metaview domain %s: response has no status", domainID)
	}
	return out, nil
}

// DebugDomainVerification returns what the verifier expected and what it found
func (c *Client) DebugDomainVerification(ctx context.Context, domainID string) (VerificationDebug, error) {
	var out VerificationDebug
	if err := c.getJSON(ctx, "/api/domains/"+url.PathEscape(domainID)+"/verify/debug", &out); err != nil {
		return VerificationDebug{}, err
	}
	return out, nil
}

// ListDomains returns the caller's domains
func (c *Client) ListDomains(ctx context.Context) ([]Domain, error) {
	var out []Domain
	if err := c.getList(ctx, "/api/domains", "domains", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// getList accepts either a bare array or an object wrapping it under key or "items"
func (c *Client) getList(ctx context.Context, path, key string, out any) error {
	var raw json.RawMessage
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return err
	}
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, out); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "metaview decode %s", path)
		}
		return nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "metaview decode %s", path)
	}
	for _, k := range []string{key, "items"} {
		if v, ok := wrapped[k]; ok {
			if err := json.Unmarshal(v, out); err != nil {
				return perr.Wrapf(err, perr.ErrorCodeJSON, "metaview decode %s", path)
			}
			return nil
		}
	}
	return perr.JSONErrf("metaview decode %s: no %q array in response", path, key)
}
