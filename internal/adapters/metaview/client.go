// Package metaview provides a resilient REST client for the MetaView backend
package metaview

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "metaview/internal/platform/errors"
	"metaview/internal/platform/logger"
	ptime "metaview/internal/platform/time"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUA        = "metaview-cli"
	defaultMaxRetry  = 3
	defaultRetryBase = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
	maxBodyBytes     = 1 << 20
)

// NoRetries disables retries of idempotent reads
const NoRetries = -1

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Bearer token; a JWT past its exp is rejected before any request is sent
	Token string

	// Retry config for idempotent reads only. Zero MaxRetries means the default; NoRetries
	// sends every request once. Waits, Retry-After included, are capped at 30s
	MaxRetries int
	RetryBase  time.Duration

	HTTPClient *http.Client
	Clock      ptime.Clock
}

// Client is a typed MetaView REST client. It holds no per-call state and is safe for
// concurrent use by several operation controllers
type Client struct {
	http  *http.Client
	opts  Options
	base  *url.URL
	log   logger.Logger
	clock ptime.Clock
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(o.BaseURL), "/"))
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "metaview base url %q must be an absolute http(s) url", o.BaseURL)
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		http:  hc,
		opts:  o,
		base:  base,
		log:   *logger.Named("metaview-client"),
		clock: ptime.OrReal(o.Clock),
	}, nil
}

// BaseURL returns the normalised server root
func (c *Client) BaseURL() string { return c.base.String() }

// Do issues a request with auth headers and a JSON body.
// GETs are retried on 429/502/503/504 and transport errors; anything else is sent exactly once,
// since a duplicate submission is a distinct job on the server
func (c *Client) Do(ctx context.Context, method, path string, in any) (*http.Response, error) {
	if err := c.checkToken(); err != nil {
		return nil, err
	}
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "metaview encode %s body", path)
		}
		payload = b
	}
	idempotent := method == http.MethodGet || method == http.MethodHead
	target := c.base.String() + path
	log := logger.With(ctx, &c.log)

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "metaview new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		start := c.clock.Now()
		resp, err := c.http.Do(req)
		lat := c.clock.Since(start)

		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, cerr
			}
			if !idempotent || !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "metaview %s %s failed", method, path)
			}
			back := c.backoff(attempts)
			if !fitsDeadline(ctx, back) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "metaview %s %s failed", method, path)
			}
			log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempts).Msg("metaview transport error retrying")
			if !ptime.Sleep(c.clock, back, ctx.Done()) {
				return nil, ctx.Err()
			}
			attempts++
			continue
		}

		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("metaview http response")

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		if idempotent && retryableStatus(resp.StatusCode) && c.shouldRetry(attempts) {
			wait := retryAfter(resp.Header, c.clock.Now())
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			if wait > maxBackoff {
				wait = maxBackoff
			}
			if !fitsDeadline(ctx, wait) {
				log.Warn().Int("status", resp.StatusCode).Dur("retry_in", wait).Msg("metaview retry would outlive the caller deadline")
				return nil, newStatusError(method, path, resp)
			}
			_ = drainAndClose(resp.Body)
			log.Warn().Int("status", resp.StatusCode).Dur("retry_in", wait).Int("attempt", attempts).Msg("metaview transient status retrying")
			if !ptime.Sleep(c.clock, wait, ctx.Done()) {
				return nil, ctx.Err()
			}
			attempts++
			continue
		}

		return nil, newStatusError(method, path, resp)
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// fitsDeadline reports whether sleeping d still leaves the caller's deadline ahead
func fitsDeadline(ctx context.Context, d time.Duration) bool {
	dl, ok := ctx.Deadline()
	return !ok || time.Until(dl) > d
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}

// getJSON and sendJSON decode a 2xx body into out
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) sendJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.Do(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("metaview close body failed")
		}
	}()
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "metaview read %s", path)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "metaview decode %s", path)
	}
	return nil
}
