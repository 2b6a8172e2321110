package metaview

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	perr "metaview/internal/platform/errors"
)

// StatusError wraps non-2xx HTTP responses from the MetaView API
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

// Error interface
func (e *StatusError) Error() string { return e.Err.Error() }

// Unwrap exposes the platform error carrying the mapped code
func (e *StatusError) Unwrap() error { return e.Err }

// HTTPStatus interface
func (e *StatusError) HTTPStatus() int { return e.Status }

func newStatusError(method, path string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()

	msg := serverMessage(body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	code := perr.FromHTTPStatus(resp.StatusCode)
	return &StatusError{
		Method:  method,
		Path:    path,
		Status:  resp.StatusCode,
		Message: msg,
		Err:     perr.Newf(code, "metaview %s %s: %d %s", method, path, resp.StatusCode, msg),
	}
}

// serverMessage pulls a human message out of the usual error shapes:
// {"detail":"..."}, {"detail":[{"msg":"..."}]}, {"error":"..."}, {"message":"..."}
func serverMessage(body []byte) string {
	var shape struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if len(body) == 0 || json.Unmarshal(body, &shape) != nil {
		return strings.TrimSpace(string(body))
	}
	if len(shape.Detail) > 0 {
		var s string
		if json.Unmarshal(shape.Detail, &s) == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(shape.Detail, &items) == nil {
			parts := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					parts = append(parts, it.Msg)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	if shape.Error != "" {
		return shape.Error
	}
	return shape.Message
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryAfter honours both the delay-seconds and HTTP-date forms
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if sec, err := strconv.Atoi(v); err == nil {
		if sec <= 0 {
			return 0
		}
		return time.Duration(sec) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}

// IsRateLimited reports whether err is a StatusError with 429 status
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusTooManyRequests
}

// IsTransient reports whether err is worth retrying on a later poll tick
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 500 || se.Status == http.StatusTooManyRequests || se.Status == http.StatusRequestTimeout
	}
	return perr.Retryable(err)
}
