package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "metaview/internal/platform/net/http"
	"metaview/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack from config
type StackOptions struct {
	CORSOrigins []string
	SlowRequest time.Duration
}

// CommonStack is the baseline middleware for the console API.
// No timeout here: watch routes hold their connection open, so modules add Timeout per group
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	slow := o.SlowRequest
	if slow == 0 {
		slow = 500 * time.Millisecond
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: slow}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
	}
}

// Timeout bounds request handling for non-streaming routes
func Timeout(d time.Duration) func(http.Handler) http.Handler { return middleware.Timeout(d) }

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}
