package module

import (
	"time"

	"metaview/internal/core/poll"
	"metaview/internal/platform/config"
)

// Options controls the preview wizard policy and session limits
type Options struct {
	Policy         poll.Policy
	MaxSessions    int
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// FromConfig reads METAVIEW_PREVIEW_* and CONSOLE_API_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	pc := cfg.Prefix("METAVIEW_PREVIEW_")
	cc := cfg.Prefix("CONSOLE_API_")
	p := poll.PreviewGenerationPolicy
	p.Interval = pc.MayDuration("POLL_INTERVAL", p.Interval)
	p.Timeout = pc.MayDuration("POLL_TIMEOUT", p.Timeout)
	return Options{
		Policy:         p,
		MaxSessions:    cc.MayInt("MAX_SESSIONS", 64),
		RequestTimeout: cc.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
		AllowedOrigins: cc.MayCSV("CORS_ORIGINS", nil),
	}
}
