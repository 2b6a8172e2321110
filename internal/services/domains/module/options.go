package module

import (
	"time"

	"metaview/internal/core/poll"
	"metaview/internal/platform/config"
)

// Options controls the verification wizard policy and session limits
type Options struct {
	Policy         poll.Policy
	MaxSessions    int
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// FromConfig reads METAVIEW_DOMAIN_* and CONSOLE_API_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	dc := cfg.Prefix("METAVIEW_DOMAIN_")
	cc := cfg.Prefix("CONSOLE_API_")
	p := poll.DomainVerificationPolicy
	p.InitialDelay = dc.MayDuration("POLL_WARMUP", p.InitialDelay)
	p.Interval = dc.MayDuration("POLL_INTERVAL", p.Interval)
	p.MaxAttempts = dc.MayInt("POLL_MAX_ATTEMPTS", p.MaxAttempts)
	return Options{
		Policy:         p,
		MaxSessions:    cc.MayInt("MAX_SESSIONS", 64),
		RequestTimeout: cc.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
		AllowedOrigins: cc.MayCSV("CORS_ORIGINS", nil),
	}
}
