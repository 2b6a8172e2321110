package metaview

import "metaview/internal/platform/config"

// OptionsFromConfig reads METAVIEW_API_* from the root view. BaseURL stays empty when unset so
// callers can decide whether a server is required. METAVIEW_API_MAX_RETRIES=0 turns retries off
func OptionsFromConfig(cfg config.Conf, userAgent string) Options {
	c := cfg.Prefix("METAVIEW_API_")
	retries := c.MayInt("MAX_RETRIES", defaultMaxRetry)
	if retries <= 0 {
		retries = NoRetries
	}
	return Options{
		BaseURL:    c.MayString("URL", ""),
		Token:      c.MayString("TOKEN", ""),
		UserAgent:  userAgent,
		Timeout:    c.MayDuration("TIMEOUT", defaultTimeout),
		MaxRetries: retries,
		RetryBase:  c.MayDuration("RETRY_BASE", defaultRetryBase),
	}
}
