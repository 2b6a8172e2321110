package http

import (
	"time"

	"metaview/internal/platform/net/ws"
)

// Options tunes transport behaviour
type Options struct {
	Timeout time.Duration
	WS      ws.Options
}
