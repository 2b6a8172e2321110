// Package ws streams JSON views to browser watchers over a websocket
package ws

import (
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"metaview/internal/platform/logger"

	"github.com/gorilla/websocket"
)

// Options tunes a stream; zero values pick the defaults below
type Options struct {
	// AllowedOrigins are glob patterns over scheme://host[:port]; empty allows loopback only
	AllowedOrigins []string
	WriteTimeout   time.Duration
	PingInterval   time.Duration
}

const (
	defaultWriteTimeout = 5 * time.Second
	defaultPingInterval = 30 * time.Second
)

var defaultOrigins = []string{"http://localhost:*", "http://127.0.0.1:*", "http://localhost", "http://127.0.0.1"}

// Stream upgrades the request, writes render() once, then again after every signal on changes.
// It returns when the client disconnects, a write fails or changes is closed; a closed changes
// channel ends the stream with a normal close frame
func Stream(w http.ResponseWriter, r *http.Request, changes <-chan struct{}, render func() any, o Options) error {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(o.AllowedOrigins),
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return err
	}
	defer func() { _ = conn.Close() }()
	log := logger.C(r.Context())

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	write := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(o.WriteTimeout))
		return conn.WriteJSON(v)
	}
	if err := write(render()); err != nil {
		return err
	}

	ping := time.NewTicker(o.PingInterval)
	defer ping.Stop()
	for {
		select {
		case <-gone:
			log.Debug().Msg("watch client went away")
			return nil
		case <-r.Context().Done():
			return r.Context().Err()
		case _, ok := <-changes:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(o.WriteTimeout))
				return nil
			}
			if err := write(render()); err != nil {
				log.Debug().Err(err).Msg("watch write failed")
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(o.WriteTimeout)); err != nil {
				return err
			}
		}
	}
}

func originChecker(patterns []string) func(*http.Request) bool {
	if len(patterns) == 0 {
		patterns = defaultOrigins
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// non-browser clients such as the CLI send none
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		target := strings.ToLower(u.Scheme + "://" + u.Host)
		for _, p := range patterns {
			if p == "*" {
				return true
			}
			if ok, _ := path.Match(strings.ToLower(p), target); ok {
				return true
			}
		}
		return false
	}
}
