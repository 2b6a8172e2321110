package httpkit

import (
	"net/http"

	phttp "metaview/internal/platform/net/http"
	"metaview/internal/platform/net/ws"
)

// Stream is what a watch route follows: a change signal, its release func and a renderer
type Stream struct {
	Changes <-chan struct{}
	Cancel  func()
	Render  func() any
}

// Watch mounts a websocket route under GET. open resolves the stream before the upgrade so a
// missing session still gets a JSON error envelope
func Watch(r Router, path string, o ws.Options, open func(*http.Request) (Stream, error)) {
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		s, err := open(req)
		if err != nil {
			phttp.RespondError(w, req, err)
			return
		}
		if s.Cancel != nil {
			defer s.Cancel()
		}
		_ = ws.Stream(w, req, s.Changes, s.Render, o)
	})
}
