package httpkit

import "metaview/internal/platform/net/middleware"

// Protected groups routes under bearer auth. A nil port leaves the group open
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		if p != nil {
			gr.Use(Auth(p))
		}
		fn(gr)
	})
}
