package middleware

import (
	"net/http"

	pnet "metaview/internal/platform/net"
)

// AuthPort resolves the caller of a request
type AuthPort interface {
	// Parse returns the authenticated subject or an error
	Parse(r *http.Request) (subject string, err error)
}

// Auth rejects requests the port cannot authenticate. A nil port lets everything through,
// which is how the console runs on loopback without a token
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			sub, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithSubject(r.Context(), sub)))
		})
	}
}
