package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perrs "metaview/internal/platform/errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenFunc checks a bearer token and returns the caller's subject
type TokenFunc func(token string) (subject string, err error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a parser function
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// Parse extracts the subject from an Authorization Bearer token
// returns unauthorized when the header is missing, malformed, or the parser rejects it
func (p *Port) Parse(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	if p.parse == nil {
		return "", perrs.Unauthorizedf("invalid bearer token")
	}
	sub, err := p.parse(raw)
	if err != nil {
		return "", perrs.Unauthorizedf("invalid bearer token")
	}
	return sub, nil
}

// StaticToken accepts exactly one shared secret; the subject is "console"
func StaticToken(secret string) TokenFunc {
	want := []byte(secret)
	return func(token string) (string, error) {
		if len(want) == 0 || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			return "", perrs.Unauthorizedf("token mismatch")
		}
		return "console", nil
	}
}

// HMACToken accepts HS256 JWTs signed with secret and returns their sub claim
func HMACToken(secret []byte) TokenFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return func(token string) (string, error) {
		claims := jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return secret, nil }); err != nil {
			return "", err
		}
		if claims.Subject == "" {
			return "", perrs.Unauthorizedf("token has no subject")
		}
		return claims.Subject, nil
	}
}
