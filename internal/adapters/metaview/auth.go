package metaview

import (
	"context"
	"errors"
	"time"

	perr "metaview/internal/platform/errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned before any request when the configured JWT is past its exp
var ErrTokenExpired = perr.New(perr.ErrorCodeUnauthorized, "api token expired; log in again")

// TokenInfo is what can be read from a bearer token without its signing key
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	JWT       bool
}

// InspectToken decodes a JWT without verifying its signature; the server does that.
// Opaque tokens yield JWT=false and no error
func InspectToken(raw string) (TokenInfo, error) {
	if raw == "" {
		return TokenInfo{}, nil
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return TokenInfo{}, nil
		}
		return TokenInfo{}, perr.Wrap(err, perr.ErrorCodeUnauthorized, "api token unreadable")
	}
	info := TokenInfo{Subject: claims.Subject, JWT: true}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

func (c *Client) checkToken() error {
	info, err := InspectToken(c.opts.Token)
	if err != nil {
		return err
	}
	if info.JWT && !info.ExpiresAt.IsZero() && !c.clock.Now().Before(info.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}

// Ping reports whether requests can be sent at all. It checks the token locally and never
// calls the server
func (c *Client) Ping(context.Context) error { return c.checkToken() }
