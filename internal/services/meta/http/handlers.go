// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"metaview/internal/core/version"
	"metaview/internal/modkit/httpkit"
	"metaview/internal/modkit/module"
	ptime "metaview/internal/platform/time"
)

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(stdctx.Context) error
}

// SessionCounter is implemented by the ports of modules that host wizard sessions
type SessionCounter interface {
	OpenSessions() int
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Clock       ptime.Clock
	Upstream    any
}

type handlers struct {
	deps  Deps
	clock ptime.Clock
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d, clock: ptime.OrReal(d.Clock)}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

//
// Swagger DTOs and route docs
//

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"metaview-console"`
	Started string `json:"started"  example:"2026-10-01T13:00:00Z"`
	Now     string `json:"now"      example:"2026-10-01T13:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"metaview"`
	Status string `json:"status" example:"ok"` // ok fail skipped unknown
	Error  string `json:"error,omitempty" example:"api token expired; log in again"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-10-01T13:05:00Z"`
}

// ServiceResponse describes service info and live wizard sessions per module
type ServiceResponse struct {
	Name     string         `json:"name"     example:"metaview-console"`
	Started  string         `json:"started"  example:"2026-10-01T13:00:00Z"`
	Uptime   int64          `json:"uptime"   example:"300"`
	Sessions map[string]int `json:"sessions"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.clock.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness probe; checks the MetaView client can authenticate
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	check := ReadyCheck{Name: "metaview", Status: "skipped"}
	if h.deps.Upstream != nil {
		check.Status = "unknown"
		if p, ok := h.deps.Upstream.(Pinger); ok {
			check.Status = "ok"
			if err := p.Ping(ctx); err != nil {
				check.Status, check.Error = "fail", err.Error()
			}
		}
	}

	overall := "ok"
	switch check.Status {
	case "fail":
		overall = "fail"
	case "ok":
	default:
		overall = "degraded"
	}
	return ReadyResponse{
		Status: overall,
		Checks: []ReadyCheck{check},
		Now:    h.clock.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}

// swagger:route GET /meta/service Meta metaService
// @Summary Service info, uptime and open wizard sessions
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	sessions := map[string]int{}
	module.Each(func(name string, c SessionCounter) { sessions[name] = c.OpenSessions() })
	return ServiceResponse{
		Name:     h.deps.ServiceName,
		Started:  h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:   int64(h.clock.Since(h.deps.StartedAt) / time.Second),
		Sessions: sessions,
	}, nil
}
