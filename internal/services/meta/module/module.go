// Package module wires meta endpoints into the console using a tiny module
package module

import (
	"net/http"

	"metaview/internal/modkit"
	"metaview/internal/modkit/httpkit"
	"metaview/internal/modkit/swaggerkit"
	str "metaview/internal/platform/strings"
	ptime "metaview/internal/platform/time"

	metahttp "metaview/internal/services/meta/http"
)

// DefaultServiceName is reported when nothing is injected
const DefaultServiceName = "metaview-console"

// Inject overrides what the meta endpoints report
type Inject struct {
	ServiceName string
}

// Module implements the modkit.Module interface
type Module struct {
	deps      modkit.Deps
	name      string
	prefix    string
	mws       []func(http.Handler) http.Handler
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	service := DefaultServiceName
	if in, ok := modkit.PortsAs[Inject](b); ok {
		service = str.FirstNonBlank(in.ServiceName, service)
	}
	clock := ptime.OrReal(deps.Clock)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
	}
	if m.swaggerOn {
		swaggerkit.Register(swaggerkit.Operations(operations(m.Prefix()), nil))
	}

	startedAt := clock.Now()
	external := b.Register
	m.register = func(r httpkit.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: service,
			StartedAt:   startedAt,
			Clock:       clock,
			Upstream:    deps.API,
		})
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Prefix implements the modkit.Module interface
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }

func operations(prefix string) []swaggerkit.Operation {
	const tag = "meta"
	return []swaggerkit.Operation{
		{Method: http.MethodGet, Path: prefix + "/health", Tag: tag, Summary: "Health check"},
		{Method: http.MethodGet, Path: prefix + "/ready", Tag: tag, Summary: "Readiness probe"},
		{Method: http.MethodGet, Path: prefix + "/version", Tag: tag, Summary: "Build and version info"},
		{Method: http.MethodGet, Path: prefix + "/service", Tag: tag, Summary: "Service info, uptime and open sessions"},
	}
}
