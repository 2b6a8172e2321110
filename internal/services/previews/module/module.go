// Package module wires preview wizard sessions into the console using modkit
package module

import (
	"net/http"

	"metaview/internal/modkit"
	"metaview/internal/modkit/httpkit"
	"metaview/internal/modkit/swaggerkit"
	"metaview/internal/platform/net/ws"
	str "metaview/internal/platform/strings"

	"metaview/internal/services/previews/domain"
	phttp "metaview/internal/services/previews/http"
	"metaview/internal/services/previews/service"
)

// Module implements the previews console module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     Ports
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *service.Service
}

// New constructs the previews module (config-driven, parity with the verifications module)
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("previews"),
		modkit.WithPrefix("/previews"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)

	var api domain.API = deps.API
	if in, ok := modkit.PortsAs[Inject](b); ok && in.API != nil {
		api = in.API
	}
	if api == nil {
		panic("previews module requires a MetaView API in deps or an injected port")
	}
	svc := service.New(api, service.Config{
		Policy: cfg.Policy,
		Clock:  deps.Clock,
		Log:    deps.Logger(b.Name),
	}, cfg.MaxSessions)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
		ports:     Ports{Wizards: svc},
	}
	if m.swaggerOn {
		swaggerkit.Register(swaggerkit.Operations(operations(m.Prefix()), schemas))
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		phttp.Register(r, m.svc, phttp.Options{
			Timeout: cfg.RequestTimeout,
			WS:      ws.Options{AllowedOrigins: cfg.AllowedOrigins},
		})
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.Prefix(), func(rr httpkit.Router) {
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

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "previews module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }
