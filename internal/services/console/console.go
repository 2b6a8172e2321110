// Package console composes the wizard modules onto the console HTTP API
package console

import (
	"net/http"

	"metaview/internal/adapters/metaview"
	"metaview/internal/platform/config"
	"metaview/internal/platform/logger"
	phttp "metaview/internal/platform/net/http"
	"metaview/internal/platform/net/middleware"
	ptime "metaview/internal/platform/time"

	"metaview/internal/modkit"
	"metaview/internal/modkit/httpkit"
	"metaview/internal/modkit/module"
	"metaview/internal/modkit/swaggerkit"

	domainsmod "metaview/internal/services/domains/module"
	metamod "metaview/internal/services/meta/module"
	previewsmod "metaview/internal/services/previews/module"
)

// Options are the console options
type Options struct {
	// Config is the root view; modules read their own prefixes from it
	Config         config.Conf
	API            metaview.API
	Logger         *logger.Logger
	Clock          ptime.Clock
	ServiceName    string
	Auth           middleware.AuthPort
	EnableSwagger  bool
	EnableProfiler bool
}

// closer is implemented by the ports of modules that own sessions
type closer interface{ CloseAll() }

// Mount mounts the console API onto r and returns a func that closes every open session.
// Call it when the server starts shutting down so watch streams end
func Mount(r phttp.Router, opt Options) (shutdown func()) {
	cc := opt.Config.Prefix("CONSOLE_API_")
	deps := modkit.Deps{
		Log:   opt.Logger,
		Cfg:   opt.Config,
		API:   opt.API,
		Clock: opt.Clock,
	}

	var guarded []func(http.Handler) http.Handler
	if opt.Auth != nil {
		guarded = append(guarded, httpkit.Auth(opt.Auth))
	}

	mods := []module.Module{
		metamod.New(deps,
			modkit.WithSwagger(opt.EnableSwagger),
			modkit.WithPorts(metamod.Inject{ServiceName: opt.ServiceName}),
		),
		previewsmod.New(deps, modkit.WithSwagger(opt.EnableSwagger), modkit.WithMiddlewares(guarded...)),
		domainsmod.New(deps, modkit.WithSwagger(opt.EnableSwagger), modkit.WithMiddlewares(guarded...)),
	}

	r.Use(httpkit.CommonStack(httpkit.StackOptions{
		CORSOrigins: cc.MayCSV("CORS_ORIGINS", nil),
		SlowRequest: cc.MayDuration("SLOW_REQUEST", 0),
	})...)

	swaggerkit.Mount(r, opt.EnableSwagger, swaggerkit.Info{
		Title:       "MetaView console API",
		Version:     "0.1.0",
		Description: "Preview generation and domain verification wizard sessions",
		BasePath:    "/api/v1",
	})
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, nil, func(api httpkit.Router) {
		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})

	return func() {
		module.Each(func(name string, c closer) {
			deps.Logger("console").Info().Str("module", name).Msg("closing sessions")
			c.CloseAll()
		})
	}
}
