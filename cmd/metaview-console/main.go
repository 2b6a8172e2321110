// @title         MetaView console API
// @version       0.1.0
// @description   Hosts preview and domain verification wizard sessions for a browser front-end

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"metaview/internal/adapters/metaview"
	"metaview/internal/modkit/httpkit"
	"metaview/internal/platform/config"
	"metaview/internal/platform/config/raw"
	"metaview/internal/platform/logger"
	phttp "metaview/internal/platform/net/http"
	"metaview/internal/platform/net/middleware"

	"metaview/internal/services/console"
)

func main() {
	raw.LoadDotenv()

	opts := logger.FromEnv()
	opts.Service = raw.New().Get("LOG_SERVICE", "metaview-console")
	logger.Init(opts)
	l := logger.Get()

	root := config.New()
	apiCfg := root.Prefix("CONSOLE_API_")

	// the console is useless without a server, so the url is required here
	root.Prefix("METAVIEW_API_").MustURL("URL")
	client, err := metaview.NewClient(metaview.OptionsFromConfig(root, "metaview-console"))
	if err != nil {
		l.Fatal().Err(err).Msg("metaview client")
	}

	// loopback consoles run open; anything reachable should set a token or a JWT secret
	var auth middleware.AuthPort
	switch {
	case apiCfg.Has("TOKEN"):
		auth = httpkit.NewPortFunc(httpkit.StaticToken(apiCfg.MustString("TOKEN")))
	case apiCfg.Has("JWT_SECRET"):
		auth = httpkit.NewPortFunc(httpkit.HMACToken([]byte(apiCfg.MustString("JWT_SECRET"))))
	}

	// http server (reads CONSOLE_API_PORT / CONSOLE_API_SHUTDOWN_GRACE)
	srv := phttp.NewServer(apiCfg)

	closeSessions := console.Mount(
		srv.Router(),
		console.Options{
			Config:         root,
			API:            client,
			Logger:         l,
			ServiceName:    "metaview-console",
			Auth:           auth,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)
	// hijacked websocket streams are not drained by http.Server.Shutdown
	srv.RegisterOnShutdown(closeSessions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("http server stopped")
	}
}
