package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"metaview/internal/adapters/metaview"
	"metaview/internal/cli"
	"metaview/internal/platform/config"
	"metaview/internal/platform/config/raw"
	"metaview/internal/platform/logger"

	domainsmod "metaview/internal/services/domains/module"
	previewsmod "metaview/internal/services/previews/module"

	"github.com/mattn/go-isatty"
)

func main() {
	raw.LoadDotenv()

	// the CLI stays quiet unless asked: progress is the output
	opts := logger.FromEnv()
	opts.Level = raw.New().Get("LOG_LEVEL", "warn")
	opts.Service = raw.New().Get("LOG_SERVICE", "metaview-cli")
	logger.Init(opts)
	l := logger.Get()

	cfg := config.New()
	app := &cli.App{
		Out:           os.Stdout,
		Err:           os.Stderr,
		In:            os.Stdin,
		TTY:           isTerminal(os.Stdout) && isTerminal(os.Stderr),
		Log:           l,
		PreviewPolicy: previewsmod.FromConfig(cfg).Policy,
		DomainPolicy:  domainsmod.FromConfig(cfg).Policy,
	}

	if o := metaview.OptionsFromConfig(cfg, "metaview-cli"); o.BaseURL != "" {
		client, err := metaview.NewClient(o)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(cli.ExitUsage)
		}
		app.API = client
	}

	// Ctrl-C outside the spinner view cancels the running operation
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args[1:])
	stop()
	if code := cli.ExitCode(err); code != cli.ExitOK {
		if code != cli.ExitCancelled {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(code)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
