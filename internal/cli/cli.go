// Package cli is the metaview command line: flag parsing, dispatch and terminal output.
// Long running commands drive the same wizards the console hosts
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"metaview/internal/adapters/metaview"
	"metaview/internal/core/poll"
	"metaview/internal/core/version"
	perr "metaview/internal/platform/errors"
	"metaview/internal/platform/logger"
	ptime "metaview/internal/platform/time"
)

// Exit codes returned by ExitCode
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitCancelled = 130
)

// ErrCancelled is returned when the user interrupts a running operation
var ErrCancelled = perr.New(perr.ErrorCodeCanceled, "cancelled")

// ErrNoAPI is returned by network commands when no server url is configured
var ErrNoAPI = perr.New(perr.ErrorCodeInvalidArgument, "METAVIEW_API_URL is not set")

// App carries everything a command needs. The zero value of the optional fields is usable
type App struct {
	API metaview.API
	Out io.Writer
	Err io.Writer
	In  io.Reader

	// TTY enables the spinner view and styled output
	TTY bool

	Log           *logger.Logger
	Clock         ptime.Clock
	PreviewPolicy poll.Policy
	DomainPolicy  poll.Policy
}

// Run dispatches args[0] to a subcommand
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return nil
	}

	switch args[0] {
	case "preview":
		return a.runPreview(ctx, args[1:])
	case "verify":
		return a.runVerify(ctx, args[1:])
	case "debug":
		return a.runDebug(ctx, args[1:])
	case "domains":
		return a.runDomains(ctx, args[1:])
	case "previews":
		return a.runPreviews(ctx, args[1:])
	case "version", "--version":
		fmt.Fprintln(a.Out, version.Info("metaview"))
		return nil
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return perr.WithField(perr.InvalidArgf("unknown command %q", args[0]), "command")
	}
}

func (a *App) usage() {
	w := a.Out
	fmt.Fprintln(w, "metaview: link previews and domain verification from the terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  preview   --url U [--domain D] [--plain] [--json]   generate a link preview and wait for it")
	fmt.Fprintln(w, "  verify    --domain-id ID --method dns|html|meta [--no-wait] [--plain] [--json]")
	fmt.Fprintln(w, "            request a verification token, then poll until the domain is verified")
	fmt.Fprintln(w, "  debug     --domain-id ID [--json]                    what the server expected and found")
	fmt.Fprintln(w, "  domains   [--json]                                   list domains")
	fmt.Fprintln(w, "  previews  [--json]                                   list generated previews")
	fmt.Fprintln(w, "  version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ctrl-C stops polling; nothing is cancelled on the server.")
}

// flags builds a FlagSet that reports parse errors instead of exiting
func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

func (a *App) api() (metaview.API, error) {
	if a.API == nil {
		return nil, ErrNoAPI
	}
	return a.API, nil
}

func (a *App) log(component string) *logger.Logger {
	if a.Log == nil {
		return logger.Named(component)
	}
	l := a.Log.With().Str("component", component).Logger()
	return &l
}

// ExitCode maps a command error onto the process exit status
func ExitCode(err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	switch perr.CodeOf(err) {
	case perr.ErrorCodeCanceled:
		return ExitCancelled
	case perr.ErrorCodeInvalidArgument, perr.ErrorCodeValidation:
		return ExitUsage
	}
	return ExitFailure
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, fs.Name()+": bad flags")
	}
	if fs.NArg() > 0 {
		return perr.InvalidArgf("%s: unexpected argument %q", fs.Name(), fs.Arg(0))
	}
	return nil
}
