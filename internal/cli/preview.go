package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"metaview/internal/adapters/metaview"
	"metaview/internal/core/operation"
	perr "metaview/internal/platform/errors"
	str "metaview/internal/platform/strings"

	previews "metaview/internal/services/previews/domain"
	previewsvc "metaview/internal/services/previews/service"
)

func (a *App) runPreview(ctx context.Context, args []string) error {
	fs := a.flags("preview")
	url := fs.String("url", "", "page url to render (required)")
	dom := fs.String("domain", "", "verified domain the preview belongs to")
	plain := fs.Bool("plain", false, "plain progress lines even on a terminal")
	asJSON := fs.Bool("json", false, "print the final view as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}

	w := previewsvc.NewWizard(api, previewsvc.Config{Policy: a.PreviewPolicy, Clock: a.Clock, Log: a.log("preview")})
	defer w.Close()
	changes, unsub := w.Changes()
	defer unsub()

	if err := w.Start(ctx, previews.GenerateInput{URL: *url, Domain: *dom}); err != nil {
		return err
	}
	if err := a.follow(ctx, "preview", *plain, changes, func() frame { return previewFrame(w.View()) }); err != nil {
		w.Cancel()
		return a.stopped("preview: stopped polling; the job may still finish on the server", err)
	}

	v := w.View()
	if *asJSON {
		if err := writeJSON(a.Out, v); err != nil {
			return err
		}
	}
	if v.Error != nil {
		return outcomeError(v.Progress.Phase, v.Error)
	}
	if !*asJSON && v.Preview != nil {
		a.printPreview(*v.Preview)
	}
	return nil
}

func previewFrame(v previews.View) frame {
	return frame{Status: v.Progress.Status, Done: v.Progress.Phase.Terminal()}
}

func (a *App) printPreview(p metaview.Preview) {
	lines := []string{
		a.paint(okStyle, "preview ready"),
		"title:       " + str.FirstNonBlank(p.Title, "(none)"),
		"url:         " + p.URL,
	}
	if p.Description != "" {
		lines = append(lines, "description: "+str.Truncate(p.Description, 120))
	}
	if p.ImageURL != "" {
		lines = append(lines, "image:       "+p.ImageURL)
	}
	if p.ID != "" {
		lines = append(lines, "id:          "+p.ID)
	}
	out := strings.Join(lines, "\n")
	if a.TTY {
		out = panelStyle.Render(out)
	}
	fmt.Fprintln(a.Out, out)
}

// outcomeError turns a terminal inline error into the command's error
func outcomeError(phase operation.Phase, ie *operation.InlineError) error {
	code := perr.ErrorCodeJobFailed
	switch {
	case phase == operation.PhaseTimedOut:
		code = perr.ErrorCodeTimeout
	case ie.Kind == operation.ErrorKindSubmission:
		code = perr.ErrorCodeUnavailable
	}
	return perr.New(code, ie.Message)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
