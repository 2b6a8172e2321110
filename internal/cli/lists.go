package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	perr "metaview/internal/platform/errors"
	str "metaview/internal/platform/strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

func (a *App) runDebug(ctx context.Context, args []string) error {
	fs := a.flags("debug")
	id := fs.String("domain-id", "", "domain to inspect (required)")
	asJSON := fs.Bool("json", false, "print as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*id) == "" {
		return perr.WithField(perr.Validationf("domain-id is required"), "domain-id")
	}
	api, err := a.api()
	if err != nil {
		return err
	}

	d, err := api.DebugDomainVerification(ctx, *id)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(a.Out, d)
	}

	state := a.paint(errorStyle, "not verified")
	if d.IsVerified {
		state = a.paint(okStyle, "verified")
	}
	fmt.Fprintf(a.Out, "%s  %s\n", a.paint(titleStyle, str.FirstNonBlank(d.Domain, *id)), state)
	fmt.Fprintf(a.Out, "expected: %s\n", d.ExpectedValue)
	if len(d.FoundRecords) == 0 {
		fmt.Fprintln(a.Out, "found:    (nothing)")
	}
	for i, r := range d.FoundRecords {
		label := "found:   "
		if i > 0 {
			label = "         "
		}
		fmt.Fprintf(a.Out, "%s %s\n", label, r)
	}
	if d.Error != "" {
		fmt.Fprintf(a.Out, "error:    %s\n", d.Error)
	}
	return nil
}

func (a *App) runDomains(ctx context.Context, args []string) error {
	fs := a.flags("domains")
	asJSON := fs.Bool("json", false, "print as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}
	list, err := api.ListDomains(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(a.Out, nonNil(list))
	}
	if len(list) == 0 {
		fmt.Fprintln(a.Out, "no domains")
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, d := range list {
		rows = append(rows, []string{d.ID, d.Domain, string(d.Status), string(d.VerificationMethod), stamp(d.VerifiedAt)})
	}
	a.printTable(a.Out, []string{"ID", "DOMAIN", "STATUS", "METHOD", "VERIFIED"}, rows)
	return nil
}

func (a *App) runPreviews(ctx context.Context, args []string) error {
	fs := a.flags("previews")
	asJSON := fs.Bool("json", false, "print as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}
	list, err := api.ListPreviews(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(a.Out, nonNil(list))
	}
	if len(list) == 0 {
		fmt.Fprintln(a.Out, "no previews")
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		created := ""
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.UTC().Format(time.DateOnly)
		}
		rows = append(rows, []string{p.ID, str.Truncate(p.Title, 40), p.URL, created})
	}
	a.printTable(a.Out, []string{"ID", "TITLE", "URL", "CREATED"}, rows)
	return nil
}

// printTable draws a bordered table on a terminal and tab separated columns otherwise
func (a *App) printTable(w io.Writer, headers []string, rows [][]string) {
	if a.TTY {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(mutedStyle).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return titleStyle.Padding(0, 1)
				}
				return lipgloss.NewStyle().Padding(0, 1)
			}).
			Headers(headers...).
			Rows(rows...)
		fmt.Fprintln(w, t.Render())
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	_ = tw.Flush()
}

func stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

