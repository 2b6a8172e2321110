package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"metaview/internal/adapters/metaview"

	domains "metaview/internal/services/domains/domain"
	domainsvc "metaview/internal/services/domains/service"
)

// verifyResult is the --json output of verify
type verifyResult struct {
	domains.View
	Attempts []domains.VerificationAttempt `json:"attempts"`
}

func (a *App) runVerify(ctx context.Context, args []string) error {
	fs := a.flags("verify")
	id := fs.String("domain-id", "", "domain to verify (required)")
	method := fs.String("method", string(metaview.MethodDNS), "proof method: dns, html or meta")
	noWait := fs.Bool("no-wait", false, "print the token and exit without checking")
	plain := fs.Bool("plain", false, "plain progress lines even on a terminal")
	asJSON := fs.Bool("json", false, "print the final view and attempts as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	api, err := a.api()
	if err != nil {
		return err
	}

	w := domainsvc.NewWizard(api, domainsvc.Config{Policy: a.DomainPolicy, Clock: a.Clock, Log: a.log("verify")})
	defer w.Close()

	if err := w.Begin(ctx, domains.BeginInput{DomainID: *id, Method: *method}); err != nil {
		return err
	}
	v := w.View()
	if *noWait {
		if *asJSON {
			return writeJSON(a.Out, verifyResult{View: v, Attempts: []domains.VerificationAttempt{}})
		}
		a.printChallenge(v)
		fmt.Fprintf(a.Out, "\nrun %q again once the record is published\n", "metaview verify --domain-id "+*id+" --method "+*method)
		return nil
	}
	if !*asJSON {
		a.printChallenge(v)
		fmt.Fprintln(a.Out)
	}

	changes, unsub := w.Changes()
	defer unsub()
	if err := w.Verify(ctx); err != nil {
		return err
	}
	if err := a.follow(ctx, "verify", *plain, changes, func() frame { return domainFrame(w.View()) }); err != nil {
		w.Cancel()
		return a.stopped("verify: stopped checking; run verify again to resume", err)
	}

	v = w.View()
	attempts := w.Attempts()
	if *asJSON {
		if err := writeJSON(a.Out, verifyResult{View: v, Attempts: attempts}); err != nil {
			return err
		}
	}
	if v.Error != nil {
		if !*asJSON {
			a.printAttempts(attempts)
			fmt.Fprintf(a.Err, "hint: %q shows what the server looked for\n", "metaview debug --domain-id "+*id)
		}
		return outcomeError(v.Progress.Phase, v.Error)
	}
	if !*asJSON {
		fmt.Fprintf(a.Out, "%s %s after %d checks\n", a.paint(okStyle, "verified"), domainName(v), len(attempts))
	}
	return nil
}

func domainFrame(v domains.View) frame {
	return frame{Status: v.Progress.Status, Done: v.Progress.Phase.Terminal()}
}

func domainName(v domains.View) string {
	if v.Domain != nil && v.Domain.Domain != "" {
		return v.Domain.Domain
	}
	return v.DomainID
}

func (a *App) printChallenge(v domains.View) {
	if v.Challenge == nil {
		return
	}
	c := v.Challenge
	lines := []string{
		a.paint(titleStyle, "verify "+v.DomainID+" by "+string(v.Method)),
		"token: " + c.Token,
	}
	if c.Instructions != "" {
		lines = append(lines, "", c.Instructions)
	}
	out := strings.Join(lines, "\n")
	if a.TTY {
		out = panelStyle.Render(out)
	}
	fmt.Fprintln(a.Out, out)
}

func (a *App) printAttempts(attempts []domains.VerificationAttempt) {
	if len(attempts) == 0 {
		return
	}
	rows := make([][]string, 0, len(attempts))
	for _, at := range attempts {
		rows = append(rows, []string{
			strconv.Itoa(at.AttemptNumber),
			at.CheckedAt.UTC().Format("15:04:05"),
			string(at.Outcome),
			at.Detail,
		})
	}
	a.printTable(a.Err, []string{"#", "CHECKED", "OUTCOME", "DETAIL"}, rows)
}
