package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"metaview/internal/adapters/metaview"
	"metaview/internal/core/poll"
	perr "metaview/internal/platform/errors"
	"metaview/internal/platform/logger"
	kit "metaview/internal/platform/testkit"
)

type fakeAPI struct {
	mu        sync.Mutex
	jobs      []metaview.JobStatus
	domain    []metaview.DomainStatus
	submitErr error
	previews  []metaview.Preview
	domains   []metaview.Domain

	fetches atomic.Int32
	checks  atomic.Int32
}

func (f *fakeAPI) StartPreviewJob(context.Context, metaview.PreviewJobInput) (metaview.JobHandle, error) {
	if f.submitErr != nil {
		return metaview.JobHandle{}, f.submitErr
	}
	return metaview.JobHandle{ID: "job_1"}, nil
}

func (f *fakeAPI) JobStatus(context.Context, string) (metaview.JobStatus, error) {
	n := int(f.fetches.Add(1))
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.jobs) {
		return f.jobs[len(f.jobs)-1], nil
	}
	return f.jobs[n-1], nil
}

func (f *fakeAPI) ListPreviews(context.Context) ([]metaview.Preview, error) { return f.previews, nil }

func (f *fakeAPI) StartDomainVerification(_ context.Context, id string, m metaview.VerificationMethod) (metaview.VerificationChallenge, error) {
	return metaview.VerificationChallenge{Token: "mv-verify=t0k", Method: m, Instructions: "Add a TXT record for " + id}, nil
}

func (f *fakeAPI) CheckDomainVerification(_ context.Context, id string) (metaview.Domain, error) {
	n := int(f.checks.Add(1))
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.domain[len(f.domain)-1]
	if n <= len(f.domain) {
		s = f.domain[n-1]
	}
	return metaview.Domain{ID: id, Domain: "example.com", Status: s}, nil
}

func (f *fakeAPI) DebugDomainVerification(context.Context, string) (metaview.VerificationDebug, error) {
	return metaview.VerificationDebug{Domain: "example.com", ExpectedValue: "mv-verify=t0k", FoundRecords: []string{"v=spf1 -all"}}, nil
}

func (f *fakeAPI) ListDomains(context.Context) ([]metaview.Domain, error) { return f.domains, nil }

func newApp(api metaview.API) (*App, *bytes.Buffer, *bytes.Buffer) {
	var out, errb bytes.Buffer
	return &App{
		API:           api,
		Out:           &out,
		Err:           &errb,
		Log:           logger.Discard(),
		PreviewPolicy: poll.Policy{Name: "test_preview", Interval: time.Millisecond, Timeout: 5 * time.Second},
		DomainPolicy:  poll.Policy{Name: "test_domain", Interval: time.Millisecond, MaxAttempts: 3},
	}, &out, &errb
}

func jobs(statuses ...metaview.JobStatusValue) []metaview.JobStatus {
	out := make([]metaview.JobStatus, len(statuses))
	for i, s := range statuses {
		out[i] = metaview.JobStatus{Status: s}
	}
	return out
}

func TestPreviewPlain(t *testing.T) {
	api := &fakeAPI{jobs: jobs(metaview.JobQueued, metaview.JobStarted, metaview.JobFinished)}
	api.jobs[2].Result = &metaview.Preview{ID: "pv_1", URL: "https://example.com/", Title: "Example", ImageURL: "https://cdn.example/pv_1.png"}
	app, out, errb := newApp(api)

	if err := app.Run(context.Background(), []string{"preview", "--url", "example.com"}); err != nil {
		t.Fatalf("preview: %v\n%s", err, errb.String())
	}
	kit.MustContain(t, out.String(), "preview ready")
	kit.MustContain(t, out.String(), "title:       Example")
	kit.MustContain(t, out.String(), "https://cdn.example/pv_1.png")
	kit.MustContain(t, errb.String(), "preview: ")
	if api.fetches.Load() != 3 {
		t.Fatalf("fetches %d", api.fetches.Load())
	}
}

func TestPreviewJSON(t *testing.T) {
	api := &fakeAPI{jobs: []metaview.JobStatus{{Status: metaview.JobFinished, Result: &metaview.Preview{ID: "pv_1"}}}}
	app, out, _ := newApp(api)
	if err := app.Run(context.Background(), []string{"preview", "--url", "https://example.com", "--json"}); err != nil {
		t.Fatal(err)
	}
	var v struct {
		Step    string `json:"step"`
		Preview struct {
			ID string `json:"id"`
		} `json:"preview"`
	}
	if err := json.Unmarshal(out.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if v.Step != "review" || v.Preview.ID != "pv_1" {
		t.Fatalf("json %+v", v)
	}
}

func TestPreviewFailures(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
		args []string
		code perr.ErrorCode
		exit int
		msg  string
	}{
		{
			name: "job failed",
			api:  &fakeAPI{jobs: []metaview.JobStatus{{Status: metaview.JobFailed, Error: "could not render page"}}},
			args: []string{"preview", "--url", "https://example.com"},
			code: perr.ErrorCodeJobFailed, exit: ExitFailure, msg: "could not render page",
		},
		{
			name: "submission rejected",
			api:  &fakeAPI{submitErr: perr.Unavailablef("metaview down")},
			args: []string{"preview", "--url", "https://example.com"},
			code: perr.ErrorCodeUnavailable, exit: ExitFailure, msg: "metaview down",
		},
		{
			name: "blank url",
			api:  &fakeAPI{},
			args: []string{"preview", "--url", "  "},
			code: perr.ErrorCodeValidation, exit: ExitUsage,
		},
		{
			name: "stray argument",
			api:  &fakeAPI{},
			args: []string{"preview", "--url", "https://example.com", "extra"},
			code: perr.ErrorCodeInvalidArgument, exit: ExitUsage, msg: "unexpected argument",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app, _, _ := newApp(tc.api)
			err := app.Run(context.Background(), tc.args)
			if perr.CodeOf(err) != tc.code || ExitCode(err) != tc.exit {
				t.Fatalf("got %v (code %v exit %d)", err, perr.CodeOf(err), ExitCode(err))
			}
			if tc.msg != "" {
				kit.MustContain(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestPreviewInterruptStopsPolling(t *testing.T) {
	api := &fakeAPI{jobs: jobs(metaview.JobQueued)}
	app, _, errb := newApp(api)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for api.fetches.Load() < 2 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	err := app.Run(ctx, []string{"preview", "--url", "https://example.com"})
	if !errors.Is(err, ErrCancelled) || ExitCode(err) != ExitCancelled {
		t.Fatalf("got %v", err)
	}
	kit.MustContain(t, errb.String(), "stopped polling")

	time.Sleep(10 * time.Millisecond)
	n := api.fetches.Load()
	time.Sleep(30 * time.Millisecond)
	if api.fetches.Load() != n {
		t.Fatalf("fetches continued after interrupt: %d -> %d", n, api.fetches.Load())
	}
}

func TestVerify(t *testing.T) {
	api := &fakeAPI{domain: []metaview.DomainStatus{metaview.DomainPending, metaview.DomainVerified}}
	app, out, errb := newApp(api)
	if err := app.Run(context.Background(), []string{"verify", "--domain-id", "dom_1", "--method", "dns"}); err != nil {
		t.Fatalf("verify: %v\n%s", err, errb.String())
	}
	kit.MustContain(t, out.String(), "token: mv-verify=t0k")
	kit.MustContain(t, out.String(), "verified example.com after 2 checks")
}

func TestVerifyNoWait(t *testing.T) {
	api := &fakeAPI{domain: []metaview.DomainStatus{metaview.DomainPending}}
	app, out, _ := newApp(api)
	if err := app.Run(context.Background(), []string{"verify", "--domain-id", "dom_1", "--method", "html", "--no-wait"}); err != nil {
		t.Fatal(err)
	}
	kit.MustContain(t, out.String(), "mv-verify=t0k")
	kit.MustContain(t, out.String(), "again once the record is published")
	if api.checks.Load() != 0 {
		t.Fatalf("--no-wait must not check, got %d", api.checks.Load())
	}
}

func TestVerifyGivesUp(t *testing.T) {
	api := &fakeAPI{domain: []metaview.DomainStatus{metaview.DomainPending, metaview.DomainFailed}}
	app, _, errb := newApp(api)
	err := app.Run(context.Background(), []string{"verify", "--domain-id", "dom_1"})
	if perr.CodeOf(err) != perr.ErrorCodeTimeout {
		t.Fatalf("got %v", err)
	}
	kit.MustContain(t, err.Error(), "gave up after 3 attempts")
	kit.MustContain(t, errb.String(), "not_found")
	kit.MustContain(t, errb.String(), "metaview debug --domain-id dom_1")
	if api.checks.Load() != 3 {
		t.Fatalf("checks %d", api.checks.Load())
	}
}

func TestVerifyRejectsUnknownMethod(t *testing.T) {
	app, _, _ := newApp(&fakeAPI{})
	err := app.Run(context.Background(), []string{"verify", "--domain-id", "dom_1", "--method", "smtp"})
	if ExitCode(err) != ExitUsage {
		t.Fatalf("got %v", err)
	}
}

func TestDebug(t *testing.T) {
	app, out, _ := newApp(&fakeAPI{})
	if err := app.Run(context.Background(), []string{"debug", "--domain-id", "dom_1"}); err != nil {
		t.Fatal(err)
	}
	kit.MustContain(t, out.String(), "expected: mv-verify=t0k")
	kit.MustContain(t, out.String(), "v=spf1 -all")
	kit.MustContain(t, out.String(), "not verified")

	if err := app.Run(context.Background(), []string{"debug"}); ExitCode(err) != ExitUsage {
		t.Fatalf("missing id got %v", err)
	}
}

func TestLists(t *testing.T) {
	api := &fakeAPI{
		domains:  []metaview.Domain{{ID: "dom_1", Domain: "example.com", Status: metaview.DomainVerified, VerificationMethod: metaview.MethodDNS}},
		previews: []metaview.Preview{{ID: "pv_1", URL: "https://example.com/", Title: "Example"}},
	}
	app, out, _ := newApp(api)

	if err := app.Run(context.Background(), []string{"domains"}); err != nil {
		t.Fatal(err)
	}
	kit.MustContain(t, out.String(), "DOMAIN")
	kit.MustContain(t, out.String(), "example.com")

	out.Reset()
	if err := app.Run(context.Background(), []string{"previews", "--json"}); err != nil {
		t.Fatal(err)
	}
	kit.MustContain(t, out.String(), `"id": "pv_1"`)

	empty, out2, _ := newApp(&fakeAPI{})
	if err := empty.Run(context.Background(), []string{"domains", "--json"}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out2.String()) != "[]" {
		t.Fatalf("empty list json %q", out2.String())
	}
}

func TestDispatch(t *testing.T) {
	app, out, _ := newApp(nil)
	if err := app.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	kit.MustContain(t, out.String(), "Commands:")

	if err := app.Run(context.Background(), []string{"frobnicate"}); ExitCode(err) != ExitUsage {
		t.Fatalf("unknown command got %v", err)
	}
	if err := app.Run(context.Background(), []string{"domains"}); !errors.Is(err, ErrNoAPI) {
		t.Fatalf("no api got %v", err)
	}
	if err := app.Run(context.Background(), []string{"domains", "-h"}); ExitCode(err) != ExitOK || !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("help got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{ErrCancelled, ExitCancelled},
		{context.Canceled, ExitCancelled},
		{perr.Validationf("bad"), ExitUsage},
		{perr.Newf(perr.ErrorCodeTimeout, "gave up"), ExitFailure},
		{errors.New("boom"), ExitFailure},
	}
	for _, tc := range tests {
		if got := ExitCode(tc.err); got != tc.want {
			t.Errorf("ExitCode(%v) = %d want %d", tc.err, got, tc.want)
		}
	}
}

func TestProgressModel(t *testing.T) {
	m := newProgressModel("preview")
	next, _ := m.Update(frameMsg{Status: "generating preview, attempt 2/80"})
	kit.MustContain(t, next.View(), "attempt 2/80")

	next, cmd := next.Update(frameMsg{Status: "preview ready", Done: true})
	if cmd == nil || next.View() != "" {
		t.Fatalf("done frame should quit and clear the line")
	}
}
