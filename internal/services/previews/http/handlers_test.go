package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	perr "metaview/internal/platform/errors"
	phttp "metaview/internal/platform/net/http"
	"metaview/internal/services/previews/domain"
	previewshttp "metaview/internal/services/previews/http"

	"github.com/go-chi/chi/v5"
)

// stubService records which port method each route reached
type stubService struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubService) hit(name, id string) (domain.Session, error) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
	if id != "p1" {
		return domain.Session{}, perr.NotFoundf("preview session %q not found", id)
	}
	return domain.Session{ID: id, View: domain.View{Step: domain.StepGenerating}}, nil
}

func (s *stubService) Create(context.Context, domain.GenerateInput) (domain.Session, error) {
	return s.hit("create", "p1")
}
func (s *stubService) Get(_ context.Context, id string) (domain.Session, error) {
	return s.hit("get", id)
}
func (s *stubService) Retry(_ context.Context, id string) (domain.Session, error) {
	return s.hit("retry", id)
}
func (s *stubService) Dismiss(_ context.Context, id string) (domain.Session, error) {
	return s.hit("dismiss", id)
}
func (s *stubService) Cancel(_ context.Context, id string) (domain.Session, error) {
	return s.hit("cancel", id)
}
func (s *stubService) Delete(_ context.Context, id string) error {
	_, err := s.hit("delete", id)
	return err
}
func (s *stubService) Wizard(id string) (domain.WizardPort, error) {
	return nil, perr.NotFoundf("preview session %q not found", id)
}
func (s *stubService) Sessions() int { return 0 }
func (s *stubService) CloseAll()     {}

func TestRoutes(t *testing.T) {
	svc := &stubService{}
	r := phttp.AdaptChi(chi.NewRouter())
	previewshttp.Register(r, svc, previewshttp.Options{Timeout: time.Second})

	tests := []struct {
		method, path, body string
		want               int
		call               string
	}{
		{http.MethodPost, "/", `{"url":"https://example.com"}`, http.StatusCreated, "create"},
		{http.MethodPost, "/", `{"url":""}`, http.StatusBadRequest, ""},
		{http.MethodGet, "/p1", "", http.StatusOK, "get"},
		{http.MethodGet, "/nope", "", http.StatusNotFound, "get"},
		{http.MethodPost, "/p1/retry", "", http.StatusOK, "retry"},
		{http.MethodPost, "/p1/dismiss", "", http.StatusOK, "dismiss"},
		{http.MethodPost, "/p1/cancel", "", http.StatusOK, "cancel"},
		{http.MethodDelete, "/p1", "", http.StatusNoContent, "delete"},
		{http.MethodGet, "/nope/watch", "", http.StatusNotFound, ""},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			svc.mu.Lock()
			svc.calls = nil
			svc.mu.Unlock()

			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			r.Mux().ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status %d want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
			svc.mu.Lock()
			defer svc.mu.Unlock()
			if tc.call != "" && (len(svc.calls) != 1 || svc.calls[0] != tc.call) {
				t.Fatalf("calls %v want [%s]", svc.calls, tc.call)
			}
		})
	}
}
