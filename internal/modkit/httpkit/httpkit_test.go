package httpkit_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"metaview/internal/modkit/httpkit"
	perr "metaview/internal/platform/errors"
	phttp "metaview/internal/platform/net/http"
	"metaview/internal/platform/net/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

type createIn struct {
	URL string `json:"url" validate:"required"`
}

func newAPI(t *testing.T, port *httpkit.Port) http.Handler {
	t.Helper()
	r := phttp.AdaptChi(chi.NewRouter())
	r.Use(httpkit.CommonStack(httpkit.StackOptions{})...)
	httpkit.MountAPIV1(r, nil, func(api httpkit.Router) {
		httpkit.MountUnder(api, "/things", nil, func(sub httpkit.Router) {
			var p middleware.AuthPort
			if port != nil {
				p = port
			}
			httpkit.Protected(sub, p, func(pr httpkit.Router) {
				httpkit.PostJSON(pr, "/", func(_ *http.Request, in createIn) (any, error) {
					return httpkit.Created(map[string]string{"url": in.URL}), nil
				})
				httpkit.Get(pr, "/{id}", func(r *http.Request) (any, error) {
					if httpkit.Param(r, "id") == "missing" {
						return nil, perr.NotFoundf("thing missing not found")
					}
					return map[string]string{"id": httpkit.Param(r, "id")}, nil
				})
				httpkit.Delete(pr, "/{id}", func(*http.Request) (any, error) { return httpkit.NoContent(), nil })
			})
		})
	})
	return r.Mux()
}

func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutesAndEnvelope(t *testing.T) {
	h := newAPI(t, nil)

	rec := do(h, http.MethodPost, "/api/v1/things", `{"url":"example.com"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %d %s", rec.Code, rec.Body.String())
	}
	var env httpkit.Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if env.RequestID == "" || env.Data == nil {
		t.Fatalf("envelope %+v", env)
	}

	if rec := do(h, http.MethodPost, "/api/v1/things", `{}`, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("validation %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/api/v1/things/missing", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("not found %d", rec.Code)
	}
	if rec := do(h, http.MethodDelete, "/api/v1/things/a", "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("heartbeat %d", rec.Code)
	}
}

func TestProtectedStaticToken(t *testing.T) {
	h := newAPI(t, httpkit.NewPortFunc(httpkit.StaticToken("s3cret")))

	if rec := do(h, http.MethodGet, "/api/v1/things/a", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/api/v1/things/a", "", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/api/v1/things/a", "", "s3cret"); rec.Code != http.StatusOK {
		t.Fatalf("good token %d", rec.Code)
	}
}

func TestPortParse(t *testing.T) {
	p := httpkit.NewPortFunc(func(tok string) (string, error) { return "sub-" + tok, nil })
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"bearer abc", "sub-abc", true},
		{"  BEARER   xyz ", "sub-xyz", true},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tc.header)
		sub, err := p.Parse(req)
		if (err == nil) != tc.ok || sub != tc.want {
			t.Fatalf("header %q: got %q, %v", tc.header, sub, err)
		}
		if err != nil && perr.CodeOf(err) != perr.ErrorCodeUnauthorized {
			t.Fatalf("header %q: code %v", tc.header, perr.CodeOf(err))
		}
	}

	if _, err := httpkit.NewPortFunc(nil).Parse(func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer x")
		return r
	}()); err == nil {
		t.Fatalf("nil parser must reject")
	}
}

func TestHMACToken(t *testing.T) {
	secret := []byte("k")
	sign := func(claims jwt.RegisteredClaims, method jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))
	parse := httpkit.HMACToken(secret)

	if sub, err := parse(sign(jwt.RegisteredClaims{Subject: "ana", ExpiresAt: future}, jwt.SigningMethodHS256)); err != nil || sub != "ana" {
		t.Fatalf("valid token: %q %v", sub, err)
	}
	bad := []string{
		sign(jwt.RegisteredClaims{Subject: "ana", ExpiresAt: past}, jwt.SigningMethodHS256),
		sign(jwt.RegisteredClaims{Subject: "ana"}, jwt.SigningMethodHS256),
		sign(jwt.RegisteredClaims{ExpiresAt: future}, jwt.SigningMethodHS256),
		sign(jwt.RegisteredClaims{Subject: "ana", ExpiresAt: future}, jwt.SigningMethodHS512),
		"not-a-jwt",
	}
	for i, tok := range bad {
		if _, err := parse(tok); err == nil {
			t.Fatalf("bad token %d accepted", i)
		}
	}
}
