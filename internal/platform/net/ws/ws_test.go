package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		origin   string
		want     bool
	}{
		{"no origin", nil, "", true},
		{"loopback default", nil, "http://localhost:5173", true},
		{"loopback ip default", nil, "http://127.0.0.1:3000", true},
		{"foreign default", nil, "https://evil.example", false},
		{"explicit", []string{"https://app.metaview.dev"}, "https://app.metaview.dev", true},
		{"explicit miss", []string{"https://app.metaview.dev"}, "http://localhost:5173", false},
		{"wildcard", []string{"*"}, "https://anything.example", true},
		{"garbage", nil, "::", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			if got := originChecker(tc.patterns)(r); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

type frame struct {
	N int `json:"n"`
}

func TestStreamWritesOnChangeAndClosesWithSession(t *testing.T) {
	changes := make(chan struct{}, 1)
	var n atomic.Int32
	done := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done <- Stream(w, r, changes, func() any { return frame{N: int(n.Add(1))} }, Options{})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var f frame
	if err := conn.ReadJSON(&f); err != nil || f.N != 1 {
		t.Fatalf("initial frame %+v %v", f, err)
	}
	changes <- struct{}{}
	if err := conn.ReadJSON(&f); err != nil || f.N != 2 {
		t.Fatalf("change frame %+v %v", f, err)
	}

	close(changes)
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("want normal close, got %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stream returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not return")
	}
}
