package normalize

import (
	"strings"
	"testing"

	perr "metaview/internal/platform/errors"
)

func TestText_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"identity", "example.com", "example.com"},
		{"trim", "  example.com\t", "example.com"},
		{"drop controls", "exa\x00mple\x7f.com", "example.com"},
		{"drop zero-width", "exa\u200bmple.com\ufeff", "example.com"},
		{"nfc compose", "cafe\u0301", "caf\u00e9"},
		{"invalid utf8", string([]byte{0xff, 'a', 0x80}), "a"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.out {
				t.Fatalf("Text(%q) = %q, want %q", tt.in, got, tt.out)
			}
		})
	}
}

func TestURL_Table(t *testing.T) {
	tests := []struct {
		in   string
		out  string
		fail bool
	}{
		{in: "  example.com ", out: "https://example.com"},
		{in: "HTTP://Example.COM/Path?q=1#frag", out: "http://example.com/Path?q=1"},
		{in: "https://example.com:8443/a", out: "https://example.com:8443/a"},
		{in: "https://user:pw@example.com/", out: "https://example.com/"},
		{in: "bücher.de/katalog", out: "https://xn--bcher-kva.de/katalog"},
		{in: "", fail: true},
		{in: "   ", fail: true},
		{in: "ftp://example.com", fail: true},
		{in: "https:///path-only", fail: true},
	}
	for _, tt := range tests {
		got, err := URL(tt.in)
		if tt.fail {
			if err == nil {
				t.Fatalf("URL(%q) = %q, want error", tt.in, got)
			}
			if e, ok := perr.As(err); !ok || e.Code() != perr.ErrorCodeValidation || e.Field() != "url" {
				t.Fatalf("URL(%q) error = %v, want validation on field url", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("URL(%q): %v", tt.in, err)
		}
		if got != tt.out {
			t.Fatalf("URL(%q) = %q, want %q", tt.in, got, tt.out)
		}
	}
}

func TestDomain_Table(t *testing.T) {
	tests := []struct {
		in   string
		out  string
		fail bool
	}{
		{in: "Example.com", out: "example.com"},
		{in: "https://www.Example.com/path?x=1", out: "example.com"},
		{in: "example.com.", out: "example.com"},
		{in: "shop.example.com:8080", out: "shop.example.com"},
		{in: "bücher.de", out: "xn--bcher-kva.de"},
		{in: "", fail: true},
		{in: "localhost", fail: true},
		{in: "exa mple.com", fail: true},
		{in: "a..b.com", fail: true},
		{in: strings.Repeat("a", 64) + ".com", fail: true},
	}
	for _, tt := range tests {
		got, err := Domain(tt.in)
		if tt.fail {
			if err == nil {
				t.Fatalf("Domain(%q) = %q, want error", tt.in, got)
			}
			if !perr.IsCode(err, perr.ErrorCodeValidation) {
				t.Fatalf("Domain(%q) error code = %s", tt.in, perr.CodeOf(err))
			}
			continue
		}
		if err != nil {
			t.Fatalf("Domain(%q): %v", tt.in, err)
		}
		if got != tt.out {
			t.Fatalf("Domain(%q) = %q, want %q", tt.in, got, tt.out)
		}
	}
}
