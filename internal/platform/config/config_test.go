package config

import (
	"testing"
	"time"

	kit "metaview/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	api := New().Prefix("METAVIEW_").Prefix("API_")
	if got := api.Key("URL"); got != "METAVIEW_API_URL" {
		t.Fatalf("Key() = %q, want %q", got, "METAVIEW_API_URL")
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("MV_")
	t.Setenv("MV_TOKEN", "  abc ")
	if got := c.MustString("TOKEN"); got != "abc" {
		t.Fatalf("MustString = %q, want %q", got, "abc")
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustURL(t *testing.T) {
	c := New().Prefix("MV_")
	t.Setenv("MV_API_URL", "https://api.metaview.test/v1")
	if u := c.MustURL("API_URL"); u.Host != "api.metaview.test" {
		t.Fatalf("MustURL host = %q", u.Host)
	}
	for _, bad := range []string{"/relative", "ftp://x.test", "://bad"} {
		t.Setenv("MV_BAD", bad)
		kit.MustPanic(t, func() { _ = c.MustURL("BAD") })
	}
}

func TestMayFallbacks(t *testing.T) {
	c := New().Prefix("MAY_")

	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q", got)
	}
	if got := c.MayInt("MISSING", 9); got != 9 {
		t.Fatalf("MayInt default = %d", got)
	}
	t.Setenv("MAY_INT", "x")
	if got := c.MayInt("INT", 3); got != 3 {
		t.Fatalf("MayInt invalid -> %d, want 3", got)
	}
	t.Setenv("MAY_BOOL", "true")
	if !c.MayBool("BOOL", false) {
		t.Fatalf("MayBool true expected")
	}
	if !c.Has("BOOL") || c.Has("NOPE") {
		t.Fatalf("Has mismatch")
	}
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("DUR_")
	cases := []struct {
		name string
		env  string
		def  time.Duration
		want time.Duration
	}{
		{"missing", "", time.Second, time.Second},
		{"valid", "1500ms", time.Second, 1500 * time.Millisecond},
		{"invalid", "soon", time.Minute, time.Minute},
		{"negative", "-5s", time.Minute, time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DUR_V", tc.env)
			if got := c.MayDuration("V", tc.def); got != tc.want {
				t.Fatalf("MayDuration = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("CSV_")
	t.Setenv("CSV_ORIGINS", " http://a.test, ,http://b.test ,, ")
	got := c.MayCSV("ORIGINS", nil)
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("MayCSV = %#v", got)
	}
	t.Setenv("CSV_EMPTY", " , ")
	if got := c.MayCSV("EMPTY", []string{"*"}); len(got) != 1 || got[0] != "*" {
		t.Fatalf("MayCSV fallback = %#v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	if got := c.MayEnum("MISSING", "json", "json", "console"); got != "json" {
		t.Fatalf("MayEnum default = %q", got)
	}
	t.Setenv("E_FMT", "Console")
	if got := c.MayEnum("FMT", "json", "json", "console"); got != "console" {
		t.Fatalf("MayEnum canonical = %q, want console", got)
	}
	t.Setenv("E_BAD", "xml")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "json", "json", "console") })
}
