package module

import (
	"testing"

	"metaview/internal/platform/testkit"

	phttp "metaview/internal/platform/net/http"
)

type counter interface{ Count() int }

type fixed int

func (f fixed) Count() int { return int(f) }

type bundle struct {
	Sessions counter
	hidden   counter
}

type fakeModule struct {
	name  string
	ports any
}

func (f fakeModule) MountRoutes(phttp.Router) {}
func (f fakeModule) Ports() any               { return f.ports }
func (f fakeModule) Name() string             { return f.name }

func TestPortsOf(t *testing.T) {
	tests := []struct {
		name  string
		ports any
		want  int
		ok    bool
	}{
		{"nil", nil, 0, false},
		{"direct", fixed(4), 4, true},
		{"field", bundle{Sessions: fixed(2)}, 2, true},
		{"pointer to struct", &bundle{Sessions: fixed(5)}, 5, true},
		{"nil pointer", (*bundle)(nil), 0, false},
		{"unexported only", bundle{hidden: fixed(1)}, 0, false},
		{"not a struct", "x", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := PortsOf[counter](fakeModule{name: "m", ports: tc.ports})
			if ok != tc.ok {
				t.Fatalf("ok %v want %v", ok, tc.ok)
			}
			if ok && got.Count() != tc.want {
				t.Fatalf("count %d want %d", got.Count(), tc.want)
			}
		})
	}
}

func TestMustPortsOfPanics(t *testing.T) {
	testkit.MustPanic(t, func() { MustPortsOf[counter](fakeModule{name: "empty"}) })
}

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("verifications", fixed(2))
	Register("previews", fixed(1))
	Register("meta", "not a counter")

	got, ok := PortsAs[counter]("previews")
	if !ok || got.Count() != 1 {
		t.Fatalf("PortsAs got %v %v", got, ok)
	}
	if _, ok := PortsAs[counter]("meta"); ok {
		t.Fatalf("wrong type should not assert")
	}
	if _, ok := PortsAs[counter]("missing"); ok {
		t.Fatalf("missing name should not resolve")
	}

	var names []string
	Each(func(name string, c counter) { names = append(names, name) })
	if len(names) != 2 || names[0] != "previews" || names[1] != "verifications" {
		t.Fatalf("Each order %v", names)
	}
}
