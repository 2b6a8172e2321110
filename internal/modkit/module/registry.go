package module

import (
	"sort"
	"sync"
)

// process wide registry so modules can find each other's ports after bootstrap
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores a port set for a module name, replacing any earlier one
func Register(name string, ports any) {
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// PortsAs fetches and type asserts a port set for name
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

// Each calls fn for every registered port set that implements T, in name order
func Each[T any](fn func(name string, port T)) {
	mu.RLock()
	names := make([]string, 0, len(reg))
	for n := range reg {
		names = append(names, n)
	}
	snapshot := make(map[string]any, len(reg))
	for k, v := range reg {
		snapshot[k] = v
	}
	mu.RUnlock()

	sort.Strings(names)
	for _, n := range names {
		if p, ok := snapshot[n].(T); ok {
			fn(n, p)
		}
	}
}

// Reset clears the registry for tests
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
