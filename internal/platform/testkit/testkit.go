// Package testkit provides testing helpers shared across packages
package testkit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// MustPanic asserts that fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
}

// MustContain asserts that haystack contains needle; on failure the haystack is written to a temp file
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		tmpfile := filepath.Join(t.TempDir(), "output.txt")
		_ = os.WriteFile(tmpfile, []byte(haystack), 0o600)
		t.Fatalf("expected output to contain %q\n\nfull output written to %s", needle, tmpfile)
	}
}

// Swap replaces a package-level seam for the duration of the test
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// WaitTimeout bounds every blocking wait in tests that drive goroutines
const WaitTimeout = 5 * time.Second

// Step waits until a goroutine is parked on the fake clock, then advances it by d
func Step(t *testing.T, fc *clockwork.FakeClock, d time.Duration) {
	t.Helper()
	StepN(t, fc, 1, d)
}

// StepN waits until n timers are armed on the fake clock, then advances it by d.
// Use it when the code under test keeps long-lived timers (a run deadline) beside its sleep
func StepN(t *testing.T, fc *clockwork.FakeClock, n int, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), WaitTimeout)
	defer cancel()
	if err := fc.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("%d timers not armed on fake clock: %v", n, err)
	}
	fc.Advance(d)
}
