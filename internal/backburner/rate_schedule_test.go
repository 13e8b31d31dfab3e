package backburner

import (
	"testing"
	"time"
)

func TestDebounceTrailingCollapsesBurstToLastArgs(t *testing.T) {
	b := newTestBackburner()
	var calls []string
	method := func(args ...any) { calls = append(calls, args[0].(string)) }

	if _, err := b.Debounce(method, "a", 30*time.Millisecond); err != nil {
		t.Fatalf("Debounce: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := b.Debounce(method, "b", 30*time.Millisecond); err != nil {
		t.Fatalf("Debounce: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := b.Debounce(method, "c", 30*time.Millisecond); err != nil {
		t.Fatalf("Debounce: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if len(calls) != 1 || calls[0] != "c" {
		t.Fatalf("expected a single trailing call with the last args, got %v", calls)
	}
}

func TestDebounceImmediateFiresLeadingAndSwallowsRepeats(t *testing.T) {
	b := newTestBackburner()
	var calls []string
	method := func(args ...any) { calls = append(calls, args[0].(string)) }

	if _, err := b.Debounce(method, "a", 30*time.Millisecond, true); err != nil {
		t.Fatalf("Debounce: %v", err)
	}
	if len(calls) != 1 || calls[0] != "a" {
		t.Fatalf("expected the leading call to fire immediately, got %v", calls)
	}

	if _, err := b.Debounce(method, "b", 30*time.Millisecond, true); err != nil {
		t.Fatalf("Debounce: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected the repeat call inside the window to be swallowed, got %v", calls)
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := b.Debounce(method, "c", 30*time.Millisecond, true); err != nil {
		t.Fatalf("Debounce: %v", err)
	}
	if len(calls) != 2 || calls[1] != "c" {
		t.Fatalf("expected a new leading call once the window elapsed, got %v", calls)
	}
}

// TestThrottleDefaultImmediateFiresOnceAndNeverTrails exercises spec.md
// §4.6 scenario 5: with immediate defaulting to true, only the leading
// call fires; suppressed calls inside the window never produce a
// trailing execution.
func TestThrottleDefaultImmediateFiresOnceAndNeverTrails(t *testing.T) {
	b := newTestBackburner()
	var calls []string
	method := func(args ...any) { calls = append(calls, args[0].(string)) }

	if _, err := b.Throttle(method, "a", 40*time.Millisecond); err != nil {
		t.Fatalf("Throttle: %v", err)
	}
	if len(calls) != 1 || calls[0] != "a" {
		t.Fatalf("expected the leading call to fire immediately, got %v", calls)
	}

	if _, err := b.Throttle(method, "b", 40*time.Millisecond); err != nil {
		t.Fatalf("Throttle: %v", err)
	}
	if _, err := b.Throttle(method, "c", 40*time.Millisecond); err != nil {
		t.Fatalf("Throttle: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected calls inside the window to be suppressed, got %v", calls)
	}

	time.Sleep(100 * time.Millisecond)
	if len(calls) != 1 {
		t.Fatalf("expected no trailing call when immediate is true, got %v", calls)
	}
}

func TestThrottleNonImmediateCoalescesIntoSingleTrailingCall(t *testing.T) {
	b := newTestBackburner()
	var calls []string
	method := func(args ...any) { calls = append(calls, args[0].(string)) }

	if _, err := b.Throttle(method, "a", 40*time.Millisecond, false); err != nil {
		t.Fatalf("Throttle: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no leading call when immediate is false, got %v", calls)
	}

	if _, err := b.Throttle(method, "b", 40*time.Millisecond, false); err != nil {
		t.Fatalf("Throttle: %v", err)
	}
	if _, err := b.Throttle(method, "c", 40*time.Millisecond, false); err != nil {
		t.Fatalf("Throttle: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected calls inside the window to coalesce, not fire immediately, got %v", calls)
	}

	time.Sleep(100 * time.Millisecond)
	if len(calls) != 1 || calls[0] != "c" {
		t.Fatalf("expected one trailing call with the most recent args, got %v", calls)
	}
}

func TestThrottleCancelStopsTrailingFire(t *testing.T) {
	b := newTestBackburner()
	var calls []string
	method := func(args ...any) { calls = append(calls, args[0].(string)) }

	h, err := b.Throttle(method, "a", 30*time.Millisecond, false)
	if err != nil {
		t.Fatalf("Throttle: %v", err)
	}
	if !b.Cancel(h) {
		t.Fatal("expected Cancel to succeed")
	}

	time.Sleep(60 * time.Millisecond)
	if len(calls) != 0 {
		t.Fatalf("expected the cancelled window to produce no call at all, got %v", calls)
	}
}
