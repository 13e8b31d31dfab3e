package backburner

import (
	"errors"
	"testing"
)

func TestScheduleCronRejectsInvalidExpression(t *testing.T) {
	b := newTestBackburner()
	_, err := b.ScheduleCron("actions", "not a cron expr", "", nil, func() {})
	if !errors.Is(err, ErrInvalidCronExpr) {
		t.Fatalf("expected ErrInvalidCronExpr, got %v", err)
	}
}

func TestScheduleCronRejectsInvalidTimezone(t *testing.T) {
	b := newTestBackburner()
	_, err := b.ScheduleCron("actions", "* * * * *", "Not/A_Zone", nil, func() {})
	if err == nil {
		t.Fatal("expected an error for an invalid timezone")
	}
}

func TestScheduleCronArmsATimerUntilCancelled(t *testing.T) {
	b := newTestBackburner()
	h, err := b.ScheduleCron("actions", "* * * * *", "", nil, func() {})
	if err != nil {
		t.Fatalf("ScheduleCron: %v", err)
	}
	if !b.HasTimers() {
		t.Fatal("expected the first tick's Later entry to be armed")
	}
	if !b.Cancel(h) {
		t.Fatal("expected Cancel to succeed")
	}
	if b.HasTimers() {
		t.Fatal("expected cancelling the only pending tick to clear the timer")
	}
}
