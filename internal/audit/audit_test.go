package audit

import (
	"context"
	"testing"

	"github.com/nextlevelbuilder/backburner/internal/backburner"
)

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Record(ctx context.Context, ev Event) {
	s.events = append(s.events, ev)
}

func TestSubscribeRecordsBeginAndEnd(t *testing.T) {
	b := backburner.New([]string{"actions"})
	sink := &recordingSink{}

	unsubscribe, err := Subscribe(b, sink)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	if err := b.Run(func() {}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events (begin, end), got %d", len(sink.events))
	}
	if sink.events[0].Kind != "begin" || sink.events[1].Kind != "end" {
		t.Fatalf("expected [begin end], got %v", []string{sink.events[0].Kind, sink.events[1].Kind})
	}
}

func TestUnsubscribeStopsRecording(t *testing.T) {
	b := backburner.New([]string{"actions"})
	sink := &recordingSink{}

	unsubscribe, err := Subscribe(b, sink)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	unsubscribe()

	if err := b.Run(func() {}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("expected no events after unsubscribe, got %d", len(sink.events))
	}
}

func TestMultiSinkFansOutToEverySink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	multi := MultiSink{a, b}

	multi.Record(context.Background(), Event{Kind: "begin"})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both sinks to receive the event, got a=%d b=%d", len(a.events), len(b.events))
	}
}

func TestRecordCapturesQueueDepthsWhenInstancePresent(t *testing.T) {
	bb := backburner.New([]string{"actions"})
	sink := &recordingSink{}
	unsubscribe, err := Subscribe(bb, sink)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	if _, err := bb.Schedule("actions", func() {}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	// Join the autorun instance so its pending host-turn End is disarmed
	// before ending it explicitly.
	bb.Begin()
	if err := bb.End(); err != nil {
		t.Fatalf("End: %v", err)
	}

	if len(sink.events) == 0 {
		t.Fatal("expected at least one recorded event")
	}
	beginEvent := sink.events[0]
	if beginEvent.QueueDepths == nil {
		t.Fatal("expected QueueDepths to be populated on the begin event")
	}
}
