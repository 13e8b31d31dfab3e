// Package audit records Backburner instance lifecycle events — not
// scheduled work itself — to a durable or fan-out sink, for later
// inspection of how a run-loop behaved. Persisting the scheduled work
// itself remains explicitly out of scope (see spec.md's Non-goals);
// these sinks only ever observe begin/end events after the fact.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/backburner/internal/backburner"
)

// Event is one recorded begin or end transition.
type Event struct {
	Kind          string    // "begin" or "end"
	CorrelationID uuid.UUID // not filled in by Subscribe: events it records always carry the zero UUID
	Timestamp     time.Time
	QueueDepths   map[string]int
}

// Sink durably records Event. Implementations must not block the
// orchestrator: Record is called synchronously from a begin/end
// subscriber, so an implementation that wants durability should hand
// the event to its own goroutine/buffer rather than await a write here.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// Subscribe wires sink to b's begin and end events. It returns an
// unsubscribe function that removes both registrations.
func Subscribe(b *backburner.Backburner, sink Sink) (func(), error) {
	onBegin := func(current, previous *backburner.DeferredActionQueues) {
		record(sink, "begin", current)
	}
	onEnd := func(justEnded, next *backburner.DeferredActionQueues) {
		record(sink, "end", justEnded)
	}

	if err := b.On(backburner.EventBegin, onBegin); err != nil {
		return nil, err
	}
	if err := b.On(backburner.EventEnd, onEnd); err != nil {
		_ = b.Off(backburner.EventBegin, onBegin)
		return nil, err
	}

	return func() {
		_ = b.Off(backburner.EventBegin, onBegin)
		_ = b.Off(backburner.EventEnd, onEnd)
	}, nil
}

func record(sink Sink, kind string, instance *backburner.DeferredActionQueues) {
	ev := Event{Kind: kind, Timestamp: time.Now()}
	if instance != nil {
		ev.QueueDepths = instance.QueueDepths()
	}
	sink.Record(context.Background(), ev)
}

// MultiSink fans one event out to every sink it wraps, e.g. a durable
// backend plus a live-dashboard publisher.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Record(ctx, ev)
	}
}
