// Package redisaudit is a fan-out audit.Sink: it publishes every event
// as JSON on a Redis pub/sub channel for live dashboards, with no
// durability guarantee of its own.
package redisaudit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nextlevelbuilder/backburner/internal/audit"
)

// Sink publishes every recorded event to one Redis channel.
type Sink struct {
	client  *redis.Client
	channel string
}

// Open connects to addr and returns a Sink that publishes on channel.
func Open(addr, channel string) *Sink {
	return &Sink{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
	}
}

type wireEvent struct {
	Kind          string         `json:"kind"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	OccurredAt    string         `json:"occurred_at"`
	QueueDepths   map[string]int `json:"queue_depths"`
}

// Record publishes ev asynchronously; failures are logged, not
// returned.
func (s *Sink) Record(ctx context.Context, ev audit.Event) {
	go s.publish(ctx, ev)
}

func (s *Sink) publish(ctx context.Context, ev audit.Event) {
	we := wireEvent{
		Kind:        ev.Kind,
		OccurredAt:  ev.Timestamp.Format("2006-01-02T15:04:05.000000000Z07:00"),
		QueueDepths: ev.QueueDepths,
	}
	if ev.CorrelationID != uuid.Nil {
		we.CorrelationID = ev.CorrelationID.String()
	}

	payload, err := json.Marshal(we)
	if err != nil {
		slog.Warn("redisaudit: marshal failed", "error", err)
		return
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		slog.Warn("redisaudit: publish failed", "channel", s.channel, "error", err)
	}
}

// Close releases the underlying Redis client.
func (s *Sink) Close() error {
	return s.client.Close()
}
