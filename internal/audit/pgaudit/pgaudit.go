// Package pgaudit is a Postgres-backed audit.Sink: it persists
// Backburner begin/end events durably via database/sql, for later
// inspection of how a run-loop behaved.
package pgaudit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/nextlevelbuilder/backburner/internal/audit"
)

// Sink writes every recorded event as one row in backburner_events.
// Writes run on a background goroutine per event — Record never blocks
// the orchestrator that called it.
type Sink struct {
	db *sql.DB
}

// Open connects to dsn and returns a ready Sink. Callers are expected to
// have already run the migrations in internal/audit/migrations against
// the target database (via golang-migrate or an equivalent tool).
func Open(dsn string) (*Sink, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("pgaudit: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgaudit: ping: %w", err)
	}
	return &Sink{db: db}, nil
}

// Record persists ev asynchronously. Failures are logged, not returned,
// since audit.Sink.Record has no error return by design (see the
// audit.Sink doc: a sink must never block the flush).
func (s *Sink) Record(ctx context.Context, ev audit.Event) {
	go s.insert(ctx, ev)
}

func (s *Sink) insert(ctx context.Context, ev audit.Event) {
	depths, err := json.Marshal(ev.QueueDepths)
	if err != nil {
		slog.Warn("pgaudit: marshal queue depths failed", "error", err)
		depths = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO backburner_events (kind, correlation_id, occurred_at, queue_depths)
		 VALUES ($1, $2, $3, $4)`,
		ev.Kind, nilUUID(ev.CorrelationID), ev.Timestamp, depths)
	if err != nil {
		slog.Warn("pgaudit: insert failed", "kind", ev.Kind, "error", err)
	}
}

// Close releases the underlying connection pool.
func (s *Sink) Close() error {
	return s.db.Close()
}
