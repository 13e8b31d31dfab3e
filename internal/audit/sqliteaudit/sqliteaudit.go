// Package sqliteaudit is the fallback audit.Sink used when no Postgres
// DSN is configured: same schema as pgaudit, a local SQLite file.
package sqliteaudit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/nextlevelbuilder/backburner/internal/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS backburner_events (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	kind           TEXT NOT NULL,
	correlation_id TEXT,
	occurred_at    DATETIME NOT NULL,
	queue_depths   TEXT NOT NULL DEFAULT '{}'
);
`

// Sink writes every recorded event as one row in a local SQLite
// database file, matching pgaudit's schema.
type Sink struct {
	db *sql.DB
}

// Open creates (if needed) and opens the SQLite file at path, applying
// the schema in-process rather than through golang-migrate — there is
// only ever one migration here and no separate deployment step for a
// local file.
func Open(path string) (*Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqliteaudit: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqliteaudit: apply schema: %w", err)
	}
	return &Sink{db: db}, nil
}

// Record persists ev asynchronously; failures are logged, not returned.
func (s *Sink) Record(ctx context.Context, ev audit.Event) {
	go s.insert(ctx, ev)
}

func (s *Sink) insert(ctx context.Context, ev audit.Event) {
	depths, err := json.Marshal(ev.QueueDepths)
	if err != nil {
		slog.Warn("sqliteaudit: marshal queue depths failed", "error", err)
		depths = []byte("{}")
	}

	var corrID any
	if ev.CorrelationID != uuid.Nil {
		corrID = ev.CorrelationID.String()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO backburner_events (kind, correlation_id, occurred_at, queue_depths)
		 VALUES (?, ?, ?, ?)`,
		ev.Kind, corrID, ev.Timestamp.Format(time.RFC3339Nano), depths)
	if err != nil {
		slog.Warn("sqliteaudit: insert failed", "kind", ev.Kind, "error", err)
	}
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}
