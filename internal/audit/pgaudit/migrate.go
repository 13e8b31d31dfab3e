package pgaudit

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // registers the "postgres://" migrate driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/nextlevelbuilder/backburner/internal/audit/migrations"
)

// Migrate applies every pending migration in internal/audit/migrations
// to dsn. It is idempotent: running it against an already-migrated
// database is a no-op.
func Migrate(dsn string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("pgaudit: migrations source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("pgaudit: migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("pgaudit: migrate up: %w", err)
	}
	return nil
}
