package sqlite

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/eas/internal/session/drivers/sqlite/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

// ErrDirtySchema means an earlier migration stopped halfway. The database
// file has to be removed (or repaired by hand) before the store can be used.
var ErrDirtySchema = errors.New("sqlite: session schema is dirty")

// ApplyMigrations brings the schema up to date with the embedded migrations
// and returns the resulting schema version.
func (s *Store) ApplyMigrations() (uint, error) {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return 0, err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return 0, err
	}

	m, err := migrate.NewWithInstance("iofs", source, "", driver)
	if err != nil {
		return 0, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			return uint(dirty.Version), fmt.Errorf("%w at version %d", ErrDirtySchema, dirty.Version)
		}
		return 0, err
	}

	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
