// Package database applies schema migrations at process start.
package database

import (
	"errors"
	"fmt"

	"github.com/trellishq/trellis/backend/internal/util"
	"github.com/trellishq/trellis/backend/pkg/logger"

	"github.com/golang-migrate/migrate/v4"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate brings the schema at databaseURL up to the latest version
// found under sourceURL. An already current schema is not an error.
func Migrate(databaseURL, sourceURL string) error {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("opening migration source: %w", err)
	}
	defer m.Close()

	version, dirty, _ := m.Version()
	if dirty {
		return fmt.Errorf("schema is dirty at version %d, refusing to migrate", version)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("[Database][Migrate] Schema already current", "version", version)
			return nil
		}
		return fmt.Errorf("applying migrations: %w", err)
	}

	newVersion, _, _ := m.Version()
	logger.Info("[Database][Migrate] Schema migrated", "from", version, "to", newVersion)
	return nil
}

// MigrateFromEnv runs Migrate with DATABASE_URL and MIGRATIONS_URL,
// defaulting the source to the migrations directory next to the binary.
func MigrateFromEnv() error {
	sourceURL := util.GetEnvString("MIGRATIONS_URL", "file://migrations")
	return Migrate(util.GetEnv("DATABASE_URL"), sourceURL)
}
