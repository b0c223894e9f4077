package migrations

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"noticehub/internal/config"
)

// NewMigrator builds a migrator over the embedded schema files. Callers
// load the environment first (config.Load or the mage helpers).
func NewMigrator() (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(Files, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, config.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}
