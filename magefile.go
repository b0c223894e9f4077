//go:build mage

package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"

	"github.com/joho/godotenv"

	"noticehub/internal/config"
	"noticehub/internal/migrations"
)

const migrationsDir = "internal/migrations/migrations"

// MigrateUp runs all pending migrations
func MigrateUp() error {
	if err := loadEnv(); err != nil {
		return err
	}

	cmd := exec.Command("migrate", "-path", migrationsDir, "-database", config.DatabaseURL(), "up")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// MigrateDown rolls back the last migration using the embedded schema files
func MigrateDown() error {
	if err := loadEnv(); err != nil {
		return err
	}
	return migrations.Down()
}

// MigrateCreate creates new migration files
func MigrateCreate(name string) error {
	if name == "" {
		return fmt.Errorf("migration name is required")
	}

	cmd := exec.Command("migrate", "create", "-ext", "sql", "-dir", migrationsDir, "-seq", name)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// MigrateVersion prints the current schema version of the configured database
func MigrateVersion() error {
	if err := loadEnv(); err != nil {
		return err
	}
	version, dirty, err := migrations.Version()
	if err != nil {
		return err
	}
	fmt.Printf("version: %d dirty: %v\n", version, dirty)
	return nil
}

// Helper functions

func loadEnv() error {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	return nil
}

