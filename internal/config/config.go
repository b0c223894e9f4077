package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"noticehub/internal/notice"
)

// Config carries the service settings read from the environment.
type Config struct {
	// SoftDelete controls whether recipient-initiated deletes keep the
	// row with a deleted marker or remove it physically.
	SoftDelete bool

	// DispatchConcurrency bounds parallel channel delivery per batch.
	DispatchConcurrency int

	// SystemActor is the designated actor stamped on fan-out events
	// that carry none. An empty id means "use the first admin account".
	SystemActor notice.EntityRef

	JWTSecret string
	RedisAddr string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
}

// Load reads the environment, honoring a local .env file when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}

	return &Config{
		SoftDelete:          getBool("SOFT_DELETE", true),
		DispatchConcurrency: getInt("DISPATCH_CONCURRENCY", 10),
		SystemActor: notice.EntityRef{
			Kind: getEnv("SYSTEM_ACTOR_KIND", "user"),
			ID:   os.Getenv("SYSTEM_ACTOR_ID"),
		},
		JWTSecret:    getEnv("JWT_SECRET", ""),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPFrom:     getEnv("SMTP_FROM", "NoticeHub <noreply@noticehub.local>"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
	}
}

// DatabaseURL builds the Postgres connection URL used by the migration
// runner, from the same environment keys InitDB reads.
func DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "noticehub"))
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("Invalid boolean environment variable", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer environment variable", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}
