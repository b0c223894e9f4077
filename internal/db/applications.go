package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"noticehub/utils"
)

// Application is one tenant of the service. Server-side callers
// authenticate with an API key issued at provisioning time; only its
// bcrypt hash is stored.
type Application struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	APIKeyHash string    `db:"api_key_hash" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ErrInvalidAPIKey covers malformed keys, unknown applications, and
// secrets that do not match, without distinguishing between them.
var ErrInvalidAPIKey = errors.New("invalid API key")

const apiKeyPrefix = "nh"

type ApplicationStore struct {
	db *sqlx.DB
}

func NewApplicationStore(db *sqlx.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

// Create provisions an application and issues its API key. The plain key
// is returned exactly once; only the hash survives.
func (s *ApplicationStore) Create(ctx context.Context, name string) (*Application, string, error) {
	secret, err := utils.RandomToken(40)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash API key: %w", err)
	}

	app := &Application{Name: name, APIKeyHash: string(hash)}
	err = s.db.GetContext(ctx, app, `
		INSERT INTO applications (name, api_key_hash)
		VALUES ($1, $2)
		RETURNING *`, name, string(hash))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create application: %w", err)
	}

	// Keys are self-describing: prefix, application id, secret.
	key := fmt.Sprintf("%s_%d_%s", apiKeyPrefix, app.ID, secret)
	return app, key, nil
}

// Authenticate verifies an API key and returns the application it
// belongs to.
func (s *ApplicationStore) Authenticate(ctx context.Context, key string) (*Application, error) {
	parts := strings.SplitN(key, "_", 3)
	if len(parts) != 3 || parts[0] != apiKeyPrefix {
		return nil, ErrInvalidAPIKey
	}
	appID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, ErrInvalidAPIKey
	}

	var app Application
	err = s.db.GetContext(ctx, &app, `SELECT * FROM applications WHERE id = $1`, appID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("failed to load application: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(app.APIKeyHash), []byte(parts[2])) != nil {
		return nil, ErrInvalidAPIKey
	}
	return &app, nil
}
