package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"noticehub/internal/notice"
)

// Device is one push-capable endpoint registered by a recipient under an
// application scope.
type Device struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	ApplicationID int64     `db:"application_id" json:"-"`
	Platform      string    `db:"platform" json:"platform"`
	Token         string    `db:"token" json:"token"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

var validPlatforms = map[string]bool{
	"FCM": true, "APNS": true, "GCM": true, "WNS": true, "WP": true,
}

// DeviceStore owns device registrations. The core only consumes it to
// answer "does this recipient have an active device for platform P".
type DeviceStore struct {
	db *sqlx.DB
}

func NewDeviceStore(db *sqlx.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

// Register upserts a device token. Re-registering a token reactivates it
// and moves it to the current user.
func (s *DeviceStore) Register(ctx context.Context, d *Device) error {
	if !validPlatforms[d.Platform] {
		return fmt.Errorf("unknown device platform %q", d.Platform)
	}

	err := s.db.GetContext(ctx, &d.ID, `
		INSERT INTO devices (user_id, application_id, platform, token, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (application_id, token) DO UPDATE
			SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, active = TRUE
		RETURNING id`,
		d.UserID, d.ApplicationID, d.Platform, d.Token)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	d.Active = true
	return nil
}

// Deactivate turns off a device the user owns.
func (s *DeviceStore) Deactivate(ctx context.Context, deviceID, userID, applicationID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE devices SET active = FALSE
		WHERE id = $1 AND user_id = $2 AND application_id = $3`,
		deviceID, userID, applicationID)
	if err != nil {
		return fmt.Errorf("failed to deactivate device: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check device update: %w", err)
	}
	if affected == 0 {
		return notice.ErrNotFound
	}
	return nil
}

// ActivePlatforms reports which platforms the user has at least one
// active device on, under the application.
func (s *DeviceStore) ActivePlatforms(ctx context.Context, userID, applicationID int64) (map[string]bool, error) {
	var platforms []string
	err := s.db.SelectContext(ctx, &platforms, `
		SELECT DISTINCT platform FROM devices
		WHERE user_id = $1 AND application_id = $2 AND active = TRUE`,
		userID, applicationID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query device platforms: %w", err)
	}

	out := make(map[string]bool, len(platforms))
	for _, p := range platforms {
		out[p] = true
	}
	return out, nil
}

// ActiveTokens returns the active device tokens of the user for one
// platform under the application.
func (s *DeviceStore) ActiveTokens(ctx context.Context, userID, applicationID int64, platform string) ([]string, error) {
	var tokens []string
	err := s.db.SelectContext(ctx, &tokens, `
		SELECT token FROM devices
		WHERE user_id = $1 AND application_id = $2 AND platform = $3 AND active = TRUE`,
		userID, applicationID, platform)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	return tokens, nil
}
