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

// Broadcast is a reusable, application-scoped mass-notification
// definition that can be sent any number of times.
type Broadcast struct {
	ID            int64     `db:"id" json:"id"`
	ApplicationID int64     `db:"application_id" json:"-"`
	Title         string    `db:"title" json:"title"`
	ImageURL      *string   `db:"image_url" json:"image_url,omitempty"`
	Message       string    `db:"message" json:"message"`
	ActionURL     string    `db:"action_url" json:"action_url"`
	ActionTitle   string    `db:"action_title" json:"action_title"`
	Media         string    `db:"media" json:"media"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	LastSentAt    time.Time `db:"last_sent_at" json:"last_sent_at"`
	SentCounter   int       `db:"sent_counter" json:"sent_counter"`
}

// Media selector values.
const (
	MediaNotification = "notification"
	MediaEmail        = "email"
	MediaAndroidPush  = "android_push"
	MediaAll          = "all"
)

// BroadcastStore owns broadcast definitions and their audience joins.
type BroadcastStore struct {
	db *sqlx.DB
}

func NewBroadcastStore(db *sqlx.DB) *BroadcastStore {
	return &BroadcastStore{db: db}
}

// Get loads one broadcast scoped to its application.
func (s *BroadcastStore) Get(ctx context.Context, id, applicationID int64) (*Broadcast, error) {
	var b Broadcast
	err := s.db.GetContext(ctx, &b, `
		SELECT * FROM broadcasts WHERE id = $1 AND application_id = $2`,
		id, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notice.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load broadcast: %w", err)
	}
	return &b, nil
}

// List returns every broadcast of the application, newest first.
func (s *BroadcastStore) List(ctx context.Context, applicationID int64) ([]Broadcast, error) {
	broadcasts := []Broadcast{}
	err := s.db.SelectContext(ctx, &broadcasts, `
		SELECT * FROM broadcasts WHERE application_id = $1
		ORDER BY created_at DESC`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	return broadcasts, nil
}

// Audience returns the explicit user ids and group ids attached to the
// broadcast. Resolution to accounts is the resolver's job.
func (s *BroadcastStore) Audience(ctx context.Context, broadcastID int64) (notice.RecipientSpec, error) {
	var spec notice.RecipientSpec

	if err := s.db.SelectContext(ctx, &spec.UserIDs, `
		SELECT user_id FROM broadcast_users WHERE broadcast_id = $1`, broadcastID); err != nil {
		return spec, fmt.Errorf("failed to load broadcast users: %w", err)
	}
	if err := s.db.SelectContext(ctx, &spec.GroupIDs, `
		SELECT group_id FROM broadcast_groups WHERE broadcast_id = $1`, broadcastID); err != nil {
		return spec, fmt.Errorf("failed to load broadcast groups: %w", err)
	}
	return spec, nil
}

// MarkSent increments the sent counter by exactly one and stamps
// last_sent_at, in a single atomic statement. One send() invocation
// counts once no matter how many media it fanned out to.
func (s *BroadcastStore) MarkSent(ctx context.Context, broadcastID int64) (*Broadcast, error) {
	var b Broadcast
	err := s.db.GetContext(ctx, &b, `
		UPDATE broadcasts
		SET sent_counter = sent_counter + 1, last_sent_at = NOW()
		WHERE id = $1
		RETURNING *`, broadcastID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notice.ErrNotFound
		}
		return nil, fmt.Errorf("failed to mark broadcast sent: %w", err)
	}
	return &b, nil
}
