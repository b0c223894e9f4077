package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"noticehub/internal/notice"
)

// NotificationStore owns the persisted notification rows and their
// unread/read and per-channel notified flags. Ownership is enforced in
// the SQL predicates: a mutation that matches no (id, recipient) row is
// reported as not found, never as someone else's row.
type NotificationStore struct {
	db *sqlx.DB
}

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// notifiedColumn maps a channel to its flag column. Channels without a
// flag (in_app) are rejected.
func notifiedColumn(ch notice.Channel) (string, error) {
	switch ch {
	case notice.ChannelEmail:
		return "notified_email", nil
	case notice.ChannelAPNS:
		return "notified_apns", nil
	case notice.ChannelGCM:
		return "notified_gcm", nil
	case notice.ChannelWNS:
		return "notified_wns", nil
	case notice.ChannelWebPush:
		return "notified_webpush", nil
	}
	return "", fmt.Errorf("channel %q has no notified flag", ch)
}

const insertNotification = `
	INSERT INTO notifications (
		id, application_id, level, timestamp, recipient_id,
		actor_kind, actor_id, verb, description, target, action, data,
		unread, public
	) VALUES (
		:id, :application_id, :level, :timestamp, :recipient_id,
		:actor_kind, :actor_id, :verb, :description, :target, :action, :data,
		:unread, :public
	)`

// InsertBatch persists a fan-out batch in one transaction. Either every
// row lands or none do.
func (s *NotificationStore) InsertBatch(ctx context.Context, notifications []*notice.Notification) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch insert: %w", err)
	}
	defer tx.Rollback()

	for _, n := range notifications {
		if _, err := tx.NamedExecContext(ctx, insertNotification, n); err != nil {
			return fmt.Errorf("failed to insert notification for recipient %d: %w", n.RecipientID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch insert: %w", err)
	}
	return nil
}

// Get returns one notification scoped to its owner.
func (s *NotificationStore) Get(ctx context.Context, id string, recipientID int64) (*notice.Notification, error) {
	var n notice.Notification
	err := s.db.GetContext(ctx, &n, `
		SELECT * FROM notifications
		WHERE id = $1 AND recipient_id = $2 AND deleted = FALSE`,
		id, recipientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notice.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	return &n, nil
}

// GetByID returns one notification without an ownership scope. Used by
// the worker when retrying delivery.
func (s *NotificationStore) GetByID(ctx context.Context, id string) (*notice.Notification, error) {
	var n notice.Notification
	err := s.db.GetContext(ctx, &n, `SELECT * FROM notifications WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notice.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	return &n, nil
}

// MarkRead flips unread off. Re-marking an already-read notification is
// a silent no-op; a row the caller does not own is not found.
func (s *NotificationStore) MarkRead(ctx context.Context, id string, recipientID int64) error {
	return s.setUnread(ctx, id, recipientID, false)
}

// MarkUnread flips unread back on, with the same ownership rules.
func (s *NotificationStore) MarkUnread(ctx context.Context, id string, recipientID int64) error {
	return s.setUnread(ctx, id, recipientID, true)
}

func (s *NotificationStore) setUnread(ctx context.Context, id string, recipientID int64, unread bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET unread = $3
		WHERE id = $1 AND recipient_id = $2 AND deleted = FALSE`,
		id, recipientID, unread)
	if err != nil {
		return fmt.Errorf("failed to update unread flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check unread update: %w", err)
	}
	if affected == 0 {
		return notice.ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the recipient under the
// application as read and returns how many flipped.
func (s *NotificationStore) MarkAllRead(ctx context.Context, recipientID, applicationID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET unread = FALSE
		WHERE recipient_id = $1 AND application_id = $2 AND unread = TRUE AND deleted = FALSE`,
		recipientID, applicationID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all read: %w", err)
	}
	return res.RowsAffected()
}

// MarkChannelNotified sets exactly one channel's notified flag. The
// update is a single atomic statement, idempotent under concurrent
// retries.
func (s *NotificationStore) MarkChannelNotified(ctx context.Context, id string, ch notice.Channel) error {
	column, err := notifiedColumn(ch)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE notifications SET %s = TRUE WHERE id = $1`, column), id)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s update: %w", column, err)
	}
	if affected == 0 {
		return notice.ErrNotFound
	}
	return nil
}

// Delete removes a notification, soft by default. Soft delete keeps the
// row but excludes it from listings; hard delete removes it physically.
func (s *NotificationStore) Delete(ctx context.Context, id string, recipientID int64, hard bool) error {
	var (
		res interface{ RowsAffected() (int64, error) }
		err error
	)
	if hard {
		res, err = s.db.ExecContext(ctx, `
			DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`,
			id, recipientID)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE notifications SET deleted = TRUE
			WHERE id = $1 AND recipient_id = $2 AND deleted = FALSE`,
			id, recipientID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if affected == 0 {
		return notice.ErrNotFound
	}
	return nil
}

// ListFilter narrows a notification listing.
type ListFilter struct {
	RecipientID   int64
	ApplicationID int64
	UnreadOnly    bool
	Limit         int
	Offset        int
}

// List returns the recipient's notifications, newest first, excluding
// soft-deleted rows.
func (s *NotificationStore) List(ctx context.Context, filter ListFilter) ([]notice.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE recipient_id = $1 AND application_id = $2 AND deleted = FALSE`
	args := []interface{}{filter.RecipientID, filter.ApplicationID}

	if filter.UnreadOnly {
		query += ` AND unread = TRUE`
	}
	query += ` ORDER BY timestamp DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	notifications := []notice.Notification{}
	if err := s.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// Stats reports total and unread counts for the recipient under the
// application.
type Stats struct {
	Total  int `db:"total" json:"total"`
	Unread int `db:"unread" json:"unread"`
}

func (s *NotificationStore) Stats(ctx context.Context, recipientID, applicationID int64) (*Stats, error) {
	var stats Stats
	err := s.db.GetContext(ctx, &stats, `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE unread) AS unread
		FROM notifications
		WHERE recipient_id = $1 AND application_id = $2 AND deleted = FALSE`,
		recipientID, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification stats: %w", err)
	}
	return &stats, nil
}
