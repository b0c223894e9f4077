package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"noticehub/internal/notice"
)

// UserDirectory answers the resolver's membership questions from the
// users and group_members tables.
type UserDirectory struct {
	db *sqlx.DB
}

func NewUserDirectory(db *sqlx.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

const recipientColumns = `id, email, email_enabled, push_enabled`

// ActiveUsers returns the active accounts among the given ids.
func (d *UserDirectory) ActiveUsers(ctx context.Context, userIDs []int64) ([]notice.Recipient, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+recipientColumns+` FROM users
		WHERE active = TRUE AND id IN (?)
		ORDER BY id`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	recipients := []notice.Recipient{}
	if err := d.db.SelectContext(ctx, &recipients, d.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return recipients, nil
}

// ActiveGroupMembers returns the active members of any of the given
// groups, each member once even when in several groups.
func (d *UserDirectory) ActiveGroupMembers(ctx context.Context, groupIDs []int64) ([]notice.Recipient, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT DISTINCT u.id, u.email, u.email_enabled, u.push_enabled
		FROM users u
		JOIN group_members gm ON gm.user_id = u.id
		WHERE u.active = TRUE AND gm.group_id IN (?)
		ORDER BY u.id`, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build group member query: %w", err)
	}

	recipients := []notice.Recipient{}
	if err := d.db.SelectContext(ctx, &recipients, d.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	return recipients, nil
}

// FirstAdmin returns the first administrative account, used as the
// system-default actor when no explicit one is configured.
func (d *UserDirectory) FirstAdmin(ctx context.Context) (*notice.Recipient, error) {
	var rcpt notice.Recipient
	err := d.db.GetContext(ctx, &rcpt, `
		SELECT `+recipientColumns+` FROM users
		WHERE admin = TRUE AND active = TRUE
		ORDER BY id LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to find an admin account: %w", err)
	}
	return &rcpt, nil
}
