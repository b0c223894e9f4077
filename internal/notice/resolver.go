package notice

import (
	"context"
	"fmt"
	"log/slog"
)

// Directory answers membership questions about accounts. Backed by the
// users/groups tables in production, faked in tests.
type Directory interface {
	// ActiveUsers returns the active accounts among the given ids.
	ActiveUsers(ctx context.Context, userIDs []int64) ([]Recipient, error)
	// ActiveGroupMembers returns the active members of any of the given
	// groups.
	ActiveGroupMembers(ctx context.Context, groupIDs []int64) ([]Recipient, error)
}

// Resolver turns a RecipientSpec into a deduplicated set of recipients.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the union of members-of-any-listed-group and
// explicitly-listed-users, filtered to active accounts, with duplicates
// removed. Returns ErrEmptyAudience when the result is empty.
func (r *Resolver) Resolve(ctx context.Context, spec RecipientSpec) ([]Recipient, error) {
	var pool []Recipient

	if len(spec.GroupIDs) > 0 {
		members, err := r.dir.ActiveGroupMembers(ctx, spec.GroupIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve group members: %w", err)
		}
		pool = append(pool, members...)
	}

	if len(spec.UserIDs) > 0 {
		users, err := r.dir.ActiveUsers(ctx, spec.UserIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve users: %w", err)
		}
		pool = append(pool, users...)
	}

	seen := make(map[int64]struct{}, len(pool))
	recipients := make([]Recipient, 0, len(pool))
	for _, rcpt := range pool {
		if _, dup := seen[rcpt.ID]; dup {
			continue
		}
		seen[rcpt.ID] = struct{}{}
		recipients = append(recipients, rcpt)
	}

	if len(recipients) == 0 {
		slog.Info("recipient spec resolved to empty audience",
			"user_ids", spec.UserIDs, "group_ids", spec.GroupIDs)
		return nil, ErrEmptyAudience
	}

	return recipients, nil
}
