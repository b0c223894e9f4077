package notice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory serves membership lookups from in-memory data. Inactive
// accounts are simply absent from its maps, matching the active-only
// contract of the real directory.
type fakeDirectory struct {
	users   map[int64]Recipient
	members map[int64][]int64
}

func (d *fakeDirectory) ActiveUsers(_ context.Context, userIDs []int64) ([]Recipient, error) {
	var out []Recipient
	for _, id := range userIDs {
		if rcpt, ok := d.users[id]; ok {
			out = append(out, rcpt)
		}
	}
	return out, nil
}

func (d *fakeDirectory) ActiveGroupMembers(_ context.Context, groupIDs []int64) ([]Recipient, error) {
	seen := map[int64]bool{}
	var out []Recipient
	for _, gid := range groupIDs {
		for _, uid := range d.members[gid] {
			rcpt, ok := d.users[uid]
			if !ok || seen[uid] {
				continue
			}
			seen[uid] = true
			out = append(out, rcpt)
		}
	}
	return out, nil
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[int64]Recipient{
			1: {ID: 1, Email: "a@example.com", EmailEnabled: true, PushEnabled: true},
			2: {ID: 2, Email: "b@example.com", EmailEnabled: true, PushEnabled: true},
			3: {ID: 3, Email: "", EmailEnabled: true, PushEnabled: true},
		},
		members: map[int64][]int64{
			10: {1, 2},
		},
	}
}

func recipientIDs(recipients []Recipient) []int64 {
	ids := make([]int64, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("SingleUser", func(t *testing.T) {
		r := NewResolver(newFakeDirectory())
		recipients, err := r.Resolve(ctx, SingleRecipient(2))
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, recipientIDs(recipients))
	})

	t.Run("GroupMembers", func(t *testing.T) {
		r := NewResolver(newFakeDirectory())
		recipients, err := r.Resolve(ctx, RecipientSpec{GroupIDs: []int64{10}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2}, recipientIDs(recipients))
	})

	t.Run("UnionOfGroupAndExplicitUsersDeduplicates", func(t *testing.T) {
		// Group 10 holds {1,2}; explicit users are {2,3}. The union must
		// be exactly {1,2,3} with 2 appearing once.
		r := NewResolver(newFakeDirectory())
		recipients, err := r.Resolve(ctx, RecipientSpec{
			UserIDs:  []int64{2, 3},
			GroupIDs: []int64{10},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2, 3}, recipientIDs(recipients))
	})

	t.Run("InactiveUsersAreFiltered", func(t *testing.T) {
		r := NewResolver(newFakeDirectory())
		recipients, err := r.Resolve(ctx, RecipientSpec{UserIDs: []int64{1, 99}})
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, recipientIDs(recipients))
	})

	t.Run("Deterministic", func(t *testing.T) {
		r := NewResolver(newFakeDirectory())
		spec := RecipientSpec{UserIDs: []int64{3}, GroupIDs: []int64{10}}

		first, err := r.Resolve(ctx, spec)
		require.NoError(t, err)
		second, err := r.Resolve(ctx, spec)
		require.NoError(t, err)

		assert.ElementsMatch(t, recipientIDs(first), recipientIDs(second))
	})

	t.Run("EmptyAudience", func(t *testing.T) {
		r := NewResolver(newFakeDirectory())
		_, err := r.Resolve(ctx, RecipientSpec{UserIDs: []int64{99}})
		assert.ErrorIs(t, err, ErrEmptyAudience)
	})

	t.Run("EmptySpec", func(t *testing.T) {
		r := NewResolver(newFakeDirectory())
		_, err := r.Resolve(ctx, RecipientSpec{})
		assert.ErrorIs(t, err, ErrEmptyAudience)
	})
}
