package notice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBatchStore records inserted batches, optionally failing the whole
// insert.
type fakeBatchStore struct {
	batches [][]*Notification
	failErr error
}

func (s *fakeBatchStore) InsertBatch(_ context.Context, notifications []*Notification) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.batches = append(s.batches, notifications)
	return nil
}

func (s *fakeBatchStore) inserted() int {
	total := 0
	for _, b := range s.batches {
		total += len(b)
	}
	return total
}

var systemActor = EntityRef{Kind: "user", ID: "1"}

func testRecipients() []Recipient {
	return []Recipient{
		{ID: 1, Email: "a@example.com"},
		{ID: 2, Email: "b@example.com"},
		{ID: 3},
	}
}

func TestFactoryCreateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("OneRowPerRecipient", func(t *testing.T) {
		store := &fakeBatchStore{}
		f := NewFactory(store, systemActor)

		actor := &EntityRef{Kind: "article", ID: "7"}
		created, err := f.CreateBatch(ctx, Event{
			Actor:         actor,
			Verb:          "published",
			Recipients:    testRecipients(),
			ApplicationID: 5,
		})
		require.NoError(t, err)
		require.Len(t, created, 3)

		seen := map[int64]bool{}
		for _, n := range created {
			assert.Equal(t, "published", n.Verb)
			assert.Equal(t, *actor, n.Actor())
			assert.Equal(t, created[0].Timestamp, n.Timestamp)
			assert.Equal(t, LevelInfo, n.Level)
			assert.True(t, n.Unread)
			assert.True(t, n.Public)
			assert.NotEmpty(t, n.ID)
			assert.False(t, seen[n.RecipientID], "duplicate recipient %d", n.RecipientID)
			seen[n.RecipientID] = true
		}
		assert.Equal(t, 3, store.inserted())
	})

	t.Run("InvalidTargetAbortsWholeBatch", func(t *testing.T) {
		store := &fakeBatchStore{}
		f := NewFactory(store, systemActor)

		_, err := f.CreateBatch(ctx, Event{
			Verb:       "liked",
			Recipients: testRecipients(),
			Target:     &PayloadObject{Name: "missing description"},
		})

		var payloadErr *InvalidPayloadError
		require.ErrorAs(t, err, &payloadErr)
		assert.Equal(t, "target", payloadErr.Field)
		assert.Zero(t, store.inserted(), "no row may persist from a rejected batch")
	})

	t.Run("InvalidActionAbortsWholeBatch", func(t *testing.T) {
		store := &fakeBatchStore{}
		f := NewFactory(store, systemActor)

		_, err := f.CreateBatch(ctx, Event{
			Verb:       "liked",
			Recipients: testRecipients(),
			Action:     &PayloadObject{Description: "missing name"},
		})

		var payloadErr *InvalidPayloadError
		require.ErrorAs(t, err, &payloadErr)
		assert.Equal(t, "action", payloadErr.Field)
		assert.Zero(t, store.inserted())
	})

	t.Run("SystemActorFallback", func(t *testing.T) {
		store := &fakeBatchStore{}
		f := NewFactory(store, systemActor)

		created, err := f.CreateBatch(ctx, Event{
			Verb:       "broadcast",
			Recipients: testRecipients()[:1],
		})
		require.NoError(t, err)
		assert.Equal(t, systemActor, created[0].Actor())
	})

	t.Run("ExplicitTimestampAndPublicFlag", func(t *testing.T) {
		store := &fakeBatchStore{}
		f := NewFactory(store, systemActor)

		ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		private := false
		created, err := f.CreateBatch(ctx, Event{
			Verb:       "reminder",
			Recipients: testRecipients()[:1],
			Timestamp:  ts,
			Public:     &private,
			Level:      LevelWarning,
		})
		require.NoError(t, err)
		assert.Equal(t, ts, created[0].Timestamp)
		assert.False(t, created[0].Public)
		assert.Equal(t, LevelWarning, created[0].Level)
	})

	t.Run("StoreFailurePropagates", func(t *testing.T) {
		store := &fakeBatchStore{failErr: errors.New("connection lost")}
		f := NewFactory(store, systemActor)

		_, err := f.CreateBatch(ctx, Event{Verb: "x", Recipients: testRecipients()})
		assert.ErrorContains(t, err, "failed to persist notification batch")
	})

	t.Run("NoRecipients", func(t *testing.T) {
		store := &fakeBatchStore{}
		f := NewFactory(store, systemActor)

		_, err := f.CreateBatch(ctx, Event{Verb: "x"})
		assert.ErrorIs(t, err, ErrEmptyAudience)
	})
}
