package notice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *fakeSender) Send(_ context.Context, _ Recipient, _ int64, _ Message) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.err
}

type fakeSenders struct {
	senders map[Channel]*fakeSender
}

func (s *fakeSenders) Sender(ch Channel) (Sender, bool) {
	sender, ok := s.senders[ch]
	return sender, ok
}

type fakeFlagStore struct {
	mu      sync.Mutex
	flags   map[string]map[Channel]bool
	failErr error
}

func newFakeFlagStore() *fakeFlagStore {
	return &fakeFlagStore{flags: map[string]map[Channel]bool{}}
}

func (s *fakeFlagStore) MarkChannelNotified(_ context.Context, id string, ch Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	if s.flags[id] == nil {
		s.flags[id] = map[Channel]bool{}
	}
	s.flags[id][ch] = true
	return nil
}

func (s *fakeFlagStore) notified(id string, ch Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[id][ch]
}

func testDelivery(channels ...Channel) Delivery {
	return Delivery{
		Notification: &Notification{ID: "n-1", ApplicationID: 5, RecipientID: 1, Verb: "liked"},
		Recipient:    Recipient{ID: 1, Email: "a@example.com"},
		Channels:     channels,
	}
}

func outcomeFor(t *testing.T, outcomes []Outcome, ch Channel) Outcome {
	t.Helper()
	for _, o := range outcomes {
		if o.Channel == ch {
			return o
		}
	}
	t.Fatalf("no outcome for channel %s", ch)
	return Outcome{}
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("FailingEmailDoesNotBlockPush", func(t *testing.T) {
		email := &fakeSender{err: &SendFailedError{Channel: ChannelEmail, Err: errors.New("rejected")}}
		push := &fakeSender{}
		store := newFakeFlagStore()
		d := NewDispatcher(&fakeSenders{senders: map[Channel]*fakeSender{
			ChannelEmail: email,
			ChannelGCM:   push,
		}}, store, 4)

		outcomes := d.Dispatch(ctx, testDelivery(ChannelEmail, ChannelGCM))

		assert.Error(t, outcomeFor(t, outcomes, ChannelEmail).Err)
		assert.NoError(t, outcomeFor(t, outcomes, ChannelGCM).Err)
		assert.False(t, store.notified("n-1", ChannelEmail))
		assert.True(t, store.notified("n-1", ChannelGCM))
		assert.Equal(t, 1, push.calls)
	})

	t.Run("UnconfiguredChannelIsSkipped", func(t *testing.T) {
		store := newFakeFlagStore()
		d := NewDispatcher(&fakeSenders{senders: map[Channel]*fakeSender{}}, store, 4)

		outcomes := d.Dispatch(ctx, testDelivery(ChannelWNS))
		assert.ErrorIs(t, outcomeFor(t, outcomes, ChannelWNS).Err, ErrChannelUnavailable)
		assert.False(t, store.notified("n-1", ChannelWNS))
	})

	t.Run("InAppNeedsNoSend", func(t *testing.T) {
		store := newFakeFlagStore()
		d := NewDispatcher(&fakeSenders{senders: map[Channel]*fakeSender{}}, store, 4)

		outcomes := d.Dispatch(ctx, testDelivery(ChannelInApp))
		assert.NoError(t, outcomeFor(t, outcomes, ChannelInApp).Err)
	})

	t.Run("AlreadyNotifiedChannelIsNotResent", func(t *testing.T) {
		email := &fakeSender{}
		store := newFakeFlagStore()
		d := NewDispatcher(&fakeSenders{senders: map[Channel]*fakeSender{ChannelEmail: email}}, store, 4)

		delivery := testDelivery(ChannelEmail)
		delivery.Notification.NotifiedEmail = true

		outcomes := d.Dispatch(ctx, delivery)
		assert.NoError(t, outcomeFor(t, outcomes, ChannelEmail).Err)
		assert.Zero(t, email.calls)
	})

	t.Run("FlagStoreFailureSurfaces", func(t *testing.T) {
		email := &fakeSender{}
		store := newFakeFlagStore()
		store.failErr = errors.New("deadlock")
		d := NewDispatcher(&fakeSenders{senders: map[Channel]*fakeSender{ChannelEmail: email}}, store, 4)

		outcomes := d.Dispatch(ctx, testDelivery(ChannelEmail))
		assert.ErrorContains(t, outcomeFor(t, outcomes, ChannelEmail).Err, "failed to record notified flag")
	})

	t.Run("BatchFansOutAllDeliveries", func(t *testing.T) {
		push := &fakeSender{}
		store := newFakeFlagStore()
		d := NewDispatcher(&fakeSenders{senders: map[Channel]*fakeSender{ChannelGCM: push}}, store, 3)

		deliveries := make([]Delivery, 0, 20)
		for i := 0; i < 20; i++ {
			n := &Notification{ID: string(rune('a'+i)) + "-n", ApplicationID: 5, RecipientID: int64(i)}
			deliveries = append(deliveries, Delivery{
				Notification: n,
				Recipient:    Recipient{ID: int64(i)},
				Channels:     []Channel{ChannelGCM},
			})
		}

		results := d.DispatchBatch(ctx, deliveries)
		require.Len(t, results, 20)
		assert.Equal(t, 20, push.calls)
		for _, delivery := range deliveries {
			assert.True(t, store.notified(delivery.Notification.ID, ChannelGCM))
		}
	})

	t.Run("TransientSenderErrorKeepsFlagUnset", func(t *testing.T) {
		push := &fakeSender{err: &TransientError{Channel: ChannelGCM, Err: context.DeadlineExceeded}}
		store := newFakeFlagStore()
		d := NewDispatcher(&fakeSenders{senders: map[Channel]*fakeSender{ChannelGCM: push}}, store, 2)

		outcomes := d.Dispatch(ctx, testDelivery(ChannelGCM))

		var transient *TransientError
		assert.ErrorAs(t, outcomeFor(t, outcomes, ChannelGCM).Err, &transient)
		assert.False(t, store.notified("n-1", ChannelGCM))
	})
}
