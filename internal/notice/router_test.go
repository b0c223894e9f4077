package notice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevices struct {
	platforms map[int64]map[string]bool
}

func (d *fakeDevices) ActivePlatforms(_ context.Context, userID, _ int64) (map[string]bool, error) {
	return d.platforms[userID], nil
}

func TestRouterApplicableChannels(t *testing.T) {
	ctx := context.Background()
	devices := &fakeDevices{platforms: map[int64]map[string]bool{
		1: {"FCM": true, "APNS": true},
		2: {},
		3: {"WP": true},
	}}
	r := NewRouter(devices)

	t.Run("AllChannels", func(t *testing.T) {
		rcpt := Recipient{ID: 1, Email: "a@example.com", EmailEnabled: true, PushEnabled: true}
		channels, err := r.ApplicableChannels(ctx, rcpt, 5)
		require.NoError(t, err)
		assert.Equal(t, []Channel{ChannelInApp, ChannelEmail, ChannelAPNS, ChannelGCM}, channels)
	})

	t.Run("InAppAlwaysApplicable", func(t *testing.T) {
		rcpt := Recipient{ID: 2}
		channels, err := r.ApplicableChannels(ctx, rcpt, 5)
		require.NoError(t, err)
		assert.Equal(t, []Channel{ChannelInApp}, channels)
	})

	t.Run("EmailRemovedWithoutAddress", func(t *testing.T) {
		rcpt := Recipient{ID: 1, EmailEnabled: true, PushEnabled: false}
		channels, err := r.ApplicableChannels(ctx, rcpt, 5)
		require.NoError(t, err)
		assert.NotContains(t, channels, ChannelEmail)
	})

	t.Run("EmailRemovedWhenDisabled", func(t *testing.T) {
		rcpt := Recipient{ID: 1, Email: "a@example.com", EmailEnabled: false, PushEnabled: false}
		channels, err := r.ApplicableChannels(ctx, rcpt, 5)
		require.NoError(t, err)
		assert.NotContains(t, channels, ChannelEmail)
	})

	t.Run("PushRemovedWhenDisabled", func(t *testing.T) {
		rcpt := Recipient{ID: 1, Email: "a@example.com", EmailEnabled: true, PushEnabled: false}
		channels, err := r.ApplicableChannels(ctx, rcpt, 5)
		require.NoError(t, err)
		assert.Equal(t, []Channel{ChannelInApp, ChannelEmail}, channels)
	})

	t.Run("PushChannelsFollowDeviceRegistrations", func(t *testing.T) {
		rcpt := Recipient{ID: 3, PushEnabled: true}
		channels, err := r.ApplicableChannels(ctx, rcpt, 5)
		require.NoError(t, err)
		assert.Contains(t, channels, ChannelWebPush)
		assert.NotContains(t, channels, ChannelGCM)
		assert.NotContains(t, channels, ChannelAPNS)
		assert.NotContains(t, channels, ChannelWNS)
	})
}
