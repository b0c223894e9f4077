package notice

import (
	"context"
	"fmt"
)

// DeviceDirectory reports which push platforms a recipient has an active
// device registration for, under one application scope.
type DeviceDirectory interface {
	ActivePlatforms(ctx context.Context, userID, applicationID int64) (map[string]bool, error)
}

// Router computes the set of delivery channels applicable to one
// recipient under one application.
type Router struct {
	devices DeviceDirectory
}

func NewRouter(devices DeviceDirectory) *Router {
	return &Router{devices: devices}
}

// ApplicableChannels starts from the full channel universe and removes
// email when the recipient disabled it or has no address, and each push
// channel without an active registered device for its platform. in_app is
// always applicable. An empty result beyond in_app is a normal outcome.
func (r *Router) ApplicableChannels(ctx context.Context, rcpt Recipient, applicationID int64) ([]Channel, error) {
	channels := []Channel{ChannelInApp}

	if rcpt.EmailEnabled && rcpt.Email != "" {
		channels = append(channels, ChannelEmail)
	}

	if !rcpt.PushEnabled {
		return channels, nil
	}

	platforms, err := r.devices.ActivePlatforms(ctx, rcpt.ID, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up device registrations: %w", err)
	}

	for _, ch := range PushChannels {
		if platforms[ch.Platform()] {
			channels = append(channels, ch)
		}
	}

	return channels, nil
}
