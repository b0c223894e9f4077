package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"

	"noticehub/internal/notice"
)

// TokenSource yields the active device tokens of one recipient for one
// push platform under an application scope.
type TokenSource interface {
	ActiveTokens(ctx context.Context, userID, applicationID int64, platform string) ([]string, error)
}

// FCMSender delivers a push channel through Firebase Cloud Messaging.
// FCM carries both native Android and web-push payloads, so one sender
// instance serves the gcm and webpush channels with different platform
// codes.
type FCMSender struct {
	client   *messaging.Client
	tokens   TokenSource
	channel  notice.Channel
	platform string
}

func NewFCMSender(client *messaging.Client, tokens TokenSource, ch notice.Channel) *FCMSender {
	return &FCMSender{client: client, tokens: tokens, channel: ch, platform: ch.Platform()}
}

// Send pushes the message to every active device token of the recipient.
// No registered token means the channel is unavailable for this
// recipient. A partial token failure still counts as delivered as long
// as at least one device accepted the message.
func (s *FCMSender) Send(ctx context.Context, rcpt notice.Recipient, applicationID int64, msg notice.Message) error {
	if s.client == nil {
		return notice.ErrChannelUnavailable
	}

	tokens, err := s.tokens.ActiveTokens(ctx, rcpt.ID, applicationID, s.platform)
	if err != nil {
		return &notice.TransientError{Channel: s.channel, Err: fmt.Errorf("failed to load device tokens: %w", err)}
	}
	if len(tokens) == 0 {
		return notice.ErrChannelUnavailable
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: flatten(msg.Data),
	}

	resp, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return &notice.TransientError{Channel: s.channel, Err: err}
		}
		return &notice.SendFailedError{Channel: s.channel, Err: err}
	}

	if resp.SuccessCount == 0 {
		var firstErr error
		for _, r := range resp.Responses {
			if r.Error != nil {
				firstErr = r.Error
				break
			}
		}
		return &notice.SendFailedError{Channel: s.channel, Err: fmt.Errorf("all %d tokens rejected: %w", len(tokens), firstErr)}
	}

	if resp.FailureCount > 0 {
		slog.Warn("fcm delivered to a subset of device tokens",
			"channel", s.channel,
			"recipient_id", rcpt.ID,
			"success", resp.SuccessCount,
			"failed", resp.FailureCount)
	}

	return nil
}

// flatten converts the extra data mapping to the string-valued form FCM
// requires.
func flatten(data map[string]interface{}) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			out[k] = val
		default:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
