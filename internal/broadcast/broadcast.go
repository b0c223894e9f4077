// Package broadcast fans a reusable broadcast definition out across its
// configured media: in-app notification records, email, and android push.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"noticehub/internal/db"
	"noticehub/internal/notice"
)

// AudienceSource yields the recipient spec attached to a broadcast.
type AudienceSource interface {
	Audience(ctx context.Context, broadcastID int64) (notice.RecipientSpec, error)
}

// Counter owns the sent bookkeeping of a broadcast.
type Counter interface {
	MarkSent(ctx context.Context, broadcastID int64) (*db.Broadcast, error)
}

// Engine orchestrates one broadcast send: resolve the audience, run the
// selected media paths, then count the attempt.
type Engine struct {
	resolver   *notice.Resolver
	factory    *notice.Factory
	dispatcher *notice.Dispatcher
	senders    notice.Senders
	audience   AudienceSource
	counter    Counter
}

func NewEngine(
	resolver *notice.Resolver,
	factory *notice.Factory,
	dispatcher *notice.Dispatcher,
	senders notice.Senders,
	audience AudienceSource,
	counter Counter,
) *Engine {
	return &Engine{
		resolver:   resolver,
		factory:    factory,
		dispatcher: dispatcher,
		senders:    senders,
		audience:   audience,
		counter:    counter,
	}
}

// Send fans the broadcast out to its current audience on the media its
// selector names. Each media path fails independently; the sent counter
// increments by exactly one per invocation regardless of per-channel
// outcomes, and even when the audience is empty — a send attempt
// occurred.
func (e *Engine) Send(ctx context.Context, b *db.Broadcast, actor *notice.EntityRef) (*db.Broadcast, error) {
	spec, err := e.audience.Audience(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load broadcast audience: %w", err)
	}

	recipients, err := e.resolver.Resolve(ctx, spec)
	if err != nil && !errors.Is(err, notice.ErrEmptyAudience) {
		return nil, err
	}

	if len(recipients) > 0 {
		data := e.payloadData(b)

		switch b.Media {
		case db.MediaEmail:
			e.sendEmail(ctx, b, recipients, data)
		case db.MediaAndroidPush:
			e.sendPush(ctx, b, recipients, data)
		case db.MediaNotification:
			e.sendNotification(ctx, b, actor, recipients, data)
		case db.MediaAll:
			e.sendEmail(ctx, b, recipients, data)
			e.sendPush(ctx, b, recipients, data)
			e.sendNotification(ctx, b, actor, recipients, data)
		default:
			return nil, fmt.Errorf("unknown broadcast media %q", b.Media)
		}
	}

	updated, err := e.counter.MarkSent(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	slog.Info("broadcast sent",
		"broadcast_id", b.ID,
		"application_id", b.ApplicationID,
		"media", b.Media,
		"recipients", len(recipients),
		"sent_counter", updated.SentCounter)

	return updated, nil
}

// payloadData builds the extra-data mapping shared by every media path.
func (e *Engine) payloadData(b *db.Broadcast) notice.ExtraData {
	data := notice.ExtraData{
		"type":    "broadcast",
		"title":   b.Title,
		"message": b.Message,
		"actions": map[string]interface{}{
			"url":   b.ActionURL,
			"title": b.ActionTitle,
		},
	}
	if b.ImageURL != nil && *b.ImageURL != "" {
		data["image"] = map[string]interface{}{"url": *b.ImageURL}
	}
	return data
}

// sendNotification persists one in-app record per recipient. The rows
// themselves are the delivery; no outbound send happens on this path.
func (e *Engine) sendNotification(ctx context.Context, b *db.Broadcast, actor *notice.EntityRef, recipients []notice.Recipient, data notice.ExtraData) {
	notifications, err := e.factory.CreateBatch(ctx, notice.Event{
		Actor:         actor,
		Verb:          "broadcast",
		Recipients:    recipients,
		ApplicationID: b.ApplicationID,
		Description:   &b.Message,
		Data:          data,
	})
	if err != nil {
		slog.Error("broadcast notification path failed",
			"broadcast_id", b.ID, "error", err)
		return
	}

	deliveries := make([]notice.Delivery, 0, len(notifications))
	for i, n := range notifications {
		deliveries = append(deliveries, notice.Delivery{
			Notification: n,
			Recipient:    recipients[i],
			Channels:     []notice.Channel{notice.ChannelInApp},
		})
	}
	e.dispatcher.DispatchBatch(ctx, deliveries)
}

// sendEmail mails every recipient that has an address. Recipients
// without one are skipped, not failed.
func (e *Engine) sendEmail(ctx context.Context, b *db.Broadcast, recipients []notice.Recipient, data notice.ExtraData) {
	sender, ok := e.senders.Sender(notice.ChannelEmail)
	if !ok {
		slog.Debug("email channel unavailable for broadcast", "broadcast_id", b.ID)
		return
	}

	msg := notice.Message{Title: b.Title, Body: b.Message, Data: data}
	for _, rcpt := range recipients {
		if rcpt.Email == "" {
			continue
		}
		if err := sender.Send(ctx, rcpt, b.ApplicationID, msg); err != nil {
			if errors.Is(err, notice.ErrChannelUnavailable) {
				continue
			}
			slog.Warn("broadcast email failed",
				"broadcast_id", b.ID, "recipient_id", rcpt.ID, "error", err)
		}
	}
}

// sendPush pushes to every recipient over the firebase channel.
func (e *Engine) sendPush(ctx context.Context, b *db.Broadcast, recipients []notice.Recipient, data notice.ExtraData) {
	sender, ok := e.senders.Sender(notice.ChannelGCM)
	if !ok {
		slog.Debug("push channel unavailable for broadcast", "broadcast_id", b.ID)
		return
	}

	msg := notice.Message{Title: b.Title, Body: b.Message, Data: data}
	for _, rcpt := range recipients {
		if err := sender.Send(ctx, rcpt, b.ApplicationID, msg); err != nil {
			if errors.Is(err, notice.ErrChannelUnavailable) {
				continue
			}
			slog.Warn("broadcast push failed",
				"broadcast_id", b.ID, "recipient_id", rcpt.ID, "error", err)
		}
	}
}
