package notice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Sender is the uniform send capability of one channel transport.
type Sender interface {
	Send(ctx context.Context, rcpt Recipient, applicationID int64, msg Message) error
}

// Senders resolves a channel to its configured transport. A channel with
// no transport is skipped as unavailable, not failed.
type Senders interface {
	Sender(ch Channel) (Sender, bool)
}

// FlagStore owns the per-channel notified flags.
type FlagStore interface {
	MarkChannelNotified(ctx context.Context, notificationID string, ch Channel) error
}

// Outcome records one channel attempt for one notification.
type Outcome struct {
	Channel Channel
	Err     error
}

// Delivery pairs one persisted notification with its recipient and the
// channels routed for it.
type Delivery struct {
	Notification *Notification
	Recipient    Recipient
	Channels     []Channel
}

// Dispatcher attempts delivery on every applicable channel of every
// notification. Attempts are isolated: one channel failing never blocks
// sibling channels or sibling recipients, and never rolls back the
// persisted row.
type Dispatcher struct {
	senders     Senders
	store       FlagStore
	concurrency int
}

func NewDispatcher(senders Senders, store FlagStore, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 10
	}
	return &Dispatcher{senders: senders, store: store, concurrency: concurrency}
}

// Dispatch attempts each channel for one notification and returns the
// per-channel outcomes. in_app needs no send: the persisted row is the
// delivery. Already-notified channels are skipped, which makes retries
// after partial failure cheap.
func (d *Dispatcher) Dispatch(ctx context.Context, delivery Delivery) []Outcome {
	outcomes := make([]Outcome, 0, len(delivery.Channels))
	for _, ch := range delivery.Channels {
		if ch == ChannelInApp {
			outcomes = append(outcomes, Outcome{Channel: ch})
			continue
		}
		if delivery.Notification.Notified(ch) {
			outcomes = append(outcomes, Outcome{Channel: ch})
			continue
		}
		outcomes = append(outcomes, Outcome{Channel: ch, Err: d.attempt(ctx, ch, delivery)})
	}
	return outcomes
}

// DispatchBatch fans Dispatch out over a bounded worker pool. Outcomes
// are keyed by notification id.
func (d *Dispatcher) DispatchBatch(ctx context.Context, deliveries []Delivery) map[string][]Outcome {
	results := make(map[string][]Outcome, len(deliveries))
	var mu sync.Mutex

	pool := NewPool(ctx, d.concurrency)
	pool.Start()
	for _, delivery := range deliveries {
		delivery := delivery
		pool.Submit(func(taskCtx context.Context) error {
			outcomes := d.Dispatch(taskCtx, delivery)
			mu.Lock()
			results[delivery.Notification.ID] = outcomes
			mu.Unlock()
			return nil
		})
	}
	pool.Wait()
	pool.Shutdown()

	return results
}

func (d *Dispatcher) attempt(ctx context.Context, ch Channel, delivery Delivery) error {
	n := delivery.Notification

	sender, ok := d.senders.Sender(ch)
	if !ok {
		slog.Debug("channel unavailable, skipping",
			"channel", ch, "notification_id", n.ID, "recipient_id", delivery.Recipient.ID)
		return ErrChannelUnavailable
	}

	err := sender.Send(ctx, delivery.Recipient, n.ApplicationID, messageFor(n))
	if err != nil {
		if errors.Is(err, ErrChannelUnavailable) {
			slog.Debug("channel unavailable, skipping",
				"channel", ch, "notification_id", n.ID, "recipient_id", delivery.Recipient.ID)
			return err
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			err = &TransientError{Channel: ch, Err: err}
		}
		slog.Warn("channel delivery failed",
			"channel", ch,
			"notification_id", n.ID,
			"recipient_id", delivery.Recipient.ID,
			"error", err)
		return err
	}

	if err := d.store.MarkChannelNotified(ctx, n.ID, ch); err != nil {
		// The send happened; an external retry will observe the flag
		// still unset and re-attempt, which the channel must tolerate.
		slog.Error("failed to record notified flag",
			"channel", ch, "notification_id", n.ID, "error", err)
		return fmt.Errorf("failed to record notified flag: %w", err)
	}

	return nil
}

func messageFor(n *Notification) Message {
	msg := Message{Title: n.Verb, Data: map[string]interface{}{}}
	if n.Description != nil {
		msg.Body = *n.Description
	}
	for k, v := range n.Data {
		msg.Data[k] = v
	}
	msg.Data["notification_id"] = n.ID
	msg.Data["level"] = string(n.Level)
	if n.Target != nil {
		msg.Data["target"] = n.Target
	}
	if n.Action != nil {
		msg.Data["action"] = n.Action
	}
	return msg
}
