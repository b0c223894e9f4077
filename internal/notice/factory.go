package notice

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// BatchInserter persists a batch of notifications atomically: either
// every row lands or none do.
type BatchInserter interface {
	InsertBatch(ctx context.Context, notifications []*Notification) error
}

// AdminSource looks up the first administrative account, the fallback
// system actor when none is configured.
type AdminSource interface {
	FirstAdmin(ctx context.Context) (*Recipient, error)
}

// SystemActor returns the configured actor, falling back to the first
// administrative account when the configuration leaves the id empty.
func SystemActor(ctx context.Context, configured EntityRef, admins AdminSource) EntityRef {
	if configured.ID != "" {
		return configured
	}
	admin, err := admins.FirstAdmin(ctx)
	if err != nil || admin == nil {
		slog.Warn("no system actor configured and no admin account found", "error", err)
		return configured
	}
	return EntityRef{Kind: "user", ID: strconv.FormatInt(admin.ID, 10)}
}

// Factory materializes one persisted notification per resolved recipient
// for a fan-out event.
type Factory struct {
	store       BatchInserter
	systemActor EntityRef
}

// NewFactory wires the factory with its store and the designated system
// actor used when an event carries no actor of its own.
func NewFactory(store BatchInserter, systemActor EntityRef) *Factory {
	return &Factory{store: store, systemActor: systemActor}
}

// CreateBatch validates the event's payloads, then batch-inserts one
// notification per recipient. A payload validation failure aborts the
// whole batch before any persistence.
func (f *Factory) CreateBatch(ctx context.Context, ev Event) ([]*Notification, error) {
	if err := ValidatePayload("target", ev.Target); err != nil {
		return nil, err
	}
	if err := ValidatePayload("action", ev.Action); err != nil {
		return nil, err
	}

	actor := f.systemActor
	if ev.Actor != nil {
		actor = *ev.Actor
	}

	level := ev.Level
	if level == "" {
		level = LevelInfo
	}

	timestamp := ev.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	public := true
	if ev.Public != nil {
		public = *ev.Public
	}

	notifications := make([]*Notification, 0, len(ev.Recipients))
	for _, rcpt := range ev.Recipients {
		notifications = append(notifications, &Notification{
			ID:            uuid.New().String(),
			ApplicationID: ev.ApplicationID,
			Level:         level,
			Timestamp:     timestamp,
			RecipientID:   rcpt.ID,
			ActorKind:     actor.Kind,
			ActorID:       actor.ID,
			Verb:          ev.Verb,
			Description:   ev.Description,
			Target:        ev.Target,
			Action:        ev.Action,
			Data:          ev.Data,
			Unread:        true,
			Public:        public,
		})
	}

	if len(notifications) == 0 {
		return nil, ErrEmptyAudience
	}

	if err := f.store.InsertBatch(ctx, notifications); err != nil {
		return nil, fmt.Errorf("failed to persist notification batch: %w", err)
	}

	slog.Info("created notification batch",
		"application_id", ev.ApplicationID,
		"verb", ev.Verb,
		"recipients", len(notifications))

	return notifications, nil
}
