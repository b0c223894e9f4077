package notice

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Level classifies a notification for display purposes.
type Level string

const (
	LevelSuccess   Level = "success"
	LevelInfo      Level = "info"
	LevelWarning   Level = "warning"
	LevelPromotion Level = "promotion"
	LevelError     Level = "error"
)

// Channel identifies one delivery medium.
type Channel string

const (
	ChannelInApp   Channel = "in_app"
	ChannelEmail   Channel = "email"
	ChannelAPNS    Channel = "apns"
	ChannelGCM     Channel = "gcm"
	ChannelWNS     Channel = "wns"
	ChannelWebPush Channel = "webpush"
)

// PushChannels lists every push medium, in routing order.
var PushChannels = []Channel{ChannelAPNS, ChannelGCM, ChannelWNS, ChannelWebPush}

// Platform maps a push channel to the device platform code stored with
// device registrations. in_app and email have no platform.
func (c Channel) Platform() string {
	switch c {
	case ChannelAPNS:
		return "APNS"
	case ChannelGCM:
		return "FCM"
	case ChannelWNS:
		return "WNS"
	case ChannelWebPush:
		return "WP"
	}
	return ""
}

// EntityRef is a polymorphic reference to an entity owned by a consuming
// application: a kind label plus an opaque id. The referenced entity is
// resolved lazily by the caller, never by this service.
type EntityRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// Recipient is one addressable account, with the preference flags the
// channel router consults.
type Recipient struct {
	ID           int64  `db:"id" json:"id"`
	Email        string `db:"email" json:"email"`
	EmailEnabled bool   `db:"email_enabled" json:"email_enabled"`
	PushEnabled  bool   `db:"push_enabled" json:"push_enabled"`
}

// RecipientSpec addresses an audience: explicit users, members of groups,
// or both. Resolution is the union of the two, deduplicated.
type RecipientSpec struct {
	UserIDs  []int64 `json:"user_ids"`
	GroupIDs []int64 `json:"group_ids"`
}

// SingleRecipient builds a RecipientSpec addressing one user.
func SingleRecipient(userID int64) RecipientSpec {
	return RecipientSpec{UserIDs: []int64{userID}}
}

// PayloadObject is the fixed shape of target and action payloads.
type PayloadObject struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"required,max=255"`
	Image       string `json:"image,omitempty" validate:"omitempty,url"`
	URL         string `json:"url,omitempty" validate:"omitempty,url"`
}

// Value implements driver.Valuer so payloads persist as jsonb.
func (p PayloadObject) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *PayloadObject) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("payload object: cannot scan %T", src)
	}
	return json.Unmarshal(b, p)
}

// ExtraData is the free-form key/value mapping attached to a notification.
type ExtraData map[string]interface{}

func (d ExtraData) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *ExtraData) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("extra data: cannot scan %T", src)
	}
	return json.Unmarshal(b, d)
}

// Notification is one delivery unit addressed to one recipient.
type Notification struct {
	ID            string         `db:"id" json:"id"`
	ApplicationID int64          `db:"application_id" json:"-"`
	Level         Level          `db:"level" json:"level"`
	Timestamp     time.Time      `db:"timestamp" json:"timestamp"`
	RecipientID   int64          `db:"recipient_id" json:"recipient_id"`
	ActorKind     string         `db:"actor_kind" json:"actor_kind"`
	ActorID       string         `db:"actor_id" json:"actor_id"`
	Verb          string         `db:"verb" json:"verb"`
	Description   *string        `db:"description" json:"description,omitempty"`
	Target        *PayloadObject `db:"target" json:"target,omitempty"`
	Action        *PayloadObject `db:"action" json:"action,omitempty"`
	Data          ExtraData      `db:"data" json:"data,omitempty"`

	Unread  bool `db:"unread" json:"unread"`
	Public  bool `db:"public" json:"public"`
	Deleted bool `db:"deleted" json:"-"`

	NotifiedEmail   bool `db:"notified_email" json:"notified_email"`
	NotifiedAPNS    bool `db:"notified_apns" json:"notified_apns"`
	NotifiedGCM     bool `db:"notified_gcm" json:"notified_gcm"`
	NotifiedWNS     bool `db:"notified_wns" json:"notified_wns"`
	NotifiedWebPush bool `db:"notified_webpush" json:"notified_webpush"`
}

// Actor returns the polymorphic actor reference.
func (n *Notification) Actor() EntityRef {
	return EntityRef{Kind: n.ActorKind, ID: n.ActorID}
}

// Notified reports whether the flag for the given channel is already set.
// in_app is the persisted row itself and is always considered delivered.
func (n *Notification) Notified(ch Channel) bool {
	switch ch {
	case ChannelInApp:
		return true
	case ChannelEmail:
		return n.NotifiedEmail
	case ChannelAPNS:
		return n.NotifiedAPNS
	case ChannelGCM:
		return n.NotifiedGCM
	case ChannelWNS:
		return n.NotifiedWNS
	case ChannelWebPush:
		return n.NotifiedWebPush
	}
	return false
}

// Event is one logical fan-out request: one actor, one verb, one resolved
// audience, shared payloads.
type Event struct {
	Actor         *EntityRef
	Verb          string
	Recipients    []Recipient
	ApplicationID int64
	Level         Level
	Description   *string
	Target        *PayloadObject
	Action        *PayloadObject
	Data          ExtraData
	Timestamp     time.Time
	Public        *bool
}

// Message is the uniform shape handed to a channel sender.
type Message struct {
	Title string
	Body  string
	Data  map[string]interface{}
}
