// Package channel provides the delivery transports behind the uniform
// send capability: SMTP email and FCM push. Platforms without a
// configured transport are reported unavailable, never failed.
package channel

import (
	"noticehub/internal/notice"
)

// Registry maps channels to their configured transports. It satisfies
// notice.Senders.
type Registry struct {
	senders map[notice.Channel]notice.Sender
}

func NewRegistry() *Registry {
	return &Registry{senders: make(map[notice.Channel]notice.Sender)}
}

// Register installs a transport for a channel, replacing any previous one.
func (r *Registry) Register(ch notice.Channel, sender notice.Sender) {
	r.senders[ch] = sender
}

// Sender returns the transport for a channel, if one is configured.
func (r *Registry) Sender(ch notice.Channel) (notice.Sender, bool) {
	sender, ok := r.senders[ch]
	return sender, ok
}
