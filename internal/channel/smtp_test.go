package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"noticehub/internal/notice"
)

func TestSMTPSenderUnavailable(t *testing.T) {
	ctx := context.Background()
	msg := notice.Message{Title: "hello", Body: "world"}

	t.Run("NoRelayConfigured", func(t *testing.T) {
		s := NewSMTPSender(SMTPConfig{})
		err := s.Send(ctx, notice.Recipient{ID: 1, Email: "a@example.com"}, 5, msg)
		assert.ErrorIs(t, err, notice.ErrChannelUnavailable)
	})

	t.Run("RecipientWithoutAddress", func(t *testing.T) {
		s := NewSMTPSender(SMTPConfig{Host: "mail.example.com", Port: "587", From: "noreply@example.com"})
		err := s.Send(ctx, notice.Recipient{ID: 1}, 5, msg)
		assert.ErrorIs(t, err, notice.ErrChannelUnavailable)
	})

	t.Run("CancelledContextIsTransient", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		s := NewSMTPSender(SMTPConfig{Host: "mail.example.com", Port: "587", From: "noreply@example.com"})
		err := s.Send(cancelled, notice.Recipient{ID: 1, Email: "a@example.com"}, 5, msg)

		var transient *notice.TransientError
		assert.ErrorAs(t, err, &transient)
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(notice.ChannelEmail, NewSMTPSender(SMTPConfig{}))

	_, ok := r.Sender(notice.ChannelEmail)
	assert.True(t, ok)
	_, ok = r.Sender(notice.ChannelAPNS)
	assert.False(t, ok)
}
