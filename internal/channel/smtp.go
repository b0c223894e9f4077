package channel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"noticehub/internal/notice"
)

// SMTPConfig carries the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

// SMTPSender delivers the email channel through a plain SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send relays one message to the recipient's address. Recipients without
// an address are unavailable for this channel, not failures.
func (s *SMTPSender) Send(ctx context.Context, rcpt notice.Recipient, applicationID int64, msg notice.Message) error {
	if s.cfg.Host == "" {
		return notice.ErrChannelUnavailable
	}
	if rcpt.Email == "" {
		return notice.ErrChannelUnavailable
	}
	if err := ctx.Err(); err != nil {
		return &notice.TransientError{Channel: notice.ChannelEmail, Err: err}
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&body, "To: %s\r\n", rcpt.Email)
	fmt.Fprintf(&body, "Subject: %s\r\n", msg.Title)
	body.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	body.WriteString(msg.Body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{rcpt.Email}, []byte(body.String())); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return &notice.TransientError{Channel: notice.ChannelEmail, Err: err}
		}
		return &notice.SendFailedError{Channel: notice.ChannelEmail, Err: err}
	}

	return nil
}
