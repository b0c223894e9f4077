package notice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyAudience means recipient resolution yielded zero accounts.
	// Callers treat this as a no-op, not an abort.
	ErrEmptyAudience = errors.New("recipient resolution yielded no recipients")

	// ErrNotFound means no notification exists for the (id, recipient)
	// pair. It deliberately does not distinguish "does not exist" from
	// "owned by someone else".
	ErrNotFound = errors.New("notification not found")

	// ErrChannelUnavailable means no transport is configured for the
	// channel. Dispatch skips it without treating it as an error.
	ErrChannelUnavailable = errors.New("channel transport not configured")
)

// InvalidPayloadError rejects a target or action payload that does not
// match the fixed shape. It aborts the whole batch before any persistence.
type InvalidPayloadError struct {
	Field   string
	Reasons []string
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("invalid %s payload: %s", e.Field, strings.Join(e.Reasons, "; "))
}

// SendFailedError means a transport was reached and rejected the send.
type SendFailedError struct {
	Channel Channel
	Err     error
}

func (e *SendFailedError) Error() string {
	return fmt.Sprintf("channel %s send failed: %v", e.Channel, e.Err)
}

func (e *SendFailedError) Unwrap() error { return e.Err }

// TransientError means the attempt failed on a network or timeout
// condition and is eligible for external retry.
type TransientError struct {
	Channel Channel
	Err     error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("channel %s transient failure: %v", e.Channel, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
