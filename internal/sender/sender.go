package sender

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/notifyhq/notify-service/internal/domain"
)

// Result is the outcome of a successful delivery attempt.
type Result struct {
	// MessageID is the transport-assigned identifier, when the transport
	// provides one.
	MessageID string
}

// Sender delivers a single notification over one channel. Expected delivery
// failures (bad recipient, provider rejection, timeout) are returned as a
// *SendError so the lifecycle engine can record and retry them; Send never
// panics for those.
type Sender interface {
	Send(ctx context.Context, destination, subject, body string) (*Result, error)
}

// SendError is a delivery failure the retry machinery should absorb.
type SendError struct {
	Reason string
	Cause  error
}

func (e *SendError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, "send failed")
	if reason := strings.TrimSpace(e.Reason); reason != "" {
		parts = append(parts, reason)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *SendError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsDeliveryFailure reports whether err is an expected delivery failure as
// opposed to a programming or infrastructure error.
func IsDeliveryFailure(err error) bool {
	var sendErr *SendError
	return errors.As(err, &sendErr)
}

// Registry holds exactly one sender per notification type. Keeping the set
// closed means adding a channel is a compile-time change here rather than a
// runtime string dispatch.
type Registry struct {
	email Sender
	sms   Sender
	inApp Sender
}

func NewRegistry(email, sms, inApp Sender) (*Registry, error) {
	if email == nil {
		return nil, fmt.Errorf("email sender is required")
	}
	if sms == nil {
		return nil, fmt.Errorf("sms sender is required")
	}
	if inApp == nil {
		return nil, fmt.Errorf("in-app sender is required")
	}

	return &Registry{email: email, sms: sms, inApp: inApp}, nil
}

// For returns the sender for a notification type.
func (r *Registry) For(t domain.Type) (Sender, error) {
	if r == nil {
		return nil, fmt.Errorf("sender registry is not initialized")
	}

	switch t {
	case domain.TypeEmail:
		return r.email, nil
	case domain.TypeSMS:
		return r.sms, nil
	case domain.TypeInApp:
		return r.inApp, nil
	}
	return nil, fmt.Errorf("no sender for notification type %q", t)
}
