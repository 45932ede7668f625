package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a notification.
//
// The delivery pipeline moves pending -> sent|failed; a failed notification
// is either requeued for another attempt or dead-lettered once its retry
// budget is spent. delivered and read are set outside the pipeline (channel
// receipts and user action respectively).
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed, StatusDelivered, StatusRead:
		return true
	}
	return false
}

// IsTerminalForDelivery reports whether the delivery pipeline must not
// attempt to send this notification again. Duplicate queue deliveries for a
// notification in one of these states are acknowledged as no-op successes.
func (s Status) IsTerminalForDelivery() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead:
		return true
	}
	return false
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Type represents the delivery channel of a notification.
type Type string

const (
	TypeEmail Type = "email"
	TypeSMS   Type = "sms"
	TypeInApp Type = "inApp"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case TypeEmail, TypeSMS, TypeInApp:
		return true
	}
	return false
}

func ParseTypeFromString(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "email":
		return TypeEmail, nil
	case "sms":
		return TypeSMS, nil
	case "inapp":
		return TypeInApp, nil
	}
	return "", fmt.Errorf("%w: invalid notification type %q, must be one of: email, sms, inApp", ErrValidation, s)
}

// Metadata is an opaque string-to-string payload attached at creation.
type Metadata map[string]string

// Notification is the core domain entity moving through the delivery pipeline.
type Notification struct {
	ID         string
	UserID     string
	Type       Type
	Title      string
	Message    string
	Metadata   Metadata
	Status     Status
	RetryCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (n *Notification) Validate() error {
	if strings.TrimSpace(n.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if !n.Type.IsValid() {
		return fmt.Errorf("%w: invalid notification type %q", ErrValidation, n.Type)
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(n.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	return nil
}
