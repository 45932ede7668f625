package queue

import (
	"fmt"
	"strings"
)

// Message is the broker payload: a pointer to a notification, not a copy of
// it. Workers re-fetch the record on every attempt so retry bookkeeping
// lives in the store, never in the message.
type Message struct {
	NotificationID string `json:"notificationId"`
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.NotificationID) == "" {
		return fmt.Errorf("notificationId is required")
	}
	return nil
}
