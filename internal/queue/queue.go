package queue

import (
	"context"
	"fmt"

	"github.com/notifyhq/notify-service/internal/domain"
)

// Reserved queue names. Work queues carry delivery triggers for one channel
// each; the dead-letter queue holds notifications that exhausted their retry
// budget and is consumed by operational tooling, not by this service.
const (
	EmailQueue      = "email_notifications"
	SMSQueue        = "sms_notifications"
	InAppQueue      = "inapp_notifications"
	DeadLetterQueue = "failed_notifications"
)

// Publisher publishes work items to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg Message) error
	Close() error
}

// MessageHandler handles a consumed work item. A nil return acknowledges the
// message; an error negatively acknowledges it with requeue.
type MessageHandler func(ctx context.Context, msg Message) error

// Consumer consumes work items from a queue with manual acknowledgment.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// QueueFor returns the work queue for a notification type.
func QueueFor(t domain.Type) (string, error) {
	switch t {
	case domain.TypeEmail:
		return EmailQueue, nil
	case domain.TypeSMS:
		return SMSQueue, nil
	case domain.TypeInApp:
		return InAppQueue, nil
	}
	return "", fmt.Errorf("no queue for notification type %q", t)
}

// TypeFor is the inverse of QueueFor, used by workers to label the channel
// they are draining.
func TypeFor(queue string) (domain.Type, error) {
	switch queue {
	case EmailQueue:
		return domain.TypeEmail, nil
	case SMSQueue:
		return domain.TypeSMS, nil
	case InAppQueue:
		return domain.TypeInApp, nil
	}
	return "", fmt.Errorf("no notification type for queue %q", queue)
}

// WorkQueueNames returns every work queue a worker process must drain.
func WorkQueueNames() []string {
	return []string{EmailQueue, SMSQueue, InAppQueue}
}
