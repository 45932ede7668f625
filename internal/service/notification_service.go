package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notifyhq/notify-service/internal/domain"
	"github.com/notifyhq/notify-service/internal/observability"
	"github.com/notifyhq/notify-service/internal/queue"
	"github.com/notifyhq/notify-service/internal/repository"
	"github.com/notifyhq/notify-service/internal/sender"
)

const (
	// MaxRetries bounds failed delivery attempts per notification. The
	// retry count is incremented to exactly this value before the
	// notification is dead-lettered, never beyond it.
	MaxRetries = 3

	defaultSendTimeout = 10 * time.Second
)

// UserResolver is the slice of the user collaborator the delivery pipeline
// needs: recipient lookup, nothing else.
type UserResolver interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// DeadLetterAlerter is notified after a notification exhausts its retry
// budget. Alert failures are logged and never fail the pipeline.
type DeadLetterAlerter interface {
	DeadLettered(ctx context.Context, n domain.Notification) error
}

// CreateParams carries the caller-supplied fields of a new notification.
type CreateParams struct {
	UserID   string
	Type     domain.Type
	Title    string
	Message  string
	Metadata domain.Metadata
}

// ProcessResult is the business outcome of one delivery attempt. Delivered
// false means the attempt failed and was durably recorded (retry or
// dead-letter); it is not an error from the worker's point of view.
type ProcessResult struct {
	Status        domain.Status
	Delivered     bool
	FailureReason string
}

// Pagination describes one page of a user's notification feed.
type Pagination struct {
	Total int64
	Page  int
	Limit int
	Pages int64
}

// NotificationService drives a notification through its lifecycle: it owns
// no persistent state itself but mediates between the store, the senders,
// and the queue broker.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         UserResolver
	publisher     queue.Publisher
	senders       *sender.Registry
	alerter       DeadLetterAlerter
	logger        *zap.Logger
	metrics       *observability.Metrics
	sendTimeout   time.Duration
	now           func() time.Time
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	users UserResolver,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*NotificationService, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user resolver is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotificationService{
		notifications: notifications,
		users:         users,
		publisher:     publisher,
		logger:        logger,
		sendTimeout:   defaultSendTimeout,
		now:           time.Now,
	}, nil
}

// SetSenders wires the per-channel senders. Required before Process is
// called; the API process serving only Create/List/MarkAsRead skips it.
func (s *NotificationService) SetSenders(senders *sender.Registry) {
	if s == nil {
		return
	}
	s.senders = senders
}

func (s *NotificationService) SetAlerter(alerter DeadLetterAlerter) {
	if s == nil {
		return
	}
	s.alerter = alerter
}

func (s *NotificationService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *NotificationService) SetSendTimeout(timeout time.Duration) {
	if s == nil || timeout <= 0 {
		return
	}
	s.sendTimeout = timeout
}

// Create persists a pending notification and publishes a work item to the
// channel queue. A publish failure is surfaced to the caller; the
// notification stays pending and undelivered until something re-enqueues it.
func (s *NotificationService) Create(ctx context.Context, params CreateParams) (*domain.Notification, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	n := &domain.Notification{
		ID:       uuid.NewString(),
		UserID:   strings.TrimSpace(params.UserID),
		Type:     params.Type,
		Title:    strings.TrimSpace(params.Title),
		Message:  strings.TrimSpace(params.Message),
		Metadata: params.Metadata,
		Status:   domain.StatusPending,
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, n.UserID); err != nil {
		return nil, fmt.Errorf("user %s: %w", n.UserID, err)
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	queueName, err := queue.QueueFor(n.Type)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, queueName, queue.Message{NotificationID: n.ID}); err != nil {
		s.logger.Error("failed to enqueue notification; record stays pending",
			zap.String("notificationId", n.ID),
			zap.String("queue", queueName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("notification %s persisted but enqueue failed: %w", n.ID, err)
	}

	s.logger.Info("notification enqueued",
		zap.String("notificationId", n.ID),
		zap.String("userId", n.UserID),
		zap.String("type", n.Type.String()),
	)

	return n, nil
}

// Process runs a single delivery attempt. Business failures are recorded in
// the notification record and reported through the result; only
// infrastructure failures (store or broker unreachable) and missing records
// come back as errors.
func (s *NotificationService) Process(ctx context.Context, notificationID string) (*ProcessResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("notification %s: %w", notificationID, err)
	}

	// A record that was already sent, delivered, or read is not sent
	// again: duplicate queue deliveries collapse into a no-op success.
	if n.Status.IsTerminalForDelivery() {
		s.logger.Debug("skipping already-delivered notification",
			zap.String("notificationId", n.ID),
			zap.String("status", n.Status.String()),
		)
		return &ProcessResult{Status: n.Status, Delivered: true}, nil
	}

	user, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		return nil, fmt.Errorf("user %s for notification %s: %w", n.UserID, n.ID, err)
	}

	if s.senders == nil {
		return nil, fmt.Errorf("sender registry is not configured")
	}
	channelSender, err := s.senders.For(n.Type)
	if err != nil {
		return nil, err
	}

	destination, precondition := destinationFor(n.Type, user)
	if precondition != "" {
		return s.recordFailure(ctx, n, precondition)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	sendStart := s.now()
	result, sendErr := channelSender.Send(sendCtx, destination, n.Title, n.Message)
	s.metrics.ObserveNotificationSendDuration(channelLabel(n.Type), s.now().Sub(sendStart))

	if sendErr != nil {
		// Only expected delivery failures consume the retry budget. A
		// sender blowing up some other way is an infrastructure problem;
		// surface it so the work item is redelivered untouched.
		if !sender.IsDeliveryFailure(sendErr) {
			return nil, fmt.Errorf("sender for %s notification %s: %w", n.Type, n.ID, sendErr)
		}
		return s.recordFailure(ctx, n, sendErr.Error())
	}

	if err := s.notifications.UpdateDelivery(ctx, n.ID, domain.StatusSent, n.RetryCount); err != nil {
		return nil, fmt.Errorf("failed to mark notification %s sent: %w", n.ID, err)
	}
	n.Status = domain.StatusSent
	s.metrics.IncNotificationSent(channelLabel(n.Type))

	messageID := ""
	if result != nil {
		messageID = result.MessageID
	}
	s.logger.Info("notification sent",
		zap.String("notificationId", n.ID),
		zap.String("type", n.Type.String()),
		zap.String("messageId", messageID),
	)

	return &ProcessResult{Status: domain.StatusSent, Delivered: true}, nil
}

// recordFailure persists the failed attempt and routes the notification to
// either the typed queue (retry) or the dead-letter queue. The retry
// bookkeeping lives entirely in the record; the fresh work item published
// here is deliberately separate from the broker's own redelivery-on-nack,
// which is reserved for infrastructure failures.
func (s *NotificationService) recordFailure(ctx context.Context, n *domain.Notification, reason string) (*ProcessResult, error) {
	n.RetryCount++
	n.Status = domain.StatusFailed

	if err := s.notifications.UpdateDelivery(ctx, n.ID, domain.StatusFailed, n.RetryCount); err != nil {
		return nil, fmt.Errorf("failed to record failed attempt for notification %s: %w", n.ID, err)
	}
	s.metrics.IncNotificationFailed(channelLabel(n.Type))

	if n.RetryCount < MaxRetries {
		queueName, err := queue.QueueFor(n.Type)
		if err != nil {
			return nil, err
		}
		if err := s.publisher.Publish(ctx, queueName, queue.Message{NotificationID: n.ID}); err != nil {
			return nil, fmt.Errorf("failed to requeue notification %s: %w", n.ID, err)
		}
		s.metrics.IncRetry(channelLabel(n.Type))
		s.logger.Info("notification requeued for retry",
			zap.String("notificationId", n.ID),
			zap.Int("retryCount", n.RetryCount),
			zap.Int("maxRetries", MaxRetries),
			zap.String("reason", reason),
		)
		return &ProcessResult{Status: domain.StatusFailed, FailureReason: reason}, nil
	}

	if err := s.publisher.Publish(ctx, queue.DeadLetterQueue, queue.Message{NotificationID: n.ID}); err != nil {
		return nil, fmt.Errorf("failed to dead-letter notification %s: %w", n.ID, err)
	}
	s.metrics.IncNotificationDeadLettered(channelLabel(n.Type))
	s.logger.Warn("notification dead-lettered after exhausting retries",
		zap.String("notificationId", n.ID),
		zap.Int("retryCount", n.RetryCount),
		zap.String("reason", reason),
	)

	if s.alerter != nil {
		if alertErr := s.alerter.DeadLettered(ctx, *n); alertErr != nil {
			s.logger.Warn("dead-letter alert failed",
				zap.String("notificationId", n.ID),
				zap.Error(alertErr),
			)
		}
	}

	return &ProcessResult{Status: domain.StatusFailed, FailureReason: reason}, nil
}

// MarkAsRead unconditionally moves a notification to read. There is no
// state guard: even a pending or failed notification can be marked read.
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error) {
	if strings.TrimSpace(notificationID) == "" {
		return nil, fmt.Errorf("%w: notification id is required", domain.ErrValidation)
	}

	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("notification %s: %w", notificationID, err)
	}

	if err := s.notifications.UpdateDelivery(ctx, n.ID, domain.StatusRead, n.RetryCount); err != nil {
		return nil, fmt.Errorf("failed to mark notification %s read: %w", n.ID, err)
	}

	// Reload so the response carries the timestamps the store wrote, not a
	// second clock reading taken here.
	updated, err := s.notifications.GetByID(ctx, n.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload notification %s: %w", n.ID, err)
	}
	return updated, nil
}

// ListByUser returns one page of a user's notifications, newest first.
func (s *NotificationService) ListByUser(ctx context.Context, userID string, page, limit int) ([]domain.Notification, *Pagination, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if page < 1 {
		return nil, nil, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if limit < 1 {
		return nil, nil, fmt.Errorf("%w: limit must be >= 1", domain.ErrValidation)
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, nil, fmt.Errorf("user %s: %w", userID, err)
	}

	items, total, err := s.notifications.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, nil, err
	}

	pages := (total + int64(limit) - 1) / int64(limit)
	return items, &Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}, nil
}

// destinationFor picks the sender target for a channel. The empty second
// return means the precondition holds; otherwise it is the failure reason
// for this attempt.
func destinationFor(t domain.Type, user *domain.User) (string, string) {
	switch t {
	case domain.TypeEmail:
		return user.Email, ""
	case domain.TypeSMS:
		if strings.TrimSpace(user.Phone) == "" {
			return "", fmt.Sprintf("user %s has no phone number", user.ID)
		}
		return user.Phone, ""
	case domain.TypeInApp:
		return user.ID, ""
	}
	return "", fmt.Sprintf("unknown notification type %q", t)
}

func channelLabel(t domain.Type) string {
	return strings.ToLower(t.String())
}
