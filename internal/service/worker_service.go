package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notifyhq/notify-service/internal/domain"
	"github.com/notifyhq/notify-service/internal/observability"
	"github.com/notifyhq/notify-service/internal/queue"
	"github.com/notifyhq/notify-service/internal/ratelimit"
)

// Processor runs a single delivery attempt for a queued work item.
type Processor interface {
	Process(ctx context.Context, notificationID string) (*ProcessResult, error)
}

// WorkerService fans consumers out over the per-channel work queues and
// translates processing outcomes into ack or nack decisions.
type WorkerService struct {
	processor         Processor
	consumer          queue.Consumer
	rateLimiter       ratelimit.RateLimiter
	logger            *zap.Logger
	metrics           *observability.Metrics
	consumersPerQueue int
}

func NewWorkerService(
	processor Processor,
	consumer queue.Consumer,
	rateLimiter ratelimit.RateLimiter,
	consumersPerQueue int,
	logger *zap.Logger,
) (*WorkerService, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if consumersPerQueue < 1 {
		consumersPerQueue = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerService{
		processor:         processor,
		consumer:          consumer,
		rateLimiter:       rateLimiter,
		logger:            logger,
		consumersPerQueue: consumersPerQueue,
	}, nil
}

func (s *WorkerService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Start blocks consuming all work queues until the context is cancelled or
// a consumer fails unrecoverably.
func (s *WorkerService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)

	for _, queueName := range queue.WorkQueueNames() {
		notificationType, err := queue.TypeFor(queueName)
		if err != nil {
			return err
		}
		channel := strings.ToLower(notificationType.String())

		for i := 0; i < s.consumersPerQueue; i++ {
			workerID := i + 1
			queueName := queueName
			g.Go(func() error {
				s.logger.Info("worker started",
					zap.String("queue", queueName),
					zap.Int("workerId", workerID),
				)
				if err := s.consumer.Consume(groupCtx, queueName, s.handlerFor(queueName, channel)); err != nil {
					return fmt.Errorf("consumer for %s: %w", queueName, err)
				}
				s.logger.Info("worker stopped",
					zap.String("queue", queueName),
					zap.Int("workerId", workerID),
				)
				return nil
			})
		}
	}

	return g.Wait()
}

// handlerFor builds the per-queue message handler. A nil return acks the
// delivery; an error return nacks it back onto the queue, so only
// infrastructure failures may produce one.
func (s *WorkerService) handlerFor(queueName, channel string) queue.MessageHandler {
	return func(ctx context.Context, msg queue.Message) error {
		s.metrics.IncWorkerInFlight(channel)
		defer s.metrics.DecWorkerInFlight(channel)

		if s.rateLimiter != nil {
			if err := s.rateLimiter.Wait(ctx, channel); err != nil {
				return fmt.Errorf("rate limiter wait for %s: %w", channel, err)
			}
		}

		result, err := s.processor.Process(ctx, msg.NotificationID)
		if err != nil {
			// A missing notification or user cannot be fixed by
			// redelivery; drop the work item.
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("dropping work item for missing record",
					zap.String("queue", queueName),
					zap.String("notificationId", msg.NotificationID),
					zap.Error(err),
				)
				return nil
			}
			return err
		}

		if !result.Delivered {
			s.logger.Info("delivery attempt failed and was recorded",
				zap.String("queue", queueName),
				zap.String("notificationId", msg.NotificationID),
				zap.String("reason", result.FailureReason),
			)
		}

		return nil
	}
}
