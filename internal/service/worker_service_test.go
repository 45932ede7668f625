package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhq/notify-service/internal/domain"
	"github.com/notifyhq/notify-service/internal/queue"
)

type fakeProcessor struct {
	processFn func(ctx context.Context, notificationID string) (*ProcessResult, error)

	ids []string
}

func (f *fakeProcessor) Process(ctx context.Context, notificationID string) (*ProcessResult, error) {
	f.ids = append(f.ids, notificationID)
	if f.processFn != nil {
		return f.processFn(ctx, notificationID)
	}
	return &ProcessResult{Status: domain.StatusSent, Delivered: true}, nil
}

func newTestWorker(t *testing.T, processor Processor, consumer queue.Consumer, limiter *fakeRateLimiter) *WorkerService {
	t.Helper()
	svc, err := NewWorkerService(processor, consumer, limiter, 1, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWorkerService() error = %v", err)
	}
	return svc
}

func TestWorkerHandlerAcksOnSuccess(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{}
	limiter := &fakeRateLimiter{}
	svc := newTestWorker(t, processor, &fakeConsumer{}, limiter)

	handler := svc.handlerFor(queue.EmailQueue, "email")
	if err := handler(context.Background(), queue.Message{NotificationID: "n-1"}); err != nil {
		t.Fatalf("handler error = %v, want nil (ack)", err)
	}
	if len(processor.ids) != 1 || processor.ids[0] != "n-1" {
		t.Errorf("processed ids = %v, want [n-1]", processor.ids)
	}
	if len(limiter.waited) != 1 || limiter.waited[0] != "email" {
		t.Errorf("rate limiter waited on %v, want [email]", limiter.waited)
	}
}

func TestWorkerHandlerAcksOnMissingRecord(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{
		processFn: func(context.Context, string) (*ProcessResult, error) {
			return nil, domain.ErrNotFound
		},
	}
	svc := newTestWorker(t, processor, &fakeConsumer{}, &fakeRateLimiter{})

	handler := svc.handlerFor(queue.EmailQueue, "email")
	if err := handler(context.Background(), queue.Message{NotificationID: "ghost"}); err != nil {
		t.Fatalf("handler error = %v, want nil (ack and drop)", err)
	}
}

func TestWorkerHandlerNacksOnInfrastructureError(t *testing.T) {
	t.Parallel()

	infraErr := errors.New("database unreachable")
	processor := &fakeProcessor{
		processFn: func(context.Context, string) (*ProcessResult, error) {
			return nil, infraErr
		},
	}
	svc := newTestWorker(t, processor, &fakeConsumer{}, &fakeRateLimiter{})

	handler := svc.handlerFor(queue.SMSQueue, "sms")
	if err := handler(context.Background(), queue.Message{NotificationID: "n-1"}); !errors.Is(err, infraErr) {
		t.Fatalf("handler error = %v, want the infrastructure error (nack)", err)
	}
}

func TestWorkerHandlerAcksOnRecordedFailure(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{
		processFn: func(context.Context, string) (*ProcessResult, error) {
			return &ProcessResult{Status: domain.StatusFailed, FailureReason: "mailbox full"}, nil
		},
	}
	svc := newTestWorker(t, processor, &fakeConsumer{}, &fakeRateLimiter{})

	handler := svc.handlerFor(queue.EmailQueue, "email")
	if err := handler(context.Background(), queue.Message{NotificationID: "n-1"}); err != nil {
		t.Fatalf("handler error = %v, want nil (failure already recorded)", err)
	}
}

func TestWorkerHandlerPropagatesRateLimiterError(t *testing.T) {
	t.Parallel()

	limiter := &fakeRateLimiter{
		waitFn: func(ctx context.Context, _ string) error {
			return context.Canceled
		},
	}
	processor := &fakeProcessor{}
	svc := newTestWorker(t, processor, &fakeConsumer{}, limiter)

	handler := svc.handlerFor(queue.EmailQueue, "email")
	if err := handler(context.Background(), queue.Message{NotificationID: "n-1"}); err == nil {
		t.Fatal("handler error = nil, want rate limiter error")
	}
	if len(processor.ids) != 0 {
		t.Errorf("processed %d messages, want 0", len(processor.ids))
	}
}

func TestWorkerStartConsumesAllQueues(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		consumed []string
	)
	consumer := &fakeConsumer{
		consumeFn: func(ctx context.Context, queueName string, _ queue.MessageHandler) error {
			mu.Lock()
			consumed = append(consumed, queueName)
			mu.Unlock()
			<-ctx.Done()
			return nil
		},
	}
	svc, err := NewWorkerService(&fakeProcessor{}, consumer, nil, 2, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWorkerService() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	// Wait for every consumer goroutine to register.
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(consumed)
		mu.Unlock()
		if n == 2*len(queue.WorkQueueNames()) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("only %d consumers registered", n)
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	sort.Strings(consumed)
	seen := map[string]int{}
	for _, q := range consumed {
		seen[q]++
	}
	for _, q := range queue.WorkQueueNames() {
		if seen[q] != 2 {
			t.Errorf("queue %s consumed by %d workers, want 2", q, seen[q])
		}
	}
}

func TestWorkerStartStopsWhenConsumerFails(t *testing.T) {
	t.Parallel()

	consumerErr := errors.New("channel closed")
	consumer := &fakeConsumer{
		consumeFn: func(ctx context.Context, queueName string, _ queue.MessageHandler) error {
			if queueName == queue.EmailQueue {
				return consumerErr
			}
			<-ctx.Done()
			return nil
		},
	}
	svc := newTestWorker(t, &fakeProcessor{}, consumer, &fakeRateLimiter{})

	if err := svc.Start(context.Background()); !errors.Is(err, consumerErr) {
		t.Fatalf("Start() error = %v, want %v", err, consumerErr)
	}
}
