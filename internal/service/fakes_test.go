package service

import (
	"context"

	"github.com/notifyhq/notify-service/internal/domain"
	"github.com/notifyhq/notify-service/internal/queue"
	"github.com/notifyhq/notify-service/internal/sender"
)

type deliveryUpdate struct {
	id         string
	status     domain.Status
	retryCount int
}

type fakeNotificationRepo struct {
	createFn         func(ctx context.Context, n *domain.Notification) error
	getByIDFn        func(ctx context.Context, id string) (*domain.Notification, error)
	listByUserFn     func(ctx context.Context, userID string, page, pageSize int) ([]domain.Notification, int64, error)
	updateDeliveryFn func(ctx context.Context, id string, status domain.Status, retryCount int) error

	created []domain.Notification
	updates []deliveryUpdate
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	f.created = append(f.created, *n)
	if f.createFn != nil {
		return f.createFn(ctx, n)
	}
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Notification, int64, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userID, page, pageSize)
	}
	return nil, 0, nil
}

func (f *fakeNotificationRepo) UpdateDelivery(ctx context.Context, id string, status domain.Status, retryCount int) error {
	f.updates = append(f.updates, deliveryUpdate{id: id, status: status, retryCount: retryCount})
	if f.updateDeliveryFn != nil {
		return f.updateDeliveryFn(ctx, id, status, retryCount)
	}
	return nil
}

type fakeUserRepo struct {
	createFn     func(ctx context.Context, u *domain.User) error
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	listFn       func(ctx context.Context) ([]domain.User, error)
	updateFn     func(ctx context.Context, u *domain.User) error
	deleteFn     func(ctx context.Context, id string) error

	created []domain.User
	updated []domain.User
	deleted []string
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.created = append(f.created, *u)
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	f.updated = append(f.updated, *u)
	if f.updateFn != nil {
		return f.updateFn(ctx, u)
	}
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type publishCall struct {
	queue string
	msg   queue.Message
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.Message) error

	published []publishCall
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.Message) error {
	f.published = append(f.published, publishCall{queue: queueName, msg: msg})
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, msg)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type sendCall struct {
	destination string
	subject     string
	body        string
}

type fakeSender struct {
	sendFn func(ctx context.Context, destination, subject, body string) (*sender.Result, error)

	calls []sendCall
}

func (f *fakeSender) Send(ctx context.Context, destination, subject, body string) (*sender.Result, error) {
	f.calls = append(f.calls, sendCall{destination: destination, subject: subject, body: body})
	if f.sendFn != nil {
		return f.sendFn(ctx, destination, subject, body)
	}
	return &sender.Result{}, nil
}

type fakeAlerter struct {
	deadLetteredFn func(ctx context.Context, n domain.Notification) error

	alerts []domain.Notification
}

func (f *fakeAlerter) DeadLettered(ctx context.Context, n domain.Notification) error {
	f.alerts = append(f.alerts, n)
	if f.deadLetteredFn != nil {
		return f.deadLetteredFn(ctx, n)
	}
	return nil
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queueName string, handler queue.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeConsumer) Close() error { return nil }

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, channel string) (bool, error)
	waitFn  func(ctx context.Context, channel string) error

	waited []string
}

func (f *fakeRateLimiter) Allow(ctx context.Context, channel string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, channel)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, channel string) error {
	f.waited = append(f.waited, channel)
	if f.waitFn != nil {
		return f.waitFn(ctx, channel)
	}
	return nil
}
