package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhq/notify-service/internal/alert"
	"github.com/notifyhq/notify-service/internal/config"
	"github.com/notifyhq/notify-service/internal/infra/postgresql"
	infraredis "github.com/notifyhq/notify-service/internal/infra/redis"
	"github.com/notifyhq/notify-service/internal/observability"
	"github.com/notifyhq/notify-service/internal/queue"
	"github.com/notifyhq/notify-service/internal/repository"
	"github.com/notifyhq/notify-service/internal/sender"
	"github.com/notifyhq/notify-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("invalid worker config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN, postgresql.Pool{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute,
	})
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()
	publisher := queue.NewRabbitMQPublisher(rabbit)
	consumer := queue.NewRabbitMQConsumer(rabbit, 1, logger)

	emailSender, err := sender.NewPostmarkSender(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, cfg.SenderEmail)
	if err != nil {
		logger.Fatal("postmark sender initialization failed", zap.Error(err))
	}
	smsSender, err := sender.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	if err != nil {
		logger.Fatal("twilio sender initialization failed", zap.Error(err))
	}
	registry, err := sender.NewRegistry(emailSender, smsSender, sender.NewInAppSender())
	if err != nil {
		logger.Fatal("sender registry initialization failed", zap.Error(err))
	}

	rateLimiter, err := infraredis.NewRateLimiter(rdb, cfg.RateLimitPerWindow, infraredis.Options{
		Window: time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
	})
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	notificationRepo := repository.NewGormNotificationRepo(db)
	userRepo := repository.NewGormUserRepo(db)

	engine, err := service.NewNotificationService(notificationRepo, userRepo, publisher, logger)
	if err != nil {
		logger.Fatal("notification service initialization failed", zap.Error(err))
	}
	engine.SetSenders(registry)
	engine.SetSendTimeout(time.Duration(cfg.SendTimeoutSeconds) * time.Second)

	metrics := observability.NewMetrics()
	engine.SetMetrics(metrics)

	if cfg.DeadLetterWebhookURL != "" {
		alerter, err := alert.NewWebhookAlerter(cfg.DeadLetterWebhookURL)
		if err != nil {
			logger.Fatal("dead-letter alerter initialization failed", zap.Error(err))
		}
		engine.SetAlerter(alerter)
	}

	worker, err := service.NewWorkerService(engine, consumer, rateLimiter, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("notify-service worker started",
		zap.Strings("queues", queue.WorkQueueNames()),
		zap.Int("consumersPerQueue", cfg.WorkerConcurrency),
	)

	if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("worker stopped", zap.Error(err))
	}
	logger.Info("notify-service worker stopped")
}
