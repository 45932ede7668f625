package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	// Provider credentials are only needed by the worker; the API runs
	// without them.
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL"`
	TwilioAccountSID     string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber     string `env:"TWILIO_FROM_NUMBER"`

	DeadLetterWebhookURL string `env:"DEADLETTER_WEBHOOK_URL"`

	DBMaxOpenConns           int `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBMaxIdleConns           int `env:"DB_MAX_IDLE_CONNS,default=5"`
	DBConnMaxLifetimeMinutes int `env:"DB_CONN_MAX_LIFETIME_MINUTES,default=60"`

	RateLimitPerWindow     int    `env:"RATE_LIMIT_PER_WINDOW,default=100"`
	RateLimitWindowSeconds int    `env:"RATE_LIMIT_WINDOW_SECONDS,default=1"`
	WorkerConcurrency      int    `env:"WORKER_CONCURRENCY,default=1"`
	SendTimeoutSeconds     int    `env:"SEND_TIMEOUT_SECONDS,default=10"`
	APIPort                int    `env:"API_PORT,default=8080"`
	LogLevel               string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// ValidateWorker checks the extra settings the delivery worker needs. The
// email and SMS providers must both be configured; in-app delivery has no
// external dependency.
func (c *Config) ValidateWorker() error {
	if c.PostmarkServerToken == "" || c.SenderEmail == "" {
		return fmt.Errorf("POSTMARK_SERVER_TOKEN and SENDER_EMAIL are required for the worker")
	}
	if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioFromNumber == "" {
		return fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER are required for the worker")
	}
	return nil
}
