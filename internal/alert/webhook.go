// Package alert notifies operational endpoints about dead-lettered
// notifications. Alerts are fire-and-forget from the pipeline's point of
// view: a failed alert is logged by the caller, never retried.
package alert

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/notifyhq/notify-service/internal/domain"
)

const defaultWebhookTimeout = 10 * time.Second

type deadLetterPayload struct {
	NotificationID string `json:"notificationId"`
	UserID         string `json:"userId"`
	Type           string `json:"type"`
	RetryCount     int    `json:"retryCount"`
	FailedAt       string `json:"failedAt"`
}

// WebhookAlerter posts dead-letter events to an HTTP endpoint.
type WebhookAlerter struct {
	client   *resty.Client
	endpoint string
	now      func() time.Time
}

func NewWebhookAlerter(endpoint string) (*WebhookAlerter, error) {
	client := resty.New()
	client.SetTimeout(defaultWebhookTimeout)
	client.SetRetryCount(0)

	return NewWebhookAlerterWithClient(endpoint, client)
}

func NewWebhookAlerterWithClient(endpoint string, client *resty.Client) (*WebhookAlerter, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultWebhookTimeout)
	}
	client.SetRetryCount(0)

	return &WebhookAlerter{
		client:   client,
		endpoint: trimmedEndpoint,
		now:      time.Now,
	}, nil
}

// DeadLettered reports a notification that exhausted its retry budget.
func (a *WebhookAlerter) DeadLettered(ctx context.Context, n domain.Notification) error {
	if a == nil || a.client == nil {
		return fmt.Errorf("alerter is not initialized")
	}

	payload := deadLetterPayload{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type.String(),
		RetryCount:     n.RetryCount,
		FailedAt:       a.now().UTC().Format(time.RFC3339),
	}

	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(a.endpoint)
	if err != nil {
		return fmt.Errorf("dead-letter alert request failed: %w", err)
	}

	statusCode := response.StatusCode()
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("dead-letter alert endpoint returned status %d", statusCode)
	}

	return nil
}
