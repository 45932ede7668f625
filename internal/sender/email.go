package sender

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"
)

// PostmarkSender delivers email notifications through Postmark's
// transactional API. Address validation is delegated to the transport; a
// rejected recipient comes back as a *SendError, not a panic.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

func NewPostmarkSender(serverToken, accountToken, from string) (*PostmarkSender, error) {
	if strings.TrimSpace(serverToken) == "" {
		return nil, fmt.Errorf("postmark server token is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("sender email address is required")
	}

	return &PostmarkSender{
		client: postmark.NewClient(serverToken, accountToken),
		from:   strings.TrimSpace(from),
	}, nil
}

func (s *PostmarkSender) Send(ctx context.Context, destination, subject, body string) (*Result, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("postmark sender is not initialized")
	}
	if strings.TrimSpace(destination) == "" {
		return nil, &SendError{Reason: "recipient email address is empty"}
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       destination,
		Subject:  subject,
		HTMLBody: body,
	})
	if err != nil {
		return nil, &SendError{Reason: "postmark request failed", Cause: err}
	}
	if resp.ErrorCode > 0 {
		return nil, &SendError{
			Reason: fmt.Sprintf("postmark error %d: %s", resp.ErrorCode, resp.Message),
		}
	}

	return &Result{MessageID: resp.MessageID}, nil
}
