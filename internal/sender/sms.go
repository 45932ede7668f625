package sender

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// smsAPI is the slice of the Twilio REST surface this sender uses.
type smsAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender delivers SMS notifications through the Twilio messaging API.
// The subject is dropped; SMS has no subject line.
type TwilioSender struct {
	api  smsAPI
	from string
}

func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if strings.TrimSpace(accountSID) == "" || strings.TrimSpace(authToken) == "" {
		return nil, fmt.Errorf("twilio account sid and auth token are required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return NewTwilioSenderWithAPI(client.Api, from)
}

func NewTwilioSenderWithAPI(api smsAPI, from string) (*TwilioSender, error) {
	if api == nil {
		return nil, fmt.Errorf("twilio api client is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("twilio from number is required")
	}

	return &TwilioSender{api: api, from: strings.TrimSpace(from)}, nil
}

func (s *TwilioSender) Send(ctx context.Context, destination, _ string, body string) (*Result, error) {
	if s == nil || s.api == nil {
		return nil, fmt.Errorf("twilio sender is not initialized")
	}
	if strings.TrimSpace(destination) == "" {
		return nil, &SendError{Reason: "recipient phone number is empty"}
	}
	if err := ctx.Err(); err != nil {
		return nil, &SendError{Reason: "send canceled", Cause: err}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(destination)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return nil, &SendError{Reason: fmt.Sprintf("twilio send to %s failed", destination), Cause: err}
	}

	result := &Result{}
	if msg != nil && msg.Sid != nil {
		result.MessageID = *msg.Sid
	}
	return result, nil
}
