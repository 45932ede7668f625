package sender

import "context"

// InAppSender has no external transport: the persisted notification record
// is the delivery, so sending always succeeds.
type InAppSender struct{}

func NewInAppSender() *InAppSender {
	return &InAppSender{}
}

func (s *InAppSender) Send(_ context.Context, _, _, _ string) (*Result, error) {
	return &Result{}, nil
}
