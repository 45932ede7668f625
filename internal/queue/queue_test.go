package queue

import (
	"encoding/json"
	"testing"

	"github.com/notifyhq/notify-service/internal/domain"
)

func TestQueueFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  domain.Type
		want string
	}{
		{typ: domain.TypeEmail, want: "email_notifications"},
		{typ: domain.TypeSMS, want: "sms_notifications"},
		{typ: domain.TypeInApp, want: "inapp_notifications"},
	}

	for _, tc := range tests {
		got, err := QueueFor(tc.typ)
		if err != nil {
			t.Fatalf("QueueFor(%s) error = %v", tc.typ, err)
		}
		if got != tc.want {
			t.Fatalf("QueueFor(%s) = %s, want %s", tc.typ, got, tc.want)
		}
	}

	if _, err := QueueFor(domain.Type("fax")); err == nil {
		t.Fatal("QueueFor should reject unknown types")
	}
}

func TestTypeForRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range WorkQueueNames() {
		typ, err := TypeFor(name)
		if err != nil {
			t.Fatalf("TypeFor(%s) error = %v", name, err)
		}
		back, err := QueueFor(typ)
		if err != nil {
			t.Fatalf("QueueFor(%s) error = %v", typ, err)
		}
		if back != name {
			t.Fatalf("round trip %s -> %s -> %s", name, typ, back)
		}
	}

	if _, err := TypeFor(DeadLetterQueue); err == nil {
		t.Fatal("the dead-letter queue has no notification type")
	}
}

func TestWorkQueueNames(t *testing.T) {
	t.Parallel()

	names := WorkQueueNames()
	if len(names) != 3 {
		t.Fatalf("WorkQueueNames len = %d, want 3", len(names))
	}
	for _, name := range names {
		if name == DeadLetterQueue {
			t.Fatal("dead-letter queue must not be a work queue")
		}
	}
}

func TestMessageWireFormat(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(Message{NotificationID: "n-42"})
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}
	if string(payload) != `{"notificationId":"n-42"}` {
		t.Fatalf("payload = %s, want {\"notificationId\":\"n-42\"}", payload)
	}

	if err := (Message{}).Validate(); err == nil {
		t.Fatal("empty message should fail validation")
	}
	if err := (Message{NotificationID: " "}).Validate(); err == nil {
		t.Fatal("blank notificationId should fail validation")
	}
}
