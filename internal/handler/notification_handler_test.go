package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/notifyhq/notify-service/internal/domain"
	"github.com/notifyhq/notify-service/internal/service"
	"github.com/notifyhq/notify-service/internal/transport"
)

type stubNotificationService struct {
	createFn     func(ctx context.Context, params service.CreateParams) (*domain.Notification, error)
	markAsReadFn func(ctx context.Context, id string) (*domain.Notification, error)
	listByUserFn func(ctx context.Context, userID string, page, limit int) ([]domain.Notification, *service.Pagination, error)
}

func (s *stubNotificationService) Create(ctx context.Context, params service.CreateParams) (*domain.Notification, error) {
	return s.createFn(ctx, params)
}

func (s *stubNotificationService) MarkAsRead(ctx context.Context, id string) (*domain.Notification, error) {
	return s.markAsReadFn(ctx, id)
}

func (s *stubNotificationService) ListByUser(ctx context.Context, userID string, page, limit int) ([]domain.Notification, *service.Pagination, error) {
	return s.listByUserFn(ctx, userID, page, limit)
}

func newNotificationApp(t *testing.T, svc NotificationService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
	if err := RegisterNotificationRoutes(app.Group("/api"), svc); err != nil {
		t.Fatalf("RegisterNotificationRoutes() error = %v", err)
	}
	return app
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestCreateNotificationEndpoint(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationService{
		createFn: func(_ context.Context, params service.CreateParams) (*domain.Notification, error) {
			if params.UserID != "user-1" || params.Type != domain.TypeEmail {
				t.Errorf("params = %+v, want user-1/email", params)
			}
			return &domain.Notification{
				ID: "n-1", UserID: params.UserID, Type: params.Type,
				Title: params.Title, Message: params.Message,
				Status: domain.StatusPending,
			}, nil
		},
	}
	app := newNotificationApp(t, svc)

	payload := bytes.NewBufferString(`{"userId":"user-1","type":"email","title":"Welcome","message":"Hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	body := decodeEnvelope(t, resp)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want object", body["data"])
	}
	if data["id"] != "n-1" || data["status"] != "pending" {
		t.Errorf("data = %v, want id n-1 with status pending", data)
	}
}

func TestCreateNotificationEndpointErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"invalid json", `{`, nil, http.StatusBadRequest},
		{"bad type", `{"userId":"u","type":"fax","title":"t","message":"m"}`, nil, http.StatusBadRequest},
		{"unknown user", `{"userId":"ghost","type":"email","title":"t","message":"m"}`, fmt.Errorf("user ghost: %w", domain.ErrNotFound), http.StatusNotFound},
		{"broker down", `{"userId":"u","type":"email","title":"t","message":"m"}`, fmt.Errorf("enqueue failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubNotificationService{
				createFn: func(context.Context, service.CreateParams) (*domain.Notification, error) {
					return nil, tt.serviceErr
				},
			}
			app := newNotificationApp(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/notifications", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			body := decodeEnvelope(t, resp)
			if body["success"] != false {
				t.Errorf("success = %v, want false", body["success"])
			}
			if body["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestMarkNotificationReadEndpoint(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationService{
		markAsReadFn: func(_ context.Context, id string) (*domain.Notification, error) {
			if id != "n-1" {
				t.Errorf("id = %s, want n-1", id)
			}
			return &domain.Notification{ID: id, UserID: "user-1", Type: domain.TypeInApp, Status: domain.StatusRead}, nil
		},
	}
	app := newNotificationApp(t, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/api/notifications/n-1/read", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body := decodeEnvelope(t, resp)
	data := body["data"].(map[string]any)
	if data["status"] != "read" {
		t.Errorf("status = %v, want read", data["status"])
	}
}

func TestMarkNotificationReadEndpointNotFound(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationService{
		markAsReadFn: func(_ context.Context, id string) (*domain.Notification, error) {
			return nil, fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
		},
	}
	app := newNotificationApp(t, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/api/notifications/ghost/read", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestListUserNotificationsEndpoint(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationService{
		listByUserFn: func(_ context.Context, userID string, page, limit int) ([]domain.Notification, *service.Pagination, error) {
			if userID != "user-1" || page != 2 || limit != 1 {
				t.Errorf("ListByUser(%s, %d, %d), want (user-1, 2, 1)", userID, page, limit)
			}
			return []domain.Notification{{ID: "n-2", UserID: userID, Type: domain.TypeEmail, Status: domain.StatusSent}},
				&service.Pagination{Total: 3, Page: 2, Limit: 1, Pages: 3}, nil
		},
	}
	app := newNotificationApp(t, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/user-1/notifications?page=2&limit=1", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body := decodeEnvelope(t, resp)
	pagination, ok := body["pagination"].(map[string]any)
	if !ok {
		t.Fatalf("pagination = %T, want object", body["pagination"])
	}
	if pagination["total"] != float64(3) || pagination["pages"] != float64(3) {
		t.Errorf("pagination = %v, want total 3 pages 3", pagination)
	}
	items := body["data"].([]any)
	if len(items) != 1 {
		t.Errorf("data has %d items, want 1", len(items))
	}
}

func TestListUserNotificationsEndpointRejectsOversizedLimit(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationService{
		listByUserFn: func(context.Context, string, int, int) ([]domain.Notification, *service.Pagination, error) {
			t.Error("service must not be called for an invalid limit")
			return nil, nil, nil
		},
	}
	app := newNotificationApp(t, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/user-1/notifications?limit=9999", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
