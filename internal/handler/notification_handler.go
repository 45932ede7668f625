package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/notifyhq/notify-service/internal/domain"
	"github.com/notifyhq/notify-service/internal/service"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type NotificationService interface {
	Create(ctx context.Context, params service.CreateParams) (*domain.Notification, error)
	MarkAsRead(ctx context.Context, id string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]domain.Notification, *service.Pagination, error)
}

type NotificationHandler struct {
	service NotificationService
}

func NewNotificationHandler(service NotificationService) (*NotificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	return &NotificationHandler{service: service}, nil
}

func RegisterNotificationRoutes(router fiber.Router, service NotificationService) error {
	h, err := NewNotificationHandler(service)
	if err != nil {
		return err
	}

	router.Post("/notifications", h.CreateNotification)
	router.Patch("/notifications/:id/read", h.MarkNotificationRead)
	router.Get("/users/:userId/notifications", h.ListUserNotifications)

	return nil
}

type createNotificationRequest struct {
	UserID   string            `json:"userId"`
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type notificationResponse struct {
	ID         string            `json:"id"`
	UserID     string            `json:"userId"`
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Status     string            `json:"status"`
	RetryCount int               `json:"retryCount"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	return notificationResponse{
		ID:         n.ID,
		UserID:     n.UserID,
		Type:       n.Type.String(),
		Title:      n.Title,
		Message:    n.Message,
		Metadata:   n.Metadata,
		Status:     n.Status.String(),
		RetryCount: n.RetryCount,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func toNotificationResponses(notifications []domain.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(notifications))
	for i := range notifications {
		out = append(out, toNotificationResponse(&notifications[i]))
	}
	return out
}

func (h *NotificationHandler) CreateNotification(c *fiber.Ctx) error {
	var req createNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	notificationType, err := domain.ParseTypeFromString(req.Type)
	if err != nil {
		return toHTTPError(err)
	}

	created, err := h.service.Create(c.Context(), service.CreateParams{
		UserID:   req.UserID,
		Type:     notificationType,
		Title:    req.Title,
		Message:  req.Message,
		Metadata: req.Metadata,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(ok(toNotificationResponse(created)))
}

func (h *NotificationHandler) MarkNotificationRead(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	updated, err := h.service.MarkAsRead(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(ok(toNotificationResponse(updated)))
}

func (h *NotificationHandler) ListUserNotifications(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))

	page := c.QueryInt("page", defaultPage)
	limit := c.QueryInt("limit", defaultLimit)
	if limit > maxLimit {
		return toHTTPError(fmt.Errorf("%w: limit must be at most %d", domain.ErrValidation, maxLimit))
	}

	notifications, pagination, err := h.service.ListByUser(c.Context(), userID, page, limit)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(paged(toNotificationResponses(notifications), paginationMeta{
		Total: pagination.Total,
		Page:  pagination.Page,
		Limit: pagination.Limit,
		Pages: pagination.Pages,
	}))
}
