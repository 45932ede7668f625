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

type UserService interface {
	Create(ctx context.Context, params service.CreateUserParams) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id string, params service.UpdateUserParams) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

type UserHandler struct {
	service UserService
}

func NewUserHandler(service UserService) (*UserHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("user service is required")
	}
	return &UserHandler{service: service}, nil
}

func RegisterUserRoutes(router fiber.Router, service UserService) error {
	h, err := NewUserHandler(service)
	if err != nil {
		return err
	}

	router.Post("/users", h.CreateUser)
	router.Get("/users", h.ListUsers)
	router.Get("/users/:id", h.GetUser)
	router.Put("/users/:id", h.UpdateUser)
	router.Delete("/users/:id", h.DeleteUser)

	return nil
}

type preferencesPayload struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	InApp bool `json:"inApp"`
}

type createUserRequest struct {
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone"`
	Preferences *preferencesPayload `json:"preferences"`
}

type updateUserRequest struct {
	Name        *string             `json:"name"`
	Email       *string             `json:"email"`
	Phone       *string             `json:"phone"`
	Preferences *preferencesPayload `json:"preferences"`
}

type userResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone,omitempty"`
	Preferences preferencesPayload `json:"preferences"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Preferences: preferencesPayload{
			Email: u.Preferences.Email,
			SMS:   u.Preferences.SMS,
			InApp: u.Preferences.InApp,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toChannelPreferences(p *preferencesPayload) *domain.ChannelPreferences {
	if p == nil {
		return nil
	}
	return &domain.ChannelPreferences{Email: p.Email, SMS: p.SMS, InApp: p.InApp}
}

func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.service.Create(c.Context(), service.CreateUserParams{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Preferences: toChannelPreferences(req.Preferences),
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(ok(toUserResponse(created)))
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	user, err := h.service.Get(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(ok(toUserResponse(user)))
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}

	return c.Status(fiber.StatusOK).JSON(ok(out))
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	id := strings.TrimSpace(c.Params("id"))
	updated, err := h.service.Update(c.Context(), id, service.UpdateUserParams{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Preferences: toChannelPreferences(req.Preferences),
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(ok(toUserResponse(updated)))
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Delete(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(ok(fiber.Map{"id": id, "deleted": true}))
}
