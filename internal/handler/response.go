package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/notifyhq/notify-service/internal/domain"
)

// Every successful response carries the same envelope; list endpoints add
// pagination metadata beside the data.
type envelope struct {
	Success    bool            `json:"success"`
	Data       any             `json:"data,omitempty"`
	Pagination *paginationMeta `json:"pagination,omitempty"`
}

type paginationMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

func ok(data any) envelope {
	return envelope{Success: true, Data: data}
}

func paged(data any, pagination paginationMeta) envelope {
	return envelope{Success: true, Data: data, Pagination: &pagination}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
