package httpapi

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// ErrInvalidRequest wraps malformed bodies, path parameters and query parameters.
var ErrInvalidRequest = errors.New("invalid request")

const retryAfterSeconds = 1

type errorResponse struct {
	Code    int               `json:"code"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusOf maps the circulation error taxonomy onto HTTP status codes.
func statusOf(err error) int {
	var fiberErr *fiber.Error

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, core.ErrOutOfStock),
		errors.Is(err, core.ErrAlreadyReturned),
		errors.Is(err, core.ErrAlreadyBorrowed):
		return fiber.StatusConflict
	case errors.Is(err, core.ErrConflict),
		errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, core.ErrInvalidLoanPeriod),
		errors.Is(err, ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

func invalidRequest(err error) error {
	return errors.Join(ErrInvalidRequest, err)
}

// fieldErrors lists failed validation tags per json field.
func fieldErrors(err error) map[string]string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fields[fieldErr.Field()] = fieldErr.Tag()
	}

	return fields
}

func (s *server) handleError(c *fiber.Ctx, err error) error {
	status := statusOf(err)

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		s.logError(c, "request failed", err)
		message = "internal server error"
	}

	if status == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	}

	return c.Status(status).JSON(errorResponse{
		Code:    status,
		Status:  "error",
		Message: message,
		Fields:  fieldErrors(err),
	})
}
