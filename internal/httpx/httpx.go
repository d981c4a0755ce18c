package httpx

import (
	"fmt"

	"github.com/Luismi76/cursos/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	if v := c.Locals("requestid"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func Error(c *fiber.Ctx, status int, code string, message string) error {
	if message == "" {
		message = "Request failed"
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID(c),
	})
}

func BadRequest(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

func Unauthorized(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusUnauthorized, code, message)
}

func Forbidden(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusForbidden, code, message)
}

func NotFound(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusNotFound, code, message)
}

func ServiceUnavailable(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusServiceUnavailable, code, message)
}

func Internal(c *fiber.Ctx, code string) error {
	return Error(c, fiber.StatusInternalServerError, code, "Internal server error")
}

// ServiceError writes the response for an error returned by the chat service.
func ServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return Forbidden(c, "not_course_member", "Not a member of this course")
	case errors.Is(err, service.ErrInvalidReference):
		return NotFound(c, "invalid_reference", "Course or user does not exist")
	case errors.Is(err, service.ErrInvalidInput):
		return BadRequest(c, "invalid_input", err.Error())
	case errors.Is(err, service.ErrNotFound):
		return NotFound(c, "not_found", "Message not found")
	case errors.Is(err, service.ErrStorageUnavailable):
		return ServiceUnavailable(c, "storage_unavailable", "Storage temporarily unavailable, retry")
	default:
		return Internal(c, "internal_error")
	}
}

func LocalUUID(c *fiber.Ctx, key string) (uuid.UUID, error) {
	v := c.Locals(key)
	if v == nil {
		return uuid.Nil, fmt.Errorf("missing local %s", key)
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid local %s", key)
	}
	return id, nil
}

// ParamUUID parses a route parameter as a UUID.
func ParamUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}
