package ws

import (
	"github.com/Luismi76/cursos/internal/service"
	"github.com/pkg/errors"
)

// ErrorCode maps a processing error to the code and message sent to the client.
func ErrorCode(err error) (code, message string) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return "unauthorized", "Not allowed in this course"
	case errors.Is(err, service.ErrInvalidReference):
		return "invalid_reference", "Course or user does not exist"
	case errors.Is(err, service.ErrInvalidInput):
		return "invalid_input", "Invalid input"
	case errors.Is(err, service.ErrNotFound):
		return "not_found", "Not found"
	case errors.Is(err, service.ErrStorageUnavailable):
		return "storage_unavailable", "Storage temporarily unavailable, retry"
	default:
		return "processing_failed", "Failed to process message"
	}
}
