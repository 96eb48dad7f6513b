package errors

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrInvalidFilter      = errors.New("invalid statistics filter")
	ErrMissingUserContext = errors.New("missing user context")
	ErrDatabaseOperation  = errors.New("database operation failed")
)

const (
	CodeInvalidFilter  = "INVALID_FILTER"
	CodeMissingUserCtx = "MISSING_USER_CONTEXT"
	CodeDatabaseError  = "DATABASE_ERROR"
	CodeInternalError  = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func HandleServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidFilter):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeInvalidFilter, Message: err.Error()})
	case errors.Is(err, ErrMissingUserContext):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeMissingUserCtx, Message: err.Error()})
	case errors.Is(err, ErrDatabaseOperation):
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{Code: CodeDatabaseError, Message: err.Error()})
	default:
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{Code: CodeInternalError, Message: "An unexpected error occurred", Details: err.Error()})
	}
}

func HandleUserContextError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeMissingUserCtx, Message: message})
}
