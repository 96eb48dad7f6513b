package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/internal/validation"
)

var (
	ErrMailingNotFound    = errors.New("mailing not found")
	ErrMailingFinished    = errors.New("mailing is finished")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrMissingUserContext = errors.New("missing user context")
	ErrDatabaseOperation  = errors.New("database operation failed")
	ErrDispatcherClosed   = errors.New("dispatcher is shut down")
)

const (
	CodeMailingNotFound  = "MAILING_NOT_FOUND"
	CodeMailingFinished  = "MAILING_FINISHED"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidUUID      = "INVALID_UUID"
	CodeMissingUserCtx   = "MISSING_USER_CONTEXT"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodeInternalError    = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// HandleServiceError maps service errors to HTTP responses.
func HandleServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeValidationFailed, Message: "validation failed", Details: fieldErrs})
	case errors.Is(err, ErrMailingNotFound):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{Code: CodeMailingNotFound, Message: "Mailing not found"})
	case errors.Is(err, ErrMailingFinished):
		return c.Status(http.StatusConflict).JSON(ErrorResponse{Code: CodeMailingFinished, Message: "Mailing is already finished"})
	case errors.Is(err, ErrPermissionDenied):
		return c.Status(http.StatusForbidden).JSON(ErrorResponse{Code: CodePermissionDenied, Message: "Insufficient permissions"})
	case errors.Is(err, ErrInvalidRequest):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeInvalidRequest, Message: err.Error()})
	case errors.Is(err, ErrMissingUserContext):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeMissingUserCtx, Message: err.Error()})
	case errors.Is(err, ErrDispatcherClosed):
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{Code: CodeUnavailable, Message: err.Error()})
	case errors.Is(err, ErrDatabaseOperation):
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{Code: CodeDatabaseError, Message: err.Error()})
	default:
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{Code: CodeInternalError, Message: "An unexpected error occurred", Details: err.Error()})
	}
}

func HandleValidationError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeInvalidRequest, Message: message, Details: message})
}

func HandleUUIDError(c *fiber.Ctx, fieldName string) error {
	msg := fmt.Sprintf("Invalid %s format", fieldName)
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeInvalidUUID, Message: msg, Details: msg})
}

func HandleUserContextError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeMissingUserCtx, Message: message, Details: message})
}
