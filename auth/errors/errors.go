package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/internal/validation"
)

// Error codes for the users endpoints
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeMissingUserContext   = "MISSING_USER_CONTEXT"
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidUUID          = "INVALID_UUID"
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodePermissionDenied     = "PERMISSION_DENIED"
	CodeDatabaseError        = "DATABASE_ERROR"
	CodeSystemError          = "SYSTEM_ERROR"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeUserInactive         = "USER_INACTIVE"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeTokenNotFound        = "TOKEN_NOT_FOUND"
	CodeUserAlreadyExists    = "USER_ALREADY_EXISTS"
	CodeCannotModifySelf     = "CANNOT_MODIFY_SELF"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is not active")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrTokenNotFound      = errors.New("token not found")
	ErrCannotModifySelf   = errors.New("cannot block or unblock yourself")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrDatabaseError      = errors.New("database operation failed")
	ErrSystemError        = errors.New("system error occurred")
)

// ErrorResponse represents the standardized error response format
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// HandleServiceError handles service errors and returns appropriate HTTP responses
func HandleServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeValidationFailed,
			Message: "Validation failed",
			Details: fieldErrs,
		})
	case errors.Is(err, ErrUserNotFound):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Code:    CodeUserNotFound,
			Message: "User not found",
		})
	case errors.Is(err, ErrTokenNotFound):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Code:    CodeTokenNotFound,
			Message: "Link is invalid or has already been used",
		})
	case errors.Is(err, ErrInvalidCredentials):
		return c.Status(http.StatusUnauthorized).JSON(ErrorResponse{
			Code:    CodeInvalidCredentials,
			Message: "Invalid credentials",
		})
	case errors.Is(err, ErrUserInactive):
		return c.Status(http.StatusForbidden).JSON(ErrorResponse{
			Code:    CodeUserInactive,
			Message: "Account is not active",
		})
	case errors.Is(err, ErrUserAlreadyExists):
		return c.Status(http.StatusConflict).JSON(ErrorResponse{
			Code:    CodeUserAlreadyExists,
			Message: "User already exists",
		})
	case errors.Is(err, ErrPermissionDenied):
		return c.Status(http.StatusForbidden).JSON(ErrorResponse{
			Code:    CodePermissionDenied,
			Message: "Permission denied",
		})
	case errors.Is(err, ErrCannotModifySelf):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeCannotModifySelf,
			Message: "You cannot block or unblock yourself",
		})
	case errors.Is(err, ErrInvalidRequest):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeInvalidRequest,
			Message: err.Error(),
		})
	case errors.Is(err, ErrDatabaseError):
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{
			Code:    CodeDatabaseError,
			Message: "Database operation failed",
		})
	default:
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Code:    CodeSystemError,
			Message: "An unexpected error occurred",
		})
	}
}

// HandleValidationError handles validation errors with 400 Bad Request
func HandleValidationError(c *fiber.Ctx, message string, details ...string) error {
	response := ErrorResponse{
		Code:    CodeValidationFailed,
		Message: message,
	}
	if len(details) > 0 {
		response.Details = details[0]
	}
	return c.Status(http.StatusBadRequest).JSON(response)
}

// HandleUserContextError handles user context errors with 400 Bad Request
func HandleUserContextError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Code:    CodeMissingUserContext,
		Message: message,
	})
}

// HandleInvalidRequestError handles unparsable bodies with 400 Bad Request
func HandleInvalidRequestError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Code:    CodeInvalidRequest,
		Message: message,
	})
}

// HandleUUIDError handles UUID parsing errors with 400 Bad Request
func HandleUUIDError(c *fiber.Ctx, fieldName string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Code:    CodeInvalidUUID,
		Message: fmt.Sprintf("Invalid %s format", fieldName),
	})
}

// HandleMissingFieldError handles missing required field errors with 400 Bad Request
func HandleMissingFieldError(c *fiber.Ctx, fieldName string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Code:    CodeMissingRequiredField,
		Message: fmt.Sprintf("Missing required field: %s", fieldName),
	})
}

// HandleSystemError handles system errors with 500 Internal Server Error
func HandleSystemError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
		Code:    CodeSystemError,
		Message: message,
	})
}

var known = []error{
	ErrUserNotFound,
	ErrUserInactive,
	ErrInvalidCredentials,
	ErrUserAlreadyExists,
	ErrPermissionDenied,
	ErrTokenNotFound,
	ErrCannotModifySelf,
	ErrInvalidRequest,
	ErrDatabaseError,
	ErrSystemError,
}

// IsKnown reports whether err wraps one of the sentinel errors above.
func IsKnown(err error) bool {
	for _, sentinel := range known {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
