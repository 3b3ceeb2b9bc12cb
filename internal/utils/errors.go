package utils

import "fmt"

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN" // User is authenticated but doesn't have permission
	ErrInvalidToken = "INVALID_TOKEN"

	// User-specific errors
	ErrUserNotFound       = "USER_NOT_FOUND"
	ErrUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrUserBlocked        = "USER_BLOCKED"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"

	// Policy gate errors
	ErrMaintenanceMode    = "MAINTENANCE_MODE"
	ErrRegistrationClosed = "REGISTRATION_CLOSED"

	// Rate limiting
	ErrTooManyRequests = "TOO_MANY_REQUESTS"
	ErrQuotaExceeded   = "QUOTA_EXCEEDED"
	ErrCooldownActive  = "COOLDOWN_ACTIVE"

	// Alert-specific errors
	ErrAlertNotFound = "ALERT_NOT_FOUND"
	ErrAlreadyVoted  = "ALREADY_VOTED"

	// Actor communication errors
	ErrActorTimeout    = "ACTOR_TIMEOUT"
	ErrActorNotFound   = "ACTOR_NOT_FOUND"
	ErrMessageRejected = "MESSAGE_REJECTED"

	ErrDatabase = "database_error"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

// Specific error creators for common cases
func NewUserNotFoundError(userID string) *AppError {
	return &AppError{
		Code:    ErrUserNotFound,
		Message: "User not found: " + userID,
	}
}

func NewUnauthorizedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "Unauthorized: " + reason,
	}
}

func NewAlertNotFoundError(alertID string) *AppError {
	return &AppError{
		Code:    ErrAlertNotFound,
		Message: "Alert not found: " + alertID,
	}
}

func NewQuotaExceededError(used, limit int) *AppError {
	return &AppError{
		Code:    ErrQuotaExceeded,
		Message: fmt.Sprintf("Daily post limit reached: %d of %d used", used, limit),
	}
}

func NewCooldownActiveError(minutesRemaining int) *AppError {
	return &AppError{
		Code:    ErrCooldownActive,
		Message: fmt.Sprintf("Alert cooldown active: try again in %d minute(s)", minutesRemaining),
	}
}

func NewActorTimeoutError(actorName string) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// Helper method to check if an error is related to authentication
func IsAuthError(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrUnauthorized ||
			appErr.Code == ErrForbidden ||
			appErr.Code == ErrInvalidToken
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound, ErrAlertNotFound, ErrActorNotFound:
		return 404 // http.StatusNotFound
	case ErrInvalidInput, ErrInvalidCredentials:
		return 400 // http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken:
		return 401 // http.StatusUnauthorized
	case ErrForbidden, ErrUserBlocked, ErrRegistrationClosed:
		return 403 // http.StatusForbidden
	case ErrDuplicate, ErrUserAlreadyExists, ErrAlreadyVoted:
		return 409 // http.StatusConflict
	case ErrTooManyRequests, ErrQuotaExceeded, ErrCooldownActive:
		return 429 // http.StatusTooManyRequests
	case ErrMaintenanceMode:
		return 503 // http.StatusServiceUnavailable
	case ErrDatabase, ErrActorTimeout, ErrMessageRejected:
		return 500 // http.StatusInternalServerError
	default:
		return 500 // http.StatusInternalServerError for unknown errors
	}
}
