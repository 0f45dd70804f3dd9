package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// AppError is the error type returned across package boundaries. Its Code
// decides the HTTP status and whether the client may retry.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into the error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithDetail sets one detail.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// New builds an AppError whose status and retryability follow code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: code.Status(),
		Retryable:  code.Retryable(),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// HasCode reports whether err, or any AppError in its cause chain, carries
// code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Lifecycle.

func DirectoryProvisioning(path string, cause error) *AppError {
	return Newf(ErrCodeDirectoryProvisioning, "Unable to create directory %s.", path).
		WithDetail("path", path).
		WithCause(cause)
}

func ContainerStart(phase string, cause error) *AppError {
	return Newf(ErrCodeContainerStart, "The application container failed during %s.", phase).
		WithDetail("phase", phase).
		WithCause(cause)
}

func RestartFailed(restartID string, cause error) *AppError {
	return New(ErrCodeRestartFailed, "The application restart did not complete.").
		WithDetail("restart_id", restartID).
		WithCause(cause)
}

func NoContainer() *AppError {
	return New(ErrCodeNoContainer, "No application container is running.")
}

// Transport and request errors.

func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "The operation took too long. Please try again.").
		WithDetail("operation", operation)
}

func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

func TooLarge(limit int64) *AppError {
	return Newf(ErrCodeTooLarge, "Request body exceeds %d bytes.", limit).
		WithDetail("limit", limit)
}

// Unauthorized uses a generic message when reason is empty.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return New(ErrCodeUnauthorized, reason)
}

func InvalidToken() *AppError {
	return New(ErrCodeInvalidToken, "Invalid authentication token.")
}

func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Rate limit exceeded. Please slow down.")
}

func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.").
		WithCause(cause)
}
