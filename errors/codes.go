package errors

import "net/http"

// ErrorCode is the machine-readable code carried by an AppError and sent to
// HTTP clients.
type ErrorCode string

const (
	ErrCodeDirectoryProvisioning ErrorCode = "DIRECTORY_PROVISIONING_FAILED"
	ErrCodeContainerStart        ErrorCode = "CONTAINER_START_FAILED"
	ErrCodeRestartFailed         ErrorCode = "RESTART_FAILED"
	ErrCodeNoContainer           ErrorCode = "NO_CONTAINER"

	ErrCodeTimeout     ErrorCode = "TIMEOUT"
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeTooLarge     ErrorCode = "PAYLOAD_TOO_LARGE"

	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type codeInfo struct {
	status    int
	retryable bool
}

var codes = map[ErrorCode]codeInfo{
	ErrCodeDirectoryProvisioning: {http.StatusInternalServerError, false},
	ErrCodeContainerStart:        {http.StatusServiceUnavailable, false},
	ErrCodeRestartFailed:         {http.StatusServiceUnavailable, true},
	ErrCodeNoContainer:           {http.StatusServiceUnavailable, true},
	ErrCodeTimeout:               {http.StatusGatewayTimeout, true},
	ErrCodeRateLimited:           {http.StatusTooManyRequests, true},
	ErrCodeInvalidInput:          {http.StatusBadRequest, false},
	ErrCodeTooLarge:              {http.StatusRequestEntityTooLarge, false},
	ErrCodeUnauthorized:          {http.StatusUnauthorized, false},
	ErrCodeInvalidToken:          {http.StatusUnauthorized, false},
	ErrCodeInternal:              {http.StatusInternalServerError, false},
}

// Status is the HTTP status for the code. Unknown codes map to 500.
func (c ErrorCode) Status() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether a client may retry after this code.
func (c ErrorCode) Retryable() bool { return codes[c].retryable }
