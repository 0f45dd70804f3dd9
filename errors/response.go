package errors

import stderrors "errors"

// ErrorResponse is the JSON envelope for failed HTTP requests:
//
//	{"error": {"code": "NO_CONTAINER", "message": "...", "retryable": true}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the client-visible part of an AppError. Cause stays on the
// server.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		Details:   e.Details,
	}}
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// Normalize returns err as an AppError. Anything else becomes Internal.
func Normalize(err error) *AppError {
	appErr, ok := AsAppError(err)
	if !ok {
		return Internal(err)
	}
	if appErr.HTTPStatus == 0 {
		appErr.HTTPStatus = appErr.Code.Status()
	}
	return appErr
}
