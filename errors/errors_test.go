package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	err := Newf(ErrCodeTimeout, "timed out after %s", "5s")
	if !err.Retryable || err.HTTPStatus != http.StatusGatewayTimeout {
		t.Errorf("TIMEOUT: retryable=%v status=%d", err.Retryable, err.HTTPStatus)
	}
	if err.Message != "timed out after 5s" {
		t.Errorf("unexpected message %q", err.Message)
	}

	err = New(ErrCodeInvalidInput, "100% bad")
	if err.Retryable || err.Message != "100% bad" {
		t.Errorf("INVALID_INPUT: retryable=%v message=%q", err.Retryable, err.Message)
	}
}

func TestErrorCode_Status(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeDirectoryProvisioning, http.StatusInternalServerError},
		{ErrCodeNoContainer, http.StatusServiceUnavailable},
		{ErrCodeInvalidToken, http.StatusUnauthorized},
		{ErrorCode("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			if got := tc.code.Status(); got != tc.want {
				t.Errorf("Status() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAppError_DirectoryProvisioning(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := DirectoryProvisioning("/var/halo", cause)
	if err.Code != ErrCodeDirectoryProvisioning {
		t.Errorf("expected DIRECTORY_PROVISIONING_FAILED, got %s", err.Code)
	}
	if err.Details["path"] != "/var/halo" {
		t.Errorf("expected path detail, got %v", err.Details["path"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through errors.Is")
	}
	if err.Retryable {
		t.Error("directory provisioning should not be retryable")
	}
}

func TestAppError_ContainerStart(t *testing.T) {
	err := ContainerStart("components", fmt.Errorf("bind: address already in use"))
	if err.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", err.HTTPStatus)
	}
	if !strings.Contains(err.Message, "components") {
		t.Errorf("expected phase in message, got %q", err.Message)
	}
	if !strings.Contains(err.Error(), "address already in use") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_RestartFailed(t *testing.T) {
	err := RestartFailed("r-1", nil)
	if err.Code != ErrCodeRestartFailed {
		t.Errorf("expected RESTART_FAILED, got %s", err.Code)
	}
	if err.Details["restart_id"] != "r-1" {
		t.Errorf("expected restart_id=r-1, got %v", err.Details["restart_id"])
	}
	if !err.Retryable {
		t.Error("restart failure should be retryable")
	}
}

func TestHasCode(t *testing.T) {
	inner := DirectoryProvisioning("/tmp/x", fmt.Errorf("boom"))
	outer := ContainerStart("configuration", inner)
	wrapped := fmt.Errorf("start: %w", outer)

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"outer code", wrapped, ErrCodeContainerStart, true},
		{"nested code", wrapped, ErrCodeDirectoryProvisioning, true},
		{"absent code", wrapped, ErrCodeTimeout, false},
		{"plain error", fmt.Errorf("plain"), ErrCodeInternal, false},
		{"nil error", nil, ErrCodeInternal, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasCode(tc.err, tc.code); got != tc.want {
				t.Errorf("HasCode(%v) = %v, want %v", tc.code, got, tc.want)
			}
		})
	}
}

func TestAppError_Unauthorized_DefaultMessage(t *testing.T) {
	err := Unauthorized("")
	if err.Message != "Authentication required." {
		t.Errorf("expected default message, got %q", err.Message)
	}
	if Unauthorized("bad token").Message != "bad token" {
		t.Error("expected custom message")
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := NoContainer().WithDetails(map[string]any{"state": "degraded"})
	err.WithDetail("generation", 3)
	if err.Details["state"] != "degraded" || err.Details["generation"] != 3 {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestAppError_ToResponse(t *testing.T) {
	resp := DirectoryProvisioning("/var/halo", fmt.Errorf("denied")).ToResponse()
	if resp.Error.Code != ErrCodeDirectoryProvisioning {
		t.Errorf("expected DIRECTORY_PROVISIONING_FAILED, got %s", resp.Error.Code)
	}
	if resp.Error.Details["path"] != "/var/halo" {
		t.Errorf("expected path detail, got %v", resp.Error.Details)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Timeout("restart"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Code != ErrCodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", appErr.Code)
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("plain error is not an AppError")
	}
}

func TestAppError_RateLimited(t *testing.T) {
	err := RateLimited()
	if err.HTTPStatus != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", err.HTTPStatus)
	}
	if !err.Retryable || !ErrCodeRateLimited.Retryable() {
		t.Error("rate limited errors should be retryable")
	}
}

func TestAppError_TooLarge(t *testing.T) {
	err := TooLarge(1024)
	if err.HTTPStatus != http.StatusRequestEntityTooLarge || err.Retryable {
		t.Errorf("unexpected TooLarge: status=%d retryable=%v", err.HTTPStatus, err.Retryable)
	}
	if err.Details["limit"] != int64(1024) {
		t.Errorf("expected limit detail, got %v", err.Details["limit"])
	}
}
