package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "temporaryAppError", err: NewTemporaryError("identity service down"), want: true},
		{name: "timeoutAppError", err: NewTimeoutError("slow"), want: true},
		{name: "notFoundAppError", err: NewNotFoundError("no such role"), want: false},
		{name: "wrappedSentinel", err: fmt.Errorf("call failed: %w", ErrServiceUnavailable), want: true},
		{name: "plainError", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "conflict", err: NewConflictError("stale version"), want: http.StatusConflict},
		{name: "unprocessable", err: NewUnprocessableError("bad discount"), want: http.StatusUnprocessableEntity},
		{name: "wrappedForbidden", err: fmt.Errorf("ctx: %w", NewForbiddenError("no")), want: http.StatusForbidden},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrapAndContext(t *testing.T) {
	err := NewConflictError("order was modified").WithContext("orderID", "ord-1")

	if !errors.Is(err, ErrConflict) {
		t.Error("errors.Is(err, ErrConflict) = false, want true")
	}
	if err.Context["orderID"] != "ord-1" {
		t.Errorf("Context[orderID] = %v, want ord-1", err.Context["orderID"])
	}
	if err.Error() != "order was modified" {
		t.Errorf("Error() = %q, want message", err.Error())
	}
}
