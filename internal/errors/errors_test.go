package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWithCauseMatchesBoth(t *testing.T) {
	cause := errors.New("permission denied")
	err := fmt.Errorf("save: %w", WithCause(ErrSaveFailed, cause))

	if !errors.Is(err, ErrSaveFailed) {
		t.Error("errors.Is(err, ErrSaveFailed) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrClipboardRead) {
		t.Error("matched an unrelated predefined error")
	}
	if got := GetUserMessage(err); got != ErrSaveFailed.UserMsg {
		t.Errorf("GetUserMessage = %q", got)
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable = false, want true")
	}
}

func TestGetUserMessageDefault(t *testing.T) {
	if got := GetUserMessage(errors.New("boom")); got == "" || got == "boom" {
		t.Errorf("GetUserMessage = %q, want the generic message", got)
	}
	if IsRetryable(errors.New("boom")) {
		t.Error("plain error reported retryable")
	}
}
