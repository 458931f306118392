package errors

import (
	"errors"
)

// UserError represents an error with both technical and user-friendly messages
type UserError struct {
	Err       error
	UserMsg   string
	Retryable bool
}

func (e *UserError) Error() string {
	return e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// Predefined errors
var (
	ErrFileDrop = &UserError{
		Err:       errors.New("cannot load dropped file"),
		UserMsg:   "Couldn't get image from file drop!",
		Retryable: true,
	}

	ErrClipboardRead = &UserError{
		Err:       errors.New("no image on clipboard"),
		UserMsg:   "Couldn't get image from clipboard!",
		Retryable: true,
	}

	ErrClipboardWrite = &UserError{
		Err:       errors.New("nothing to copy"),
		UserMsg:   "Couldn't save image to clipboard!",
		Retryable: false,
	}

	ErrNoImage = &UserError{
		Err:       errors.New("no image loaded"),
		UserMsg:   "Load an image first.",
		Retryable: false,
	}

	ErrUnsupportedImage = &UserError{
		Err:       errors.New("unsupported pixel format"),
		UserMsg:   "This kind of image can't be inverted.",
		Retryable: false,
	}

	ErrSaveFailed = &UserError{
		Err:       errors.New("save failed"),
		UserMsg:   "Couldn't save the image. Check the file name and try again.",
		Retryable: true,
	}
)

// Wrap wraps a technical error with a user message
func Wrap(err error, userMsg string, retryable bool) *UserError {
	return &UserError{
		Err:       err,
		UserMsg:   userMsg,
		Retryable: retryable,
	}
}

// WithCause returns a copy of a predefined error carrying cause, so callers
// can match both the predefined error and the underlying failure.
func WithCause(base *UserError, cause error) *UserError {
	return &UserError{
		Err:       errors.Join(base.Err, cause),
		UserMsg:   base.UserMsg,
		Retryable: base.Retryable,
	}
}

// Is reports whether target is a UserError with the same user message,
// which makes WithCause copies match their predefined error.
func (e *UserError) Is(target error) bool {
	t, ok := target.(*UserError)
	return ok && t.UserMsg == e.UserMsg
}

// GetUserMessage extracts user-friendly message from error
func GetUserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMsg
	}
	// Default message for unexpected errors
	return "An unexpected error occurred. Please try again."
}

// IsRetryable checks if an error can be retried
func IsRetryable(err error) bool {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Retryable
	}
	return false
}
