package core

import (
	"errors"
	"fmt"
)

var (
	ErrResolutionTooLow = errors.New("image resolution too low")
	ErrNoFaceDetected   = errors.New("no face detected")
	ErrUnsupportedType  = errors.New("unsupported image type")
	ErrUploadTooLarge   = errors.New("upload too large")
	ErrAvatarNotFound   = errors.New("avatar not found")
)

const MessageNoFaceDetected = "No clear face detected. Please upload another image."

// ValidationError rejects an upload with a message meant for the end user
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(err error, message string) *ValidationError {
	return &ValidationError{Err: err, Message: message}
}

// MessageResolutionTooLow formats the resolution message for the configured minimum
func MessageResolutionTooLow(minWidth, minHeight int) string {
	return fmt.Sprintf("Image resolution too low. Please upload an image at least %dx%d.", minWidth, minHeight)
}

// UserMessage returns the user facing message of a ValidationError in the chain
func UserMessage(err error) (string, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message, true
	}
	return "", false
}

// RejectionReason names the sentinel behind a validation error for metrics
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrResolutionTooLow):
		return "resolution"
	case errors.Is(err, ErrNoFaceDetected):
		return "no_face"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrUploadTooLarge):
		return "too_large"
	default:
		return "other"
	}
}
