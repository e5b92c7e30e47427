package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound means an inbound event referenced a device that was
	// never registered. The event is dropped, never auto-created.
	ErrDeviceNotFound = errors.New("device not found")

	ErrSimCardNotFound       = errors.New("sim card not found")
	ErrForwardSettingMissing = errors.New("forward setting not found")

	// ErrConfigIncomplete means a platform is enabled but its credentials are
	// missing; treated as a dispatch failure before any network call.
	ErrConfigIncomplete = errors.New("platform config incomplete")

	ErrQueueFull = errors.New("event queue full")
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
