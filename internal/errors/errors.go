package errors

import (
	"errors"
	"fmt"
)

// Category groups errors by subsystem
type Category string

const (
	CategoryStore       Category = "store"
	CategoryUsage       Category = "usage"
	CategoryCalibration Category = "calibration"
	CategoryConfig      Category = "config"
	CategoryInput       Category = "input"
	CategoryMetrics     Category = "metrics"
)

// UsageError is the structured error type for the project
type UsageError struct {
	Category  Category
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

func (e *UsageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

func (e *UsageError) Unwrap() error {
	return e.Cause
}

func (e *UsageError) Is(target error) bool {
	t, ok := target.(*UsageError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Category == t.Category
}

// IsRetryable checks whether an error is retryable.
// Returns false for nil errors or non-UsageError types.
func IsRetryable(err error) bool {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Retryable
	}
	return false
}

// GetCategory extracts the error category from a UsageError.
// Returns an empty Category for nil errors or non-UsageError types.
func GetCategory(err error) Category {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Category
	}
	return ""
}

// GetUserMessage returns a user-friendly message for the error.
// For UsageError it returns the Message field; for other errors it returns Error().
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return err.Error()
}

// HasCode reports whether err wraps a UsageError with the given code.
func HasCode(err error, code string) bool {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}
