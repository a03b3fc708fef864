package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Payload renders an error the way analysis callers expect it: a message under "error".
func Payload(err error) map[string]string {
	if err == nil {
		return nil
	}
	return map[string]string{"error": err.Error()}
}

// HTTPStatus maps an error code to the HTTP status the web surfaces answer with
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeColumnNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidSelection, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeComputation, CodeInsufficientData:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeColumnNotFound   = "COLUMN_NOT_FOUND"
	CodeInvalidSelection = "INVALID_SELECTION"
	CodeComputation      = "COMPUTATION_ERROR"
	CodeInsufficientData = "INSUFFICIENT_DATA"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// ColumnNotFound reports a requested column that is absent from the dataset.
func ColumnNotFound(message string) *AppError {
	return New(CodeColumnNotFound, message)
}

// InvalidSelection reports an unusable column choice for a checkbox analysis.
func InvalidSelection(message string) *AppError {
	return New(CodeInvalidSelection, message)
}

// ComputationError keeps the underlying numeric fault as the message.
func ComputationError(cause error) *AppError {
	return &AppError{
		Code:    CodeComputation,
		Message: cause.Error(),
	}
}

func InsufficientData(message string) *AppError {
	return New(CodeInsufficientData, message)
}
