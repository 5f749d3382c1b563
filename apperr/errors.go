package apperr

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline failures.
type ErrorType string

const (
	TypeData           ErrorType = "DATA"
	TypeModelFit       ErrorType = "MODEL_FIT"
	TypeSearchBudget   ErrorType = "SEARCH_BUDGET"
	TypeSinkWrite      ErrorType = "SINK_WRITE"
	TypeLengthMismatch ErrorType = "LENGTH_MISMATCH"
	TypeConfig         ErrorType = "CONFIG"
	TypeInput          ErrorType = "INPUT"
)

// AppError is an error carrying a type, an optional cause and free-form context.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Sentinels for errors.Is. A sentinel matches any AppError of the same type.
var (
	ErrData                 = &AppError{Type: TypeData}
	ErrModelFit             = &AppError{Type: TypeModelFit}
	ErrSearchBudgetExceeded = &AppError{Type: TypeSearchBudget}
	ErrSinkWrite            = &AppError{Type: TypeSinkWrite}
	ErrLengthMismatch       = &AppError{Type: TypeLengthMismatch}
	ErrConfig               = &AppError{Type: TypeConfig}
	ErrInput                = &AppError{Type: TypeInput}
)

// Error implements the error interface.
func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap allows errors.Is and errors.As to reach the cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel (no message) of the same type,
// or an AppError with identical type and message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Type != e.Type {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// WithContext adds a key/value pair to the error context.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates an AppError.
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewDataError reports input that cannot be modelled (too short, no
// positive history, untestable for stationarity).
func NewDataError(message string, cause error) *AppError {
	return New(TypeData, message, cause)
}

// NewModelFitError reports that no candidate model could be fitted.
func NewModelFitError(message string, cause error) *AppError {
	return New(TypeModelFit, message, cause)
}

// NewSearchBudgetError is a warning: the search stopped early but a model was chosen.
func NewSearchBudgetError(message string) *AppError {
	return New(TypeSearchBudget, message, nil)
}

// NewSinkWriteError reports a failed persistence transaction.
func NewSinkWriteError(message string, cause error) *AppError {
	return New(TypeSinkWrite, message, cause)
}

// NewLengthMismatchError reports misaligned actual and fitted vectors.
func NewLengthMismatchError(actual, fitted int) *AppError {
	return New(TypeLengthMismatch, fmt.Sprintf("actual has %d values, fitted has %d", actual, fitted), nil).
		WithContext("actual", actual).
		WithContext("fitted", fitted)
}

// NewConfigError reports invalid run configuration.
func NewConfigError(message string, cause error) *AppError {
	return New(TypeConfig, message, cause)
}

// NewInputError reports an unreadable dataset.
func NewInputError(message string, cause error) *AppError {
	return New(TypeInput, message, cause)
}

// TypeOf returns the type of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var app *AppError
	if errors.As(err, &app) {
		return app.Type
	}
	return ""
}

// IsWarning reports whether err only signals a degraded but usable result.
func IsWarning(err error) bool {
	return errors.Is(err, ErrSearchBudgetExceeded)
}
