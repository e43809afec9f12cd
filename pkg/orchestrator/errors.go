package orchestrator

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sguter90/soilmaestro/pkg/models"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeClassification ErrorType = "classification_service"
	ErrorTypeNarrative      ErrorType = "narrative_service"
	ErrorTypeBusy           ErrorType = "busy"
	ErrorTypeCanceled       ErrorType = "canceled"
)

// Error is the structured error returned by Submit
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Fields  []string  `json:"fields,omitempty"`
	err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.err
}

// NewValidationError creates a validation error. Missing field names are
// copied from a wrapped models.MissingFieldsError.
func NewValidationError(msg string, err error) *Error {
	e := &Error{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
	var missing *models.MissingFieldsError
	if errors.As(err, &missing) {
		e.Fields = missing.Fields
	}
	var invalid *models.InvalidValueError
	if errors.As(err, &invalid) {
		e.Fields = []string{invalid.Field}
	}
	return e
}

// NewClassificationError creates a classification service error
func NewClassificationError(err error) *Error {
	return &Error{
		Type:    ErrorTypeClassification,
		Message: "soil classification failed",
		Code:    http.StatusBadGateway,
		err:     err,
	}
}

// NewNarrativeError creates a narrative service error
func NewNarrativeError(err error) *Error {
	return &Error{
		Type:    ErrorTypeNarrative,
		Message: "improvement plan request failed",
		Code:    http.StatusBadGateway,
		err:     err,
	}
}

// NewBusyError creates the error returned while a submission is in flight
func NewBusyError() *Error {
	return &Error{
		Type:    ErrorTypeBusy,
		Message: "a submission is already in progress",
		Code:    http.StatusConflict,
	}
}

// NewCanceledError creates the error returned when the caller went away
// before the narrative could be applied
func NewCanceledError(err error) *Error {
	return &Error{
		Type:    ErrorTypeCanceled,
		Message: "submission canceled",
		Code:    http.StatusRequestTimeout,
		err:     err,
	}
}

func typeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return typeOf(err) == ErrorTypeValidation }

// IsClassification checks if an error is a classification service error
func IsClassification(err error) bool { return typeOf(err) == ErrorTypeClassification }

// IsNarrative checks if an error is a narrative service error
func IsNarrative(err error) bool { return typeOf(err) == ErrorTypeNarrative }

// IsBusy checks if an error rejected a concurrent submission
func IsBusy(err error) bool { return typeOf(err) == ErrorTypeBusy }

// IsCanceled checks if the submission was canceled
func IsCanceled(err error) bool { return typeOf(err) == ErrorTypeCanceled }

// StatusCode maps an error to an HTTP status code
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return http.StatusInternalServerError
}
