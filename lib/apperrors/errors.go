// Package apperrors defines the small set of named error kinds shared by the
// repositories and the request pipeline.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// ErrorType categorizes an AppError. The pipeline maps each type to one HTTP status.
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "VALIDATION"
	ErrorTypeJSONParse        ErrorType = "JSON_PARSE"
	ErrorTypeNotFound         ErrorType = "NOT_FOUND"
	ErrorTypeConflict         ErrorType = "CONFLICT"
	ErrorTypeMethodNotAllowed ErrorType = "METHOD_NOT_ALLOWED"
	ErrorTypeInternal         ErrorType = "INTERNAL"
)

// AppError is the error type returned by repositories and handlers
type AppError struct {
	Type    ErrorType
	Message string
	Fields  []string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidation(message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewMissingFields builds the validation error for a body lacking required fields.
// The message names every required field of the route; Fields holds the ones
// actually missing.
func NewMissingFields(required, missing []string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: "Missing required fields: " + strings.Join(required, ", "),
		Fields:  missing,
	}
}

// NewMissingPathParams builds the validation error for absent path parameters
func NewMissingPathParams(params []string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: "Missing required path parameters: " + strings.Join(params, ", "),
		Fields:  params,
	}
}

func NewJSONParse(err error) error {
	return &AppError{Type: ErrorTypeJSONParse, Message: "Invalid JSON in request body", Err: err}
}

func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

func NewConflict(message string) error {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

func NewMethodNotAllowed(method string) error {
	return &AppError{Type: ErrorTypeMethodNotAllowed, Message: fmt.Sprintf("Method %s not allowed", method)}
}

func NewInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// TypeOf returns the type of the first AppError in err's chain, or INTERNAL
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

func IsConflict(err error) bool {
	return TypeOf(err) == ErrorTypeConflict
}

// FromAWS converts an AWS SDK error into an AppError by its error code.
// resource is used in the client-facing message, e.g. "Report" or "User".
func FromAWS(err error, resource string) error {
	if err == nil {
		return nil
	}

	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return NewInternal(fmt.Sprintf("%s operation failed", resource), err)
	}

	switch ae.ErrorCode() {
	case "UserNotFoundException", "ResourceNotFoundException", "ConditionalCheckFailedException":
		return &AppError{Type: ErrorTypeNotFound, Message: resource + " not found", Err: err}
	case "UsernameExistsException", "AliasExistsException":
		return &AppError{Type: ErrorTypeConflict, Message: resource + " already exists", Err: err}
	case "InvalidPasswordException", "InvalidParameterException", "ValidationException":
		return &AppError{Type: ErrorTypeValidation, Message: ae.ErrorMessage(), Err: err}
	default:
		return NewInternal(fmt.Sprintf("%s operation failed", resource), err)
	}
}
