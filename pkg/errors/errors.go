package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines the failure categories surfaced to the view layer
type ErrorType string

const (
	ErrorTypeFetch         ErrorType = "FETCH_FAILED"
	ErrorTypeValidation    ErrorType = "VALIDATION_FAILED"
	ErrorTypeMutation      ErrorType = "MUTATION_FAILED"
	ErrorTypeAuthorization ErrorType = "AUTHORIZATION_FAILED"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
)

var (
	// ErrSuperseded is returned for a refetch whose result was discarded
	// because a newer query was issued while it was in flight.
	ErrSuperseded = errors.New("query superseded by a newer request")

	// ErrVoteInFlight is returned when a vote for the same fact is still pending.
	ErrVoteInFlight = errors.New("vote already in flight")

	// ErrCircuitOpen is returned by the remote store while its breaker is open.
	ErrCircuitOpen = errors.New("remote store unavailable")
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Op      string
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewFetch reports a failed remote query
func NewFetch(op string, err error) error {
	return &AppError{Type: ErrorTypeFetch, Op: op, Message: "failed to load data", Err: err}
}

// NewValidation reports a local, pre-network validation failure
func NewValidation(message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewMutation reports a failed insert, update or delete
func NewMutation(op, message string, err error) error {
	return &AppError{Type: ErrorTypeMutation, Op: op, Message: message, Err: err}
}

// NewAuthorization reports a secret key mismatch
func NewAuthorization(message string) error {
	return &AppError{Type: ErrorTypeAuthorization, Message: message}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// TypeOf returns the category of err, or "" for foreign errors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsFetch checks if an error is a fetch failure
func IsFetch(err error) bool {
	return TypeOf(err) == ErrorTypeFetch
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsMutation checks if an error is a mutation failure
func IsMutation(err error) bool {
	return TypeOf(err) == ErrorTypeMutation
}

// IsAuthorization checks if an error is a secret key mismatch
func IsAuthorization(err error) bool {
	return TypeOf(err) == ErrorTypeAuthorization
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// UserMessage renders err the way it is shown to a user: the message
// without the wrapped cause chain.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
