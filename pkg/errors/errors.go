package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can tell retryable failures from fatal ones.
type Kind string

const (
	// KindConnection covers pool exhaustion cancellations, closed pools and dropped connections.
	KindConnection Kind = "CONNECTION"

	// KindConstraintViolation indicates a UNIQUE/FOREIGN KEY/NOT NULL violation.
	KindConstraintViolation Kind = "CONSTRAINT_VIOLATION"

	// KindNotFound indicates a missing row.
	KindNotFound Kind = "NOT_FOUND"

	// KindValidation indicates rejected input.
	KindValidation Kind = "VALIDATION"

	// KindUnauthorized indicates that no user is logged in.
	KindUnauthorized Kind = "UNAUTHORIZED"

	// KindForbidden indicates that the logged in user lacks the required role or ownership.
	KindForbidden Kind = "FORBIDDEN"

	// KindInternal is everything else.
	KindInternal Kind = "INTERNAL"
)

// AppError is the error type returned across package boundaries.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func NewConnectionError(message string, err error) *AppError {
	return New(KindConnection, message, err)
}

func NewConstraintViolation(message string, err error) *AppError {
	return New(KindConstraintViolation, message, err)
}

func NewNotFoundError(message string) *AppError {
	return New(KindNotFound, message, nil)
}

func NewValidationError(message string) *AppError {
	return New(KindValidation, message, nil)
}

func NewUnauthorizedError(message string) *AppError {
	return New(KindUnauthorized, message, nil)
}

func NewForbiddenError(message string) *AppError {
	return New(KindForbidden, message, nil)
}

func NewInternalError(message string, err error) *AppError {
	return New(KindInternal, message, err)
}

// Wrap prefixes message onto err while keeping its kind. Errors without a kind become Internal.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return New(KindOf(err), message, err)
}

// KindOf returns the kind of the outermost AppError in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

func IsConstraintViolation(err error) bool {
	return IsKind(err, KindConstraintViolation)
}

func IsConnection(err error) bool {
	return IsKind(err, KindConnection)
}

// IsRetryable reports whether repeating the operation could succeed.
// Nothing in this module retries on its own.
func IsRetryable(err error) bool {
	return IsConnection(err)
}
