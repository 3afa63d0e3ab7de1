package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors. They are part of the API contract.
const (
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeValidation       = "validation_failed"
	ErrCodeForbidden        = "forbidden"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeTimeout          = "timeout"
	ErrCodeStoreUnavailable = "store_unavailable"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeInternal         = "internal_error"
)

// Sentinels matched with errors.Is against any *CoreError of the same kind.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrTimeout          = errors.New("timeout")
	ErrStoreUnavailable = errors.New("store unavailable")
)

var sentinelCodes = map[error]string{
	ErrNotFound:         ErrCodeNotFound,
	ErrConflict:         ErrCodeConflict,
	ErrValidation:       ErrCodeValidation,
	ErrForbidden:        ErrCodeForbidden,
	ErrUnauthenticated:  ErrCodeUnauthorized,
	ErrTimeout:          ErrCodeTimeout,
	ErrStoreUnavailable: ErrCodeStoreUnavailable,
}

// CoreError wraps a code, a human-readable message and the underlying cause.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the original cause.
func (e *CoreError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *CoreError) Is(target error) bool {
	code, ok := sentinelCodes[target]
	return ok && code == e.Code
}

func coreError(code, msg string, cause error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: cause}
}

// NotFound reports a referenced entity that does not exist.
func NotFound(format string, args ...any) *CoreError {
	return coreError(ErrCodeNotFound, fmt.Sprintf(format, args...), nil)
}

// Conflict reports a uniqueness or state-transition violation.
func Conflict(format string, args ...any) *CoreError {
	return coreError(ErrCodeConflict, fmt.Sprintf(format, args...), nil)
}

// Validation reports input or referential constraint violations.
func Validation(format string, args ...any) *CoreError {
	return coreError(ErrCodeValidation, fmt.Sprintf(format, args...), nil)
}

// Forbidden reports a failed authorization check.
func Forbidden(format string, args ...any) *CoreError {
	return coreError(ErrCodeForbidden, fmt.Sprintf(format, args...), nil)
}

// Unauthenticated reports a missing or invalid session.
func Unauthenticated(format string, args ...any) *CoreError {
	return coreError(ErrCodeUnauthorized, fmt.Sprintf(format, args...), nil)
}

// Wrap classifies cause under code, keeping cause reachable through errors.Is/As.
func Wrap(code string, cause error, msg string) *CoreError {
	return coreError(code, msg, cause)
}

// WithMessage keeps the kind and cause of a *CoreError but replaces its public
// message. Errors that are not *CoreError are returned unchanged.
func WithMessage(err error, msg string) error {
	var ce *CoreError
	if !errors.As(err, &ce) {
		return err
	}
	return coreError(ce.Code, msg, ce.Err)
}

// CodeOf returns the stable code for err, ErrCodeInternal for unclassified errors.
func CodeOf(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternal
}

// MessageOf returns the public message for err. Unclassified errors never leak
// their text.
func MessageOf(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return "internal server error"
}
