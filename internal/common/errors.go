// Package common defines shared constants, sentinel errors and the Kind-carrying
// Error used across the server layers. Callers should use errors.Is / errors.As
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// Kind is the reason code of a failed operation. The HTTP layer maps it to a
// status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindPermissionDenied
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPermissionDenied:
		return "permission_denied"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Error is the failure result returned by services. Text is safe to show to
// the caller; Fields carries per-field messages for validation failures.
type Error struct {
	Kind   Kind
	Text   string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Text, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Text)
}

func (e *Error) Unwrap() error { return e.Err }

// Fail builds an Error of the given kind with a caller-facing message.
func Fail(kind Kind, text string) *Error {
	return &Error{Kind: kind, Text: text}
}

// Invalid builds a validation Error from per-field messages.
func Invalid(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Text: "invalid input", Fields: fields}
}

// Internal hides err behind a generic message while keeping it for logging.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Text: ErrorInternal.Error(), Err: err}
}
