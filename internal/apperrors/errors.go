package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; the HTTP layer maps each kind to a status code.
var (
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPermission         = errors.New("permission denied")
	ErrIllegalTransition  = errors.New("illegal transition")
	ErrNotFound           = errors.New("not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error carries a user-facing message for one of the kinds above
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation builds an ErrValidation error
func Validation(format string, args ...any) *Error {
	return newError(ErrValidation, format, args...)
}

// Unauthorized builds an ErrUnauthorized error
func Unauthorized(format string, args ...any) *Error {
	return newError(ErrUnauthorized, format, args...)
}

// Permission builds an ErrPermission error
func Permission(format string, args ...any) *Error {
	return newError(ErrPermission, format, args...)
}

// IllegalTransition builds the state machine violation error for from -> to
func IllegalTransition(from, to string) *Error {
	return newError(ErrIllegalTransition, "非法状态流转: %s -> %s", from, to)
}

// NotFound builds an ErrNotFound error
func NotFound(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

// StoreUnavailable wraps a transient store failure
func StoreUnavailable(err error) *Error {
	return &Error{Kind: ErrStoreUnavailable, Message: "store unavailable: " + err.Error()}
}

// Message returns the user-facing text of err
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

