package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the service layer. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("unauthorized")
	ErrInternal   = errors.New("internal error")
)

// Error is a service error with a message that is safe to show to clients.
type Error struct {
	kind    error
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{kind: kind, Message: msg, cause: cause}
}

func validationError(msg string) error {
	return newError(ErrValidation, msg, nil)
}

func notFoundError(msg string) error {
	return newError(ErrNotFound, msg, nil)
}

func conflictError(msg string) error {
	return newError(ErrConflict, msg, nil)
}

func internalError(msg string, cause error) error {
	return newError(ErrInternal, msg, cause)
}

// Message returns the client facing message of err.
// Errors that did not originate in this package yield a generic message.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		if se.kind == ErrInternal && se.cause != nil {
			return se.Error()
		}
		return se.Message
	}
	return ErrInternal.Error()
}
