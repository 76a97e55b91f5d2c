// internal/service/errors.go
package service

import (
	"errors"
	"fmt"

	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
)

// Error kinds. Callers match with errors.Is; the transport maps each kind to
// a status code.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation failed")
	ErrProvider          = errors.New("video provider error")
	ErrUnavailable       = errors.New("unavailable")
)

// Error pairs a kind with a message safe to show the caller.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// PublicMessage returns the caller-safe message for err, or fallback when
// err carries none.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}

// lookup translates a repository miss into a typed not-found error.
func lookup(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, what+" not found")
	}
	return err
}
