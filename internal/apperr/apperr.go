// Package apperr classifies failures coming out of the persistence adapters
// so callers can tell a missing record apart from a broken store.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies the class of an error.
type Code string

const (
	Internal  Code = "INTERNAL_ERROR"
	Invalid   Code = "INVALID_INPUT"
	NotFound  Code = "NOT_FOUND"
	Duplicate Code = "DUPLICATE"
	Database  Code = "DATABASE_ERROR"
	Codec     Code = "CODEC_ERROR"
)

// Error carries a Code alongside a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches code and message to err.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether any error in err's chain is an *Error with code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}
