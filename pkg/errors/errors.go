package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return goErrors.New(msg)
}

// ContextError wraps an error with a message describing the operation that
// caused it. The root cause is preserved so that callers can still inspect
// the error's type.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

func (err ContextError) Unwrap() error {
	return err.Err
}

// WithContext annotates err with the given operation description.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// RootCause unwraps err until it finds the innermost error.
func RootCause(err error) error {
	for {
		wrapped, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = wrapped.Err
	}
}

// FriendlyError is an error that can be printed to the user directly, without
// any additional context about the failed operation.
type FriendlyError struct {
	Message string
}

func (err FriendlyError) Error() string {
	return err.Message
}

// FriendlyMessage returns the message that should be shown to the user.
func (err FriendlyError) FriendlyMessage() string {
	return err.Message
}

// NewFriendlyError creates an error meant to be read by end users.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}

type friendlier interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the user-facing representation of err. Friendly
// errors are printed as-is, anything else gets the standard error formatting.
func GetPrintableMessage(err error) string {
	if friendly, ok := err.(friendlier); ok {
		return friendly.FriendlyMessage()
	}

	if wrapped, ok := err.(ContextError); ok {
		if friendly, ok := RootCause(wrapped).(friendlier); ok {
			return friendly.FriendlyMessage()
		}
	}
	return err.Error()
}
