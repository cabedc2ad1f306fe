package errors

import (
	"fmt"
	"time"
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// AlreadyLockedError is returned when another live run holds the lock token.
type AlreadyLockedError struct {
	Pid      int
	Acquired time.Time
}

func (err AlreadyLockedError) Error() string {
	return fmt.Sprintf("another sync is already running (pid %d, started %s)",
		err.Pid, err.Acquired.Format(time.RFC3339))
}

// FriendlyMessage makes lock contention readable without extra context.
func (err AlreadyLockedError) FriendlyMessage() string {
	return fmt.Sprintf("Another sync is already in progress.\n"+
		"Lock owner: pid %d, started %s.\n"+
		"If that process is gone, run `syncb unlock` to clear the lock.",
		err.Pid, err.Acquired.Format(time.RFC3339))
}

// TimeoutError is returned when a transfer exceeded its per-item time limit.
type TimeoutError struct {
	Item    string
	Timeout time.Duration
}

func (err TimeoutError) Error() string {
	return fmt.Sprintf("transfer of %q exceeded the %s limit", err.Item, err.Timeout)
}
