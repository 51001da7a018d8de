package sdep

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates a bounded retry gave up.
	ErrTimeout = errors.New("timeout")
	// ErrReset indicates the command was the reset keyword and a reset
	// has been requested instead of sending anything.
	ErrReset = errors.New("reset requested")
	// ErrPayloadTooLong indicates the payload doesn't fit the 8-bit length.
	ErrPayloadTooLong = errors.New("payload too long")
)

// RetryError is returned when a retry policy is exhausted.
type RetryError struct {
	Op       string
	Attempts int
}

// Error implements error.
func (e *RetryError) Error() string {
	return fmt.Sprintf("%s: peer not ready after %d attempts", e.Op, e.Attempts)
}

// Timeout reports this is a timeout.
func (e *RetryError) Timeout() bool { return true }

// Is matches ErrTimeout.
func (e *RetryError) Is(target error) bool {
	return target == ErrTimeout
}
