package dispatch

import "errors"

// Sentinel errors for dispatch operations.
var (
	// ErrClosed is returned when submitting to a closed dispatcher.
	ErrClosed = errors.New("dispatcher closed")

	// ErrDLQFull is returned when the dead letter queue is at capacity.
	ErrDLQFull = errors.New("dead letter queue full")

	// ErrNotFound is returned when a failed operation is not in the queue.
	ErrNotFound = errors.New("failed operation not found")
)
