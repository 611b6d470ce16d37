package errors

import (
	"fmt"
	"runtime/debug"
)

// Error is a classified pulse error.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Op is the operation being attempted ("track", "screen_started", ...).
	Op string

	// Key is the integration key for integration faults, or the offending
	// field name for invalid arguments.
	Key string

	// Message is a human readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidArgument:
		return e.Message
	case KindIntegrationFault:
		if e.Err != nil {
			return fmt.Sprintf("integration %s failed on %s: %v", e.Key, e.Op, e.Err)
		}
		return fmt.Sprintf("integration %s failed on %s", e.Key, e.Op)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// InvalidArgument creates a validation error for field.
func InvalidArgument(field, message string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Key:     field,
		Message: message,
	}
}

// IntegrationFault wraps a failure raised by integration key during op.
func IntegrationFault(key, op string, err error) *Error {
	return &Error{
		Kind: KindIntegrationFault,
		Op:   op,
		Key:  key,
		Err:  err,
	}
}

// ObserverRaceDefect reports a double-fired at-most-once lifecycle event.
func ObserverRaceDefect(event string) *Error {
	return &Error{
		Kind:    KindObserverRaceDefect,
		Op:      event,
		Message: fmt.Sprintf("%q produced more than once", event),
	}
}

// PanicError captures a panic recovered from an integration hook.
type PanicError struct {
	// Value is the value passed to panic.
	Value any

	// Stack is the goroutine stack at the point of recovery.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "panic: " + describe(e.Value)
}

// NewPanicError captures the current stack for a recovered value.
func NewPanicError(v any) *PanicError {
	return &PanicError{
		Value: v,
		Stack: string(debug.Stack()),
	}
}
