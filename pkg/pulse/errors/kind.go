// Package errors defines the pulse error taxonomy and retry helpers.
//
// Three kinds of failure exist:
//   - InvalidArgument: a public emission call was given a blank identifier.
//     Reported synchronously; nothing is enqueued.
//   - IntegrationFault: an integration hook returned an error or panicked.
//     Logged with the integration key and operation name, then swallowed.
//   - ObserverRaceDefect: an at-most-once lifecycle event fired twice.
//     Structurally prevented; observing one is a bug.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a pulse error.
type Kind int

const (
	// KindUnknown is the zero value for errors that carry no kind.
	KindUnknown Kind = iota

	// KindInvalidArgument indicates a missing or blank required argument.
	KindInvalidArgument

	// KindIntegrationFault indicates an integration hook failed.
	KindIntegrationFault

	// KindObserverRaceDefect indicates an at-most-once event was produced twice.
	KindObserverRaceDefect
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindIntegrationFault:
		return "integration_fault"
	case KindObserverRaceDefect:
		return "observer_race_defect"
	default:
		return "unknown"
	}
}

// Sentinel errors matched by errors.Is against an *Error of the same kind.
var (
	// ErrInvalidArgument matches every KindInvalidArgument error.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIntegrationFault matches every KindIntegrationFault error.
	ErrIntegrationFault = errors.New("integration fault")

	// ErrObserverRaceDefect matches every KindObserverRaceDefect error.
	ErrObserverRaceDefect = errors.New("observer race defect")
)

// sentinel returns the sentinel for a kind, or nil.
func (k Kind) sentinel() error {
	switch k {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindIntegrationFault:
		return ErrIntegrationFault
	case KindObserverRaceDefect:
		return ErrObserverRaceDefect
	default:
		return nil
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsInvalidArgument reports whether err is a validation failure.
func IsInvalidArgument(err error) bool {
	return KindOf(err) == KindInvalidArgument
}

// IsRetryable reports whether replaying the failed work could succeed.
// Integration faults are retryable unless the hook panicked.
func IsRetryable(err error) bool {
	if KindOf(err) != KindIntegrationFault {
		return false
	}
	var p *PanicError
	return !errors.As(err, &p)
}

// describe renders a value for error messages.
func describe(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(v)
}
