// Package primitive structured error types for the primitive call surface.
package primitive

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures of the primitive call contract.
type ErrorKind int

const (
	// KindPrecondition marks violations detected before any work is
	// submitted: size mismatches, freed buffers, missing identity.
	KindPrecondition ErrorKind = iota
	// KindCapability marks kernel variants the target device cannot run,
	// detected when the variant is compiled.
	KindCapability
	// KindDevice marks backend faults surfaced at a synchronization point.
	KindDevice
	// KindInternal marks bugs in the library itself.
	KindInternal
)

// Error is a structured error carrying the failing operation and kind.
type Error struct {
	Kind    ErrorKind
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("primitive %s error in %s: %s (caused by: %v)",
			e.Kind.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("primitive %s error in %s: %s", e.Kind.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error kind as a string.
func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "Precondition"
	case KindCapability:
		return "Capability"
	case KindDevice:
		return "Device"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

func newPreconditionError(op, format string, args ...interface{}) error {
	return &Error{Kind: KindPrecondition, Op: op, Message: fmt.Sprintf(format, args...)}
}

func newCapabilityError(op, format string, args ...interface{}) error {
	return &Error{Kind: KindCapability, Op: op, Message: fmt.Sprintf(format, args...)}
}

func newDeviceError(op string, err error) error {
	return &Error{Kind: KindDevice, Op: op, Message: "backend fault", Err: err}
}

// IsPrecondition reports whether err is, or wraps, a precondition error.
func IsPrecondition(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindPrecondition
}

// IsCapability reports whether err is, or wraps, a capability error.
func IsCapability(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindCapability
}

// IsDevice reports whether err is, or wraps, a device error.
func IsDevice(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindDevice
}
