package primitive

import (
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestStructuredErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantOp   string
		checkFn  func(error) bool
	}{
		{
			name:     "Precondition",
			err:      newPreconditionError("Scanner.Enqueue", "count %d exceeds buffer length", 9),
			wantKind: KindPrecondition,
			wantOp:   "Scanner.Enqueue",
			checkFn:  IsPrecondition,
		},
		{
			name:     "Capability",
			err:      newCapabilityError("Scanner.Compile", "warp width %d unsupported", 12),
			wantKind: KindCapability,
			wantOp:   "Scanner.Compile",
			checkFn:  IsCapability,
		},
		{
			name:     "Device",
			err:      newDeviceError("Reduce", errors.New("allocation failed")),
			wantKind: KindDevice,
			wantOp:   "Reduce",
			checkFn:  IsDevice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e *Error
			if !errors.As(tt.err, &e) {
				t.Fatalf("not a *Error: %v", tt.err)
			}
			if e.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", e.Kind, tt.wantKind)
			}
			if e.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", e.Op, tt.wantOp)
			}
			if !tt.checkFn(tt.err) {
				t.Error("kind predicate rejected its own error")
			}
			if !strings.Contains(tt.err.Error(), tt.wantOp) {
				t.Errorf("message %q missing op", tt.err.Error())
			}
		})
	}
}

func TestErrorPredicatesThroughWrapping(t *testing.T) {
	// Predicates must see through pkg/errors context wrapping.
	err := pkgerrors.Wrap(newPreconditionError("Reduce", "bad count"), "enqueue failed")
	if !IsPrecondition(err) {
		t.Error("IsPrecondition failed through wrap")
	}
	if IsCapability(err) {
		t.Error("IsCapability matched a precondition error")
	}
}

func TestDeviceErrorUnwrap(t *testing.T) {
	cause := errors.New("backend execution error")
	err := newDeviceError("Sorter.Enqueue", cause)
	if !errors.Is(err, cause) {
		t.Error("device error should unwrap to its cause")
	}
}
