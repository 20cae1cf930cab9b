package faults

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind represents the category of a failure crossing a system boundary.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport is a network or connection failure towards the prover or the ledger RPC.
	KindTransport
	// KindProtocol is a malformed or unexpected response shape from an external system.
	KindProtocol
	// KindValidation is a locally detected mismatch in decoded data.
	KindValidation
	// KindLedgerRejection is a ledger call that completed but reverted.
	KindLedgerRejection
	// KindPrecondition is a missing input detected before any side effect.
	KindPrecondition
	// KindCanceled is a caller-imposed cancellation or deadline.
	KindCanceled
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindValidation:
		return "validation"
	case KindLedgerRejection:
		return "ledger_rejection"
	case KindPrecondition:
		return "precondition"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is a structured failure tagged with its Kind, the operation that
// produced it and, optionally, a component sentinel so callers can match
// both with errors.Is.
type Error struct {
	Kind     Kind
	Op       string
	Message  string
	Sentinel error
	Cause    error
	Context  map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Sentinel != nil:
		b.WriteString(e.Sentinel.Error())
	default:
		b.WriteString(e.Kind.String() + " error")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the sentinel and the cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Sentinel != nil {
		out = append(out, e.Sentinel)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// New creates a new error of the given kind for op.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// WithSentinel attaches a component sentinel error.
func (e *Error) WithSentinel(sentinel error) *Error {
	e.Sentinel = sentinel
	return e
}

// WithMessage sets a human readable message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// WithCause adds a cause error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// KindOf returns the Kind of the outermost *Error in err's chain. Context
// cancellation is reported as KindCanceled even when it was not wrapped.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FromContext converts a context error into a KindCanceled error, or returns nil.
func FromContext(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return New(KindCanceled, op).WithCause(err)
	}
	return nil
}
