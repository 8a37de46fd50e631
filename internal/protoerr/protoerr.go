// Package protoerr defines the error taxonomy used by the codec, buffer,
// packet view, and handler layers. Their failures are *Error values of one
// of these kinds; an underlying cause, where there is one, is kept in Err
// and exposed through Unwrap.
package protoerr

import (
	"errors"
	"fmt"
)

// Kind tags the category of a protocol-level failure; As recovers it from
// an error. Session does not consult Kind: any error a handler or the
// dispatcher returns becomes a ProtocolError disconnect.
type Kind int

const (
	KindProtocol Kind = iota
	KindNetwork
	KindTimeout
	KindCapacityExceeded
	KindInternal
	KindAuthFailed
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol_error"
	case KindNetwork:
		return "network_error"
	case KindTimeout:
		return "timeout"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindInternal:
		return "internal_error"
	case KindAuthFailed:
		return "auth_failed"
	default:
		return "unknown"
	}
}

// Error is the concrete type returned by fallible buffer/view/handler
// operations. Callers recover the Kind with errors.As.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func new_(k Kind, msg string) error {
	return &Error{Kind: k, Msg: msg}
}

func wrap(k Kind, msg string, err error) error {
	return &Error{Kind: k, Msg: msg, Err: err}
}

// Protocol reports a malformed packet, bounds violation, or invalid field.
func Protocol(format string, args ...interface{}) error {
	return new_(KindProtocol, fmt.Sprintf(format, args...))
}

// ProtocolWrap reports a protocol error with an underlying cause.
func ProtocolWrap(err error, format string, args ...interface{}) error {
	return wrap(KindProtocol, fmt.Sprintf(format, args...), err)
}

// Network reports an I/O failure, peer reset, or unexpected EOF.
func Network(err error) error {
	return wrap(KindNetwork, "network error", err)
}

// Timeout reports that the idle threshold was exceeded.
func Timeout() error {
	return new_(KindTimeout, "idle timeout exceeded")
}

// CapacityExceeded reports that admission hit a global or per-IP cap.
func CapacityExceeded(format string, args ...interface{}) error {
	return new_(KindCapacityExceeded, fmt.Sprintf(format, args...))
}

// Internal reports an invariant violation that should be impossible from
// client input alone.
func Internal(format string, args ...interface{}) error {
	return new_(KindInternal, fmt.Sprintf(format, args...))
}

// AuthFailed reports that encryption or authentication was rejected.
func AuthFailed(format string, args ...interface{}) error {
	return new_(KindAuthFailed, fmt.Sprintf(format, args...))
}

// As extracts the Kind and message from err if it (or something it wraps)
// is a *Error. ok is false for plain errors, in which case callers should
// treat the failure as KindInternal.
func As(err error) (kind Kind, msg string, ok bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, pe.Msg, true
	}
	return KindInternal, "", false
}
