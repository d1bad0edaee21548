package dispatch

import (
	"errors"
	"fmt"
)

// Construction errors.
var (
	ErrUnknownOperation = errors.New("unknown remote operation")
	ErrUnknownSchema    = errors.New("unknown request schema")
	ErrDuplicateMethod  = errors.New("duplicate method")
	ErrUnknownMethod    = errors.New("unknown method")
)

// UnknownFieldError is returned when a keyword argument names a field the
// request does not have.
type UnknownFieldError struct {
	Method  string
	Request string
	Field   string
}

func (e *UnknownFieldError) Error() string {
	if e.Request == "" {
		return fmt.Sprintf("%s: unexpected keyword argument %q", e.Method, e.Field)
	}
	return fmt.Sprintf("%s: %s has no field %q", e.Method, e.Request, e.Field)
}

// ArgumentBindingError is returned when call arguments cannot be bound to a
// request, or a descriptor cannot place its receiver.
type ArgumentBindingError struct {
	Method string
	Reason string
	Err    error
}

func (e *ArgumentBindingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Method, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Reason)
}

func (e *ArgumentBindingError) Unwrap() error { return e.Err }

// RemoteOperationError wraps a failure of the transport or the remote side.
// The wrapped error is passed through unchanged.
type RemoteOperationError struct {
	Method string
	Err    error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("%s: remote operation failed: %v", e.Method, e.Err)
}

func (e *RemoteOperationError) Unwrap() error { return e.Err }

// StreamClosedError is returned by a pull on a stream that was already
// closed or exhausted.
type StreamClosedError struct {
	Method string
}

func (e *StreamClosedError) Error() string {
	return fmt.Sprintf("%s: stream closed", e.Method)
}

// IsBindingError reports whether err was raised before dispatch.
func IsBindingError(err error) bool {
	var ufe *UnknownFieldError
	var abe *ArgumentBindingError
	return errors.As(err, &ufe) || errors.As(err, &abe)
}

// bindingKind labels a binding error for metrics.
func bindingKind(err error) string {
	var ufe *UnknownFieldError
	if errors.As(err, &ufe) {
		return "unknown_field"
	}
	return "argument_binding"
}
