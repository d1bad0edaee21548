// Package dispatch turns declarative method descriptors into callable
// remote operations.
//
// A Table is built once per wrapper type from a list of Descriptors. Each
// descriptor becomes a Method with one of three calling conventions:
//
//   - Simple: the receiver's wrapped value (or Empty when static) is sent
//     as the request.
//   - Transform: the descriptor's Input transform produces the request or
//     a stream of request fragments.
//   - Request: the call arguments are bound against the request schema and
//     the receiver is placed under the descriptor's field name.
//
// The raw response always passes through the Output transform when one is
// given. The wire shape (unary or streaming) comes from the service catalog.
package dispatch

import (
	"context"

	"github.com/xenon-middleware/xenon-go/core/convention"
	"github.com/xenon-middleware/xenon-go/domain/streaming"
	"github.com/xenon-middleware/xenon-go/ports"
)

// Handle is the session a call is dispatched through.
type Handle interface {
	Transport() ports.Transport
}

// Receiver is the value a method is called on: a proxy bound to a session
// handle, or the handle itself for static calls.
type Receiver[H Handle] interface {
	Handle() H
	Wrapped() any
}

// InputTransform produces the outgoing request from the call arguments.
type InputTransform[H Handle] func(recv Receiver[H], args Args) (Outbound, error)

// OutputTransform converts a raw response into the value returned to the
// caller. It gets the session handle even for static calls.
type OutputTransform[H Handle] func(ctx context.Context, h H, raw any) (any, error)

// Outbound is what an input transform hands to the dispatcher: one message
// or an ordered stream of fragments.
type Outbound struct {
	Message   any
	Fragments streaming.Source[any]
}

// Single wraps one request message.
func Single(msg any) Outbound { return Outbound{Message: msg} }

// Fragments wraps a header fragment followed by the fragments of rest.
func Fragments(header any, rest streaming.Source[any]) Outbound {
	return Outbound{Fragments: streaming.Concat(streaming.FromSlice(header), rest)}
}

// source returns the outbound fragments, treating a single message as a
// one-element stream.
func (o Outbound) source() streaming.Source[any] {
	if o.Fragments != nil {
		return o.Fragments
	}
	return streaming.FromSlice(o.Message)
}

// Descriptor declares one remote method.
type Descriptor[H Handle] struct {
	// Name is the underscore method name, unique within a table. The remote
	// operation is its lower-camel form.
	Name string

	// UsesRequest makes the method build a request whose type name is
	// derived from Name. Request names the type explicitly and implies
	// UsesRequest.
	UsesRequest bool
	Request     string

	// FieldName is the request field receiving the receiver's wrapped value.
	// Empty means the table default.
	FieldName string

	// Static methods never place a receiver in the request.
	Static bool

	// Input takes precedence over request building.
	Input InputTransform[H]

	// Params documents the arguments an Input transform accepts.
	Params []string

	Output OutputTransform[H]

	// Doc overrides the catalog documentation.
	Doc string
}

// RequestName resolves the request type name, or "" when none is built.
func (d Descriptor[H]) RequestName() string {
	if d.Request != "" {
		return d.Request
	}
	if d.UsesRequest {
		return convention.RequestName(d.Name)
	}
	return ""
}

// IsSimple reports whether the method neither builds a request nor has an
// input transform.
func (d Descriptor[H]) IsSimple() bool {
	return d.RequestName() == "" && d.Input == nil
}

// Convention is the calling convention selected for a method.
type Convention int

const (
	SimpleCall Convention = iota
	TransformCall
	RequestCall
)

func (c Convention) String() string {
	switch c {
	case SimpleCall:
		return "simple"
	case TransformCall:
		return "transform"
	case RequestCall:
		return "request"
	}
	return "unknown"
}
