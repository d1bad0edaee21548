// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Transport Ports
// -----------------------------------------------------------------------------

// Transport carries calls to the remote service.
//
// Method names have the form "/<service>/<operation>". Messages are the
// pointer types from domain/wire.
type Transport interface {
	// Invoke performs a unary call, decoding the reply into resp.
	Invoke(ctx context.Context, method string, req, resp any) error

	// NewStream opens a streaming call of the given kind.
	NewStream(ctx context.Context, method string, kind wire.Kind) (ClientStream, error)

	// Close releases the connection.
	Close() error
}

// ClientStream is the client side of one streaming call.
type ClientStream interface {
	// Send transmits one fragment. Fragments arrive in send order.
	Send(msg any) error

	// CloseSend half-closes the stream.
	CloseSend() error

	// Recv decodes the next fragment into msg. Returns io.EOF at the end.
	Recv(msg any) error
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// CallMetrics records client-side dispatch events that never reach the
// transport.
type CallMetrics interface {
	ObserveBindingError(method, kind string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ObserveBindingError(string, string) {}

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
