package dispatch

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/xenon-middleware/xenon-go/ports"
)

// ResponseStream is the pull-based decoder of a server stream. Each Next
// decodes one fragment in arrival order. The pull that reaches the end
// returns io.EOF; later pulls, and pulls after Close, return
// StreamClosedError.
//
// The stream is bound to the context of the call that opened it; the ctx
// passed to Next is only checked before each pull.
type ResponseStream struct {
	method string
	stream ports.ClientStream
	newMsg func() any
	cancel context.CancelFunc

	mu      sync.Mutex // serializes pulls
	done    atomic.Bool
	closed  atomic.Bool
	pumpErr atomic.Pointer[error]
}

func newResponseStream(method string, stream ports.ClientStream, newMsg func() any, cancel context.CancelFunc) *ResponseStream {
	return &ResponseStream{
		method: method,
		stream: stream,
		newMsg: newMsg,
		cancel: cancel,
	}
}

// Method is the wire method the stream belongs to.
func (s *ResponseStream) Method() string { return s.method }

// Next decodes the next fragment.
func (s *ResponseStream) Next(ctx context.Context) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done.Load() || s.closed.Load() {
		return nil, &StreamClosedError{Method: s.method}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := s.newMsg()
	err := s.stream.Recv(msg)
	if err == nil {
		return msg, nil
	}

	s.done.Store(true)
	s.cancel()
	if s.closed.Load() {
		return nil, &StreamClosedError{Method: s.method}
	}
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if p := s.pumpErr.Load(); p != nil {
		return nil, *p
	}
	return nil, &RemoteOperationError{Method: s.method, Err: err}
}

// Close cancels the call. It stops the input pump of a bidirectional
// stream and unblocks a pending Next.
func (s *ResponseStream) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.cancel()
	}
	return nil
}

// fail records an input-side failure and cancels the call.
func (s *ResponseStream) fail(err error) {
	s.pumpErr.CompareAndSwap(nil, &err)
	s.cancel()
}
