// Package memory provides an in-process loopback transport and an
// in-memory Xenon service for tests and offline use.
package memory

import (
	"context"
	"errors"
	"io"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xenon-middleware/xenon-go/adapters/codec"
	"github.com/xenon-middleware/xenon-go/domain/wire"
	"github.com/xenon-middleware/xenon-go/ports"
)

// UnaryHandler serves one unary call. req is a fresh copy of the client's
// request.
type UnaryHandler func(ctx context.Context, req any) (any, error)

// StreamHandler serves one streaming call. Returning ends the stream; a
// non-nil error is delivered to the client after any sent fragments.
type StreamHandler func(ctx context.Context, stream ServerStream) error

// ServerStream is the server side of a loopback stream.
type ServerStream interface {
	Recv(msg any) error
	Send(msg any) error
}

type unaryEntry struct {
	newReq  func() any
	handler UnaryHandler
}

// Transport is a ports.Transport that dispatches to registered handlers in
// the same process. Every message crosses the boundary through the CBOR
// codec, so client and server never share memory.
type Transport struct {
	codec *codec.CBOR

	mu      sync.RWMutex
	unary   map[string]unaryEntry
	streams map[string]StreamHandler
	calls   []string
	closed  bool
}

// NewTransport creates an empty loopback transport.
func NewTransport() *Transport {
	return &Transport{
		codec:   codec.Default(),
		unary:   make(map[string]unaryEntry),
		streams: make(map[string]StreamHandler),
	}
}

// HandleUnary registers a unary handler for method.
func (t *Transport) HandleUnary(method string, newReq func() any, h UnaryHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unary[method] = unaryEntry{newReq: newReq, handler: h}
}

// HandleStream registers a streaming handler for method.
func (t *Transport) HandleStream(method string, h StreamHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.streams[method] = h
}

// Calls returns the methods invoked so far, in order.
func (t *Transport) Calls() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.calls))
	copy(out, t.calls)
	return out
}

// ResetCalls forgets recorded calls.
func (t *Transport) ResetCalls() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}

func (t *Transport) record(method string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return status.Error(codes.Unavailable, "transport closed")
	}
	t.calls = append(t.calls, method)
	return nil
}

// Invoke performs a unary call.
func (t *Transport) Invoke(ctx context.Context, method string, req, resp any) error {
	if err := t.record(method); err != nil {
		return err
	}
	t.mu.RLock()
	entry, ok := t.unary[method]
	t.mu.RUnlock()
	if !ok {
		return status.Errorf(codes.Unimplemented, "unknown method %s", method)
	}
	if err := ctx.Err(); err != nil {
		return status.FromContextError(err).Err()
	}

	in := entry.newReq()
	if err := t.codec.Copy(in, req); err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	out, err := entry.handler(ctx, in)
	if err != nil {
		return status.Convert(err).Err()
	}
	if err := t.codec.Copy(resp, out); err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return nil
}

// NewStream opens a streaming call. The handler runs in its own goroutine
// until it returns or ctx is cancelled.
func (t *Transport) NewStream(ctx context.Context, method string, kind wire.Kind) (ports.ClientStream, error) {
	if err := t.record(method); err != nil {
		return nil, err
	}
	t.mu.RLock()
	h, ok := t.streams[method]
	t.mu.RUnlock()
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "unknown stream %s", method)
	}

	p := newPipe(ctx, t.codec)
	go func() {
		p.finish(h(ctx, p.server()))
	}()
	return p.client(), nil
}

// Close makes later calls fail with Unavailable.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

var _ ports.Transport = (*Transport)(nil)

// -----------------------------------------------------------------------------
// Pipe
// -----------------------------------------------------------------------------

const pipeBuffer = 16

type pipe struct {
	ctx   context.Context
	codec *codec.CBOR

	toServer chan []byte
	toClient chan []byte
	done     chan struct{}

	closeSend sync.Once
	err       error
}

func newPipe(ctx context.Context, c *codec.CBOR) *pipe {
	return &pipe{
		ctx:      ctx,
		codec:    c,
		toServer: make(chan []byte, pipeBuffer),
		toClient: make(chan []byte, pipeBuffer),
		done:     make(chan struct{}),
	}
}

// finish runs after the handler returns. It is the only closer of toClient.
func (p *pipe) finish(err error) {
	if err != nil {
		p.err = status.Convert(err).Err()
	}
	close(p.done)
	close(p.toClient)
}

func (p *pipe) client() *clientEnd { return &clientEnd{p} }
func (p *pipe) server() *serverEnd { return &serverEnd{p} }

type clientEnd struct{ p *pipe }

func (c *clientEnd) Send(msg any) error {
	data, err := c.p.codec.Marshal(msg)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	select {
	case <-c.p.done:
		return io.EOF
	default:
	}
	select {
	case c.p.toServer <- data:
		return nil
	case <-c.p.done:
		return io.EOF
	case <-c.p.ctx.Done():
		return status.FromContextError(c.p.ctx.Err()).Err()
	}
}

func (c *clientEnd) CloseSend() error {
	c.p.closeSend.Do(func() { close(c.p.toServer) })
	return nil
}

func (c *clientEnd) Recv(msg any) error {
	select {
	case data, ok := <-c.p.toClient:
		if !ok {
			if c.p.err != nil {
				return c.p.err
			}
			return io.EOF
		}
		if err := c.p.codec.Unmarshal(data, msg); err != nil {
			return status.Error(codes.Internal, err.Error())
		}
		return nil
	case <-c.p.ctx.Done():
		return status.FromContextError(c.p.ctx.Err()).Err()
	}
}

type serverEnd struct{ p *pipe }

func (s *serverEnd) Recv(msg any) error {
	select {
	case data, ok := <-s.p.toServer:
		if !ok {
			return io.EOF
		}
		return s.p.codec.Unmarshal(data, msg)
	case <-s.p.ctx.Done():
		return s.p.ctx.Err()
	}
}

func (s *serverEnd) Send(msg any) error {
	data, err := s.p.codec.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case s.p.toClient <- data:
		return nil
	case <-s.p.ctx.Done():
		return s.p.ctx.Err()
	}
}

// IsEOF reports whether err ends a stream normally.
func IsEOF(err error) bool { return errors.Is(err, io.EOF) }
