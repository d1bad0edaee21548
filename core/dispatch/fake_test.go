package dispatch_test

import (
	"context"
	"io"
	"reflect"
	"sync"

	"github.com/xenon-middleware/xenon-go/domain/wire"
	"github.com/xenon-middleware/xenon-go/ports"
)

type sentCall struct {
	method string
	req    any
}

// fakeTransport records every call and answers from scripted functions.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []sentCall
	streams []*fakeStream

	invoke    func(method string, req, resp any) error
	newStream func(method string) *fakeStream
}

func (f *fakeTransport) Invoke(ctx context.Context, method string, req, resp any) error {
	f.mu.Lock()
	f.calls = append(f.calls, sentCall{method, req})
	f.mu.Unlock()
	if f.invoke != nil {
		return f.invoke(method, req, resp)
	}
	return nil
}

func (f *fakeTransport) NewStream(ctx context.Context, method string, kind wire.Kind) (ports.ClientStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentCall{method: method})
	s := &fakeStream{out: make(chan any, 16)}
	if f.newStream != nil {
		s = f.newStream(method)
	}
	s.ctx = ctx
	f.streams = append(f.streams, s)
	return s, nil
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) lastRequest() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1].req
}

// fakeStream replays out to Recv. reply, when set, turns each sent
// fragment into a response. Once endAfter fragments were sent, Send
// reports io.EOF as a server that already ended the call does.
type fakeStream struct {
	ctx      context.Context
	mu       sync.Mutex
	sent     []any
	half     bool
	out      chan any
	reply    func(msg any) any
	endAfter int
}

func newFakeStream(responses ...any) *fakeStream {
	s := &fakeStream{out: make(chan any, 16)}
	for _, r := range responses {
		s.out <- r
	}
	return s
}

func (s *fakeStream) Send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endAfter > 0 && len(s.sent) >= s.endAfter {
		return io.EOF
	}
	s.sent = append(s.sent, msg)
	if s.reply != nil {
		if r := s.reply(msg); r != nil {
			s.out <- r
		}
	}
	return nil
}

func (s *fakeStream) CloseSend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.half {
		s.half = true
		close(s.out)
	}
	return nil
}

func (s *fakeStream) Recv(msg any) error {
	select {
	case r, ok := <-s.out:
		if !ok {
			return io.EOF
		}
		if err, isErr := r.(error); isErr {
			return err
		}
		reflect.ValueOf(msg).Elem().Set(reflect.ValueOf(r).Elem())
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *fakeStream) sentFragments() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.sent...)
}

func (s *fakeStream) halfClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.half
}

// session is the test handle. It is its own receiver for static calls.
type session struct {
	tr       *fakeTransport
	mu       sync.Mutex
	bindings []string
}

func newSession() *session { return &session{tr: &fakeTransport{}} }

func (s *session) Transport() ports.Transport { return s.tr }
func (s *session) Handle() *session           { return s }
func (s *session) Wrapped() any               { return nil }

func (s *session) ObserveBindingError(method, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings = append(s.bindings, method+" "+kind)
}

type fsProxy struct {
	s  *session
	fs wire.FileSystem
}

func (p fsProxy) Handle() *session { return p.s }
func (p fsProxy) Wrapped() any     { return p.fs }

type pathProxy struct {
	p wire.Path
}

func (p pathProxy) Wrapped() any { return p.p }

type schedProxy struct {
	s     *session
	sched wire.Scheduler
}

func (p schedProxy) Handle() *session { return p.s }
func (p schedProxy) Wrapped() any     { return p.sched }

// mode mirrors wire.CopyMode the way client code does.
type mode int

func (m mode) EnumNumber() int32 { return int32(m) }
