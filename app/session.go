// Package app exposes the Xenon file-system and scheduler services as local
// objects: a Session bound to a transport, and proxies (FileSystem,
// Scheduler, Job, ...) whose methods are synthesized from descriptor tables.
package app

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xenon-middleware/xenon-go/domain/wire"
	"github.com/xenon-middleware/xenon-go/ports"
)

// ErrSessionClosed is returned by calls made after Session.Close.
var ErrSessionClosed = errors.New("session closed")

// Session is the live connection every proxy dispatches through. It is
// shared by its proxies and safe for concurrent use.
type Session struct {
	raw       ports.Transport
	transport ports.Transport
	logger    zerolog.Logger
	metrics   ports.CallMetrics
	closed    atomic.Bool
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	logger  zerolog.Logger
	metrics ports.CallMetrics
	ids     ports.IDGenerator
}

// WithLogger sets the session logger. Calls log at debug, binding failures
// at warn.
func WithLogger(l zerolog.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = l }
}

// WithMetrics records binding failures with m.
func WithMetrics(m ports.CallMetrics) SessionOption {
	return func(c *sessionConfig) { c.metrics = m }
}

// WithRequestIDs sets the generator for per-call request ids. The default
// is a random UUID per call.
func WithRequestIDs(g ports.IDGenerator) SessionOption {
	return func(c *sessionConfig) { c.ids = g }
}

// NewSession binds a session to tr. The session owns tr: Close closes it.
func NewSession(tr ports.Transport, opts ...SessionOption) *Session {
	cfg := sessionConfig{
		logger:  zerolog.Nop(),
		metrics: ports.NopMetrics{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		raw:     tr,
		logger:  cfg.logger,
		metrics: cfg.metrics,
	}
	s.transport = &loggingTransport{next: tr, session: s, ids: cfg.ids}
	return s
}

// Transport returns the transport calls are dispatched through.
func (s *Session) Transport() ports.Transport { return s.transport }

// Handle makes the session the receiver of static calls.
func (s *Session) Handle() *Session { return s }

// Wrapped is nil: a session wraps no remote value.
func (s *Session) Wrapped() any { return nil }

// Logger returns the session logger.
func (s *Session) Logger() zerolog.Logger { return s.logger }

// ObserveBindingError implements ports.CallMetrics.
func (s *Session) ObserveBindingError(method, kind string) {
	s.logger.Warn().Str("method", method).Str("kind", kind).Msg("call rejected before dispatch")
	s.metrics.ObserveBindingError(method, kind)
}

// Close releases the transport. Proxies of a closed session fail every
// call with ErrSessionClosed.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.raw.Close()
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed.Load() }

// loggingTransport attaches a request id to every call and logs it.
type loggingTransport struct {
	next    ports.Transport
	session *Session
	ids     ports.IDGenerator
}

func (t *loggingTransport) begin(ctx context.Context) (context.Context, string, error) {
	if t.session.Closed() {
		return ctx, "", ErrSessionClosed
	}
	id := ports.RequestID(ctx)
	if id == "" {
		if t.ids != nil {
			id = t.ids.New()
		} else {
			id = uuid.NewString()
		}
		ctx = ports.WithRequestID(ctx, id)
	}
	return ctx, id, nil
}

func (t *loggingTransport) log(method, id string, start time.Time, err error) {
	svc, op, _ := strings.Cut(strings.TrimPrefix(method, "/"), "/")
	t.session.logger.Debug().
		Err(err).
		Str("service", svc).
		Str("method", op).
		Str("request_id", id).
		Dur("duration", time.Since(start)).
		Msg("xenon call")
}

func (t *loggingTransport) Invoke(ctx context.Context, method string, req, resp any) error {
	ctx, id, err := t.begin(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	err = t.next.Invoke(ctx, method, req, resp)
	t.log(method, id, start, err)
	return err
}

func (t *loggingTransport) NewStream(ctx context.Context, method string, kind wire.Kind) (ports.ClientStream, error) {
	ctx, id, err := t.begin(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	st, err := t.next.NewStream(ctx, method, kind)
	t.log(method, id, start, err)
	return st, err
}

func (t *loggingTransport) Close() error { return t.session.Close() }
