// Package metrics provides Prometheus metrics for Xenon client calls.
package metrics

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc/status"

	"github.com/xenon-middleware/xenon-go/domain/wire"
	"github.com/xenon-middleware/xenon-go/ports"
)

const namespace = "xenon"

// Collector holds all Prometheus metrics for the client.
type Collector struct {
	// Call metrics
	CallsTotal    *prometheus.CounterVec
	CallDuration  *prometheus.HistogramVec
	CallsInFlight prometheus.Gauge

	// Stream metrics
	StreamMessages *prometheus.CounterVec

	// Dispatch metrics
	BindingErrors *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Total number of remote calls by result code",
			},
			[]string{"service", "method", "code"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_duration_seconds",
				Help:      "Duration of unary calls and of stream setup in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"service", "method"},
		),
		CallsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "calls_in_flight",
				Help:      "Unary calls and open streams currently in progress",
			},
		),
		StreamMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_messages_total",
				Help:      "Stream fragments sent and received",
			},
			[]string{"method", "direction"},
		),
		BindingErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binding_errors_total",
				Help:      "Calls rejected before reaching the transport",
			},
			[]string{"method", "kind"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// ObserveBindingError implements ports.CallMetrics.
func (c *Collector) ObserveBindingError(method, kind string) {
	c.BindingErrors.WithLabelValues(method, kind).Inc()
}

// ObserveReload records one configuration reload attempt.
func (c *Collector) ObserveReload(err error) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.SetToCurrentTime()
}

// SplitMethod splits "/pkg.Service/op" into its service and operation.
func SplitMethod(full string) (service, op string) {
	full = strings.TrimPrefix(full, "/")
	if i := strings.LastIndex(full, "/"); i >= 0 {
		return full[:i], full[i+1:]
	}
	return "", full
}

// Instrument wraps next so every call is counted and timed.
func (c *Collector) Instrument(next ports.Transport) ports.Transport {
	return &instrumented{next: next, c: c}
}

type instrumented struct {
	next ports.Transport
	c    *Collector
}

func (t *instrumented) Invoke(ctx context.Context, method string, req, resp any) error {
	svc, op := SplitMethod(method)
	t.c.CallsInFlight.Inc()
	defer t.c.CallsInFlight.Dec()

	start := time.Now()
	err := t.next.Invoke(ctx, method, req, resp)
	t.c.CallDuration.WithLabelValues(svc, op).Observe(time.Since(start).Seconds())
	t.c.CallsTotal.WithLabelValues(svc, op, status.Code(err).String()).Inc()
	return err
}

func (t *instrumented) NewStream(ctx context.Context, method string, kind wire.Kind) (ports.ClientStream, error) {
	svc, op := SplitMethod(method)

	start := time.Now()
	st, err := t.next.NewStream(ctx, method, kind)
	t.c.CallDuration.WithLabelValues(svc, op).Observe(time.Since(start).Seconds())
	if err != nil {
		t.c.CallsTotal.WithLabelValues(svc, op, status.Code(err).String()).Inc()
		return nil, err
	}
	t.c.CallsInFlight.Inc()
	return &instrumentedStream{
		ClientStream: st,
		c:            t.c,
		svc:          svc,
		op:           op,
		sent:         t.c.StreamMessages.WithLabelValues(op, "sent"),
		received:     t.c.StreamMessages.WithLabelValues(op, "received"),
	}, nil
}

func (t *instrumented) Close() error { return t.next.Close() }

type instrumentedStream struct {
	ports.ClientStream
	c        *Collector
	svc, op  string
	sent     prometheus.Counter
	received prometheus.Counter
	ended    bool
}

func (s *instrumentedStream) Send(msg any) error {
	err := s.ClientStream.Send(msg)
	if err == nil {
		s.sent.Inc()
	}
	return err
}

// Recv counts fragments and records the call result when the stream ends.
// Recv is not called concurrently, so ended needs no lock.
func (s *instrumentedStream) Recv(msg any) error {
	err := s.ClientStream.Recv(msg)
	switch {
	case err == nil:
		s.received.Inc()
	case !s.ended:
		s.ended = true
		s.c.CallsInFlight.Dec()
		code := status.Code(err)
		if errors.Is(err, io.EOF) {
			code = status.Code(nil)
		}
		s.c.CallsTotal.WithLabelValues(s.svc, s.op, code.String()).Inc()
	}
	return err
}

var (
	_ ports.Transport   = (*instrumented)(nil)
	_ ports.CallMetrics = (*Collector)(nil)
)
