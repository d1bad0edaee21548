// Package bootstrap wires the transport, session, metrics and configuration
// together for command-line and embedded use.
package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"

	"github.com/xenon-middleware/xenon-go/adapters/grpcconn"
	"github.com/xenon-middleware/xenon-go/adapters/idgen"
	"github.com/xenon-middleware/xenon-go/adapters/memory"
	"github.com/xenon-middleware/xenon-go/adapters/metrics"
	"github.com/xenon-middleware/xenon-go/app"
	"github.com/xenon-middleware/xenon-go/config"
	"github.com/xenon-middleware/xenon-go/ports"
)

// App is a configured client ready to make calls.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Session *app.Session

	// Metrics and Registry are nil unless metrics are enabled.
	Metrics  *metrics.Collector
	Registry *prometheus.Registry

	// Holder is set when the config came from a file.
	Holder *config.Holder

	// Loopback is the in-process service in memory mode.
	Loopback *memory.Service

	MetricsServer *http.Server
}

// Options tunes application initialization.
type Options struct {
	// ConfigPath is read when it exists; otherwise XENON_* variables are used.
	ConfigPath string

	// Watch reloads ConfigPath on change and on SIGHUP.
	Watch bool

	// LogOutput defaults to stderr.
	LogOutput io.Writer

	// MetricsAddr overrides metrics.addr and enables metrics when set.
	MetricsAddr string

	// RequestIDs overrides the per-call request id generator.
	RequestIDs ports.IDGenerator
}

// New loads configuration and creates the application.
func New(opts Options) (*App, error) {
	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err == nil {
			holder, err := config.NewHolder(opts.ConfigPath, zerolog.Nop())
			if err != nil {
				return nil, err
			}
			a, err := NewWithConfig(holder.Get(), opts)
			if err != nil {
				holder.Stop()
				return nil, err
			}
			a.attachHolder(holder, opts.Watch)
			return a, nil
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, opts)
}

// NewWithConfig creates the application from an already loaded config.
func NewWithConfig(cfg *config.Config, opts Options) (*App, error) {
	if opts.MetricsAddr != "" {
		c := *cfg
		c.Metrics.Enabled = true
		c.Metrics.Addr = opts.MetricsAddr
		cfg = &c
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := NewLogger(cfg.Logging, out)

	a := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Metrics = metrics.NewWithRegistry(a.Registry)
		logger.Debug().Msg("prometheus metrics enabled")
	}

	tr, err := a.initTransport()
	if err != nil {
		return nil, fmt.Errorf("init transport: %w", err)
	}
	if a.Metrics != nil {
		tr = a.Metrics.Instrument(tr)
	}

	sessionOpts := []app.SessionOption{app.WithLogger(logger)}
	if a.Metrics != nil {
		sessionOpts = append(sessionOpts, app.WithMetrics(a.Metrics))
	}
	if opts.RequestIDs != nil {
		sessionOpts = append(sessionOpts, app.WithRequestIDs(opts.RequestIDs))
	}
	a.Session = app.NewSession(tr, sessionOpts...)

	if cfg.Metrics.Enabled {
		a.MetricsServer = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           a.MetricsHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	logger.Debug().
		Str("mode", cfg.Transport.Mode).
		Str("target", cfg.Transport.Target).
		Msg("xenon client initialized")

	return a, nil
}

func (a *App) initTransport() (ports.Transport, error) {
	tc := a.Config.Transport
	switch tc.Mode {
	case config.ModeMemory:
		tr, svc := memory.NewLoopback(
			memory.WithIDs(idgen.UUID{}),
			memory.WithReadChunkSize(a.Config.Streams.ChunkSize),
		)
		a.Loopback = svc
		return tr, nil
	case config.ModeGRPC:
		var dialOpts []grpc.DialOption
		if tc.DialTimeout > 0 {
			dialOpts = append(dialOpts, grpc.WithConnectParams(grpc.ConnectParams{
				Backoff:           backoff.DefaultConfig,
				MinConnectTimeout: tc.DialTimeout,
			}))
		}
		return grpcconn.NewClient(grpcconn.ClientConfig{
			Target:         tc.Target,
			CallTimeout:    tc.CallTimeout,
			MaxRecvMsgSize: tc.MaxMessageSize,
			Headers:        tc.Headers,
		}, dialOpts...)
	default:
		return nil, fmt.Errorf("unknown transport mode %q", tc.Mode)
	}
}

func (a *App) attachHolder(h *config.Holder, watch bool) {
	a.Holder = h
	if a.Metrics != nil {
		h.SetObserver(a.Metrics)
	}
	h.OnChange(func(cfg *config.Config) {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	})
	if !watch {
		return
	}
	if err := h.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch disabled")
	}
	h.WatchSignals()
}

// CurrentConfig returns the latest loaded configuration. Only the fields
// listed by config.ReloadableFields change after startup.
func (a *App) CurrentConfig() *config.Config {
	if a.Holder != nil {
		return a.Holder.Get()
	}
	return a.Config
}

// NewLogger builds a logger for cfg writing to w.
func NewLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// MetricsHandler serves the metrics path plus /healthz and /readyz.
func (a *App) MetricsHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.Session.Closed() {
			writeStatus(w, http.StatusServiceUnavailable, "closed")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	if a.Registry != nil {
		path := a.Config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// StartMetrics serves MetricsServer in the background. Serve errors are
// logged.
func (a *App) StartMetrics() {
	if a.MetricsServer == nil {
		return
	}
	go func() {
		a.Logger.Info().Str("addr", a.MetricsServer.Addr).Msg("serving metrics")
		if err := a.MetricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

// Run serves metrics and blocks until ctx is done or the process is
// interrupted, then shuts down.
func (a *App) Run(ctx context.Context) error {
	a.StartMetrics()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-ctx.Done():
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}
	return a.Shutdown()
}

// Shutdown closes the session and stops background work. It is safe to call
// more than once.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	if a.Holder != nil {
		a.Holder.Stop()
	}

	var err error
	if a.Session != nil {
		err = a.Session.Close()
		if err != nil {
			a.Logger.Error().Err(err).Msg("session close error")
		}
	}

	a.Logger.Debug().Msg("shutdown complete")
	return err
}
