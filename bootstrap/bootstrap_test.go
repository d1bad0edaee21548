package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/xenon-middleware/xenon-go/bootstrap"
	"github.com/xenon-middleware/xenon-go/config"
	"github.com/xenon-middleware/xenon-go/core/dispatch"
)

func memoryConfig(metrics bool) *config.Config {
	return &config.Config{
		Transport: config.TransportConfig{Mode: config.ModeMemory},
		Logging:   config.LoggingConfig{Level: "info", Format: "json"},
		Metrics:   config.MetricsConfig{Enabled: metrics, Addr: "127.0.0.1:0", Path: "/metrics"},
		Streams:   config.StreamsConfig{QueueSize: 4, ChunkSize: 8},
	}
}

func newApp(t *testing.T, cfg *config.Config) *bootstrap.App {
	t.Helper()
	a, err := bootstrap.NewWithConfig(cfg, bootstrap.Options{LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("NewWithConfig error: %v", err)
	}
	t.Cleanup(func() { a.Shutdown() })
	return a
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNewWithConfig_Memory(t *testing.T) {
	a := newApp(t, memoryConfig(false))

	if a.Loopback == nil {
		t.Fatal("memory mode did not create a loopback service")
	}
	if a.Metrics != nil || a.MetricsServer != nil {
		t.Error("metrics created while disabled")
	}

	fss, err := a.Session.LocalFileSystems(context.Background())
	if err != nil {
		t.Fatalf("LocalFileSystems error: %v", err)
	}
	if len(fss) != 1 {
		t.Errorf("local file systems = %d, want 1", len(fss))
	}
}

func TestNewWithConfig_GRPC(t *testing.T) {
	cfg := memoryConfig(false)
	cfg.Transport = config.TransportConfig{
		Mode:        config.ModeGRPC,
		Target:      "127.0.0.1:1",
		DialTimeout: time.Second,
	}
	a := newApp(t, cfg)
	if a.Loopback != nil {
		t.Error("grpc mode created a loopback service")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := a.Session.LocalFileSystems(ctx); err == nil {
		t.Error("call to an unreachable target succeeded")
	}
}

func TestNewWithConfig_UnknownMode(t *testing.T) {
	cfg := memoryConfig(false)
	cfg.Transport.Mode = "smoke-signals"
	if _, err := bootstrap.NewWithConfig(cfg, bootstrap.Options{LogOutput: &bytes.Buffer{}}); err == nil {
		t.Error("unknown transport mode accepted")
	}
}

func TestMetricsHandler(t *testing.T) {
	a := newApp(t, memoryConfig(true))
	ctx := context.Background()

	if _, err := a.Session.LocalFileSystems(ctx); err != nil {
		t.Fatalf("LocalFileSystems error: %v", err)
	}
	if _, err := a.Session.CreateFileSystem(ctx, dispatch.Kw("adaptor", "file").With("colour", "blue")); err == nil {
		t.Fatal("CreateFileSystem accepted an unknown field")
	}

	h := a.MetricsHandler()

	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`xenon_calls_total{code="OK",method="localFileSystems",service="xenon.FileSystemService"} 1`,
		"xenon_binding_errors_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	rec = get(t, h, "/healthz")
	var status map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode /healthz: %v", err)
	}
	if rec.Code != http.StatusOK || status["status"] != "ok" {
		t.Errorf("/healthz = %d %v", rec.Code, status)
	}
}

func TestMetricsHandler_Disabled(t *testing.T) {
	a := newApp(t, memoryConfig(false))
	if rec := get(t, a.MetricsHandler(), "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("/metrics status = %d, want 404", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	a := newApp(t, memoryConfig(true))
	h := a.MetricsHandler()

	if rec := get(t, h, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("/readyz before shutdown = %d", rec.Code)
	}
	if err := a.Shutdown(); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}
	if rec := get(t, h, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz after shutdown = %d, want 503", rec.Code)
	}
	if err := a.Shutdown(); err != nil {
		t.Errorf("second Shutdown error: %v", err)
	}
}

func TestNew_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xenon.yaml")
	content := "transport:\n  mode: memory\nlogging:\n  level: warn\n  format: json\nstreams:\n  pull_timeout: 1s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath:  path,
		LogOutput:   &bytes.Buffer{},
		MetricsAddr: "127.0.0.1:0",
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Shutdown()

	if a.Holder == nil {
		t.Fatal("config file did not produce a holder")
	}
	if !a.Config.Metrics.Enabled || a.Config.Metrics.Addr != "127.0.0.1:0" {
		t.Errorf("MetricsAddr override not applied: %+v", a.Config.Metrics)
	}

	updated := strings.Replace(content, "1s", "3s", 1)
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}
	if err := a.Holder.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if got := a.CurrentConfig().Streams.PullTimeout; got != 3*time.Second {
		t.Errorf("PullTimeout after reload = %v, want 3s", got)
	}

	body := get(t, a.MetricsHandler(), "/metrics").Body.String()
	if !strings.Contains(body, "xenon_config_reloads_total 1") {
		t.Error("reload not recorded in metrics")
	}
}

func TestNew_EnvFallback(t *testing.T) {
	t.Setenv("XENON_TRANSPORT_MODE", "memory")

	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"),
		LogOutput:  &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Shutdown()

	if a.Holder != nil {
		t.Error("holder created without a config file")
	}
	if a.CurrentConfig() != a.Config {
		t.Error("CurrentConfig should return the env config")
	}
}

func TestRun_ContextCancel(t *testing.T) {
	a := newApp(t, memoryConfig(true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !a.Session.Closed() {
		t.Error("session still open after Run")
	}
}

func TestNewLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		logged  bool
		console bool
	}{
		{"json info", config.LoggingConfig{Level: "info", Format: "json"}, true, false},
		{"json error drops info", config.LoggingConfig{Level: "error", Format: "json"}, false, false},
		{"console", config.LoggingConfig{Level: "debug", Format: "console"}, true, true},
		{"bad level falls back to info", config.LoggingConfig{Level: "loud", Format: "json"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := bootstrap.NewLogger(tt.cfg, &buf)
			logger.Info().Msg("hello")

			out := buf.String()
			if got := strings.Contains(out, "hello"); got != tt.logged {
				t.Fatalf("logged = %v, want %v (%q)", got, tt.logged, out)
			}
			if tt.logged && strings.HasPrefix(out, "{") == tt.console {
				t.Errorf("output format mismatch: %q", out)
			}
		})
	}
}
