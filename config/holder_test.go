package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/xenon-middleware/xenon-go/config"
)

type reloadRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *reloadRecorder) ObserveReload(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Transport.Mode != config.ModeMemory {
		t.Errorf("Transport.Mode = %s, want memory", got.Transport.Mode)
	}
}

func TestHolder_NewHolderInvalid(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: chatty\n")
	if _, err := config.NewHolder(path, zerolog.Nop()); err == nil {
		t.Error("NewHolder accepted an invalid config")
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())
	rec := &reloadRecorder{}

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()
	h.SetObserver(rec)

	var mu sync.Mutex
	var received *config.Config
	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		received = cfg
		mu.Unlock()
	})

	newContent := `
transport:
  mode: memory
logging:
  level: debug
streams:
  pull_timeout: 3s
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	cfg := h.Get()
	if cfg.Logging.Level != "debug" {
		t.Errorf("reloaded Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Streams.PullTimeout != 3*time.Second {
		t.Errorf("reloaded PullTimeout = %v, want 3s", cfg.Streams.PullTimeout)
	}

	mu.Lock()
	if received != cfg {
		t.Error("OnChange did not receive the new config")
	}
	mu.Unlock()

	if len(rec.errs) != 1 || rec.errs[0] != nil {
		t.Errorf("observed reloads = %v, want one success", rec.errs)
	}
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())
	rec := &reloadRecorder{}

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()
	h.SetObserver(rec)

	if err := os.WriteFile(path, []byte("transport:\n  mode: telepathy\n"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}
	if err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}

	if got := h.Get().Transport.Mode; got != config.ModeMemory {
		t.Errorf("should keep old config, got Transport.Mode = %s", got)
	}
	if len(rec.errs) != 1 || rec.errs[0] == nil {
		t.Errorf("observed reloads = %v, want one failure", rec.errs)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan *config.Config, 8)
	h.OnChange(func(cfg *config.Config) {
		select {
		case changed <- cfg:
		default:
		}
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	newContent := "transport:\n  mode: memory\nlogging:\n  level: error\n"
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.Logging.Level == "error" {
				return
			}
		case <-deadline:
			t.Fatalf("file watcher did not reload; Logging.Level = %s", h.Get().Logging.Level)
		}
	}
}

func TestHolder_StopTwice(t *testing.T) {
	path := writeConfig(t, validConfig())
	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	h.WatchSignals()
	h.Stop()
	h.Stop()
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}
	wg.Wait()
}

func TestReloadableFields(t *testing.T) {
	reloadable := config.ReloadableFields()
	fixed := config.NonReloadableFields()

	for _, want := range []string{"logging.level", "logging.format", "streams.pull_timeout"} {
		if !slices.Contains(reloadable, want) {
			t.Errorf("%s not in ReloadableFields", want)
		}
	}
	for _, want := range []string{"transport.mode", "transport.target", "metrics.addr"} {
		if !slices.Contains(fixed, want) {
			t.Errorf("%s not in NonReloadableFields", want)
		}
	}
	for _, f := range reloadable {
		if slices.Contains(fixed, f) {
			t.Errorf("%s is listed as both reloadable and fixed", f)
		}
	}
}

func TestHolder_MissingFile(t *testing.T) {
	_, err := config.NewHolder(filepath.Join(t.TempDir(), "absent.yaml"), zerolog.Nop())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

// Helpers

func validConfig() string {
	return `
transport:
  mode: memory
logging:
  level: info
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
