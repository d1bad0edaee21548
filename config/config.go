// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport modes.
const (
	ModeGRPC   = "grpc"
	ModeMemory = "memory"
)

// Config is the root configuration structure.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Streams   StreamsConfig   `yaml:"streams"`
}

// TransportConfig configures the connection to the Xenon service.
// Use "grpc" for a remote service or "memory" for the in-process one.
type TransportConfig struct {
	Mode           string            `yaml:"mode"` // "grpc" or "memory"
	Target         string            `yaml:"target"`
	DialTimeout    time.Duration     `yaml:"dial_timeout"`
	CallTimeout    time.Duration     `yaml:"call_timeout"` // 0: no per-call deadline
	MaxMessageSize int               `yaml:"max_message_size"`
	Headers        map[string]string `yaml:"headers,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // listen address of /metrics and /healthz
	Path    string `yaml:"path"` // default: /metrics
}

// StreamsConfig configures local stream handling.
type StreamsConfig struct {
	QueueSize   int           `yaml:"queue_size"`   // bounded stdin queue of interactive jobs
	ChunkSize   int           `yaml:"chunk_size"`   // bytes per uploaded fragment
	PullTimeout time.Duration `yaml:"pull_timeout"` // wait per output pull; 0 waits forever
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	XENON_TRANSPORT_MODE      - grpc or memory (default: grpc)
//	XENON_TARGET              - gRPC target (default: localhost:50051)
//	XENON_DIAL_TIMEOUT        - Connection timeout (default: 10s)
//	XENON_CALL_TIMEOUT        - Per-call deadline (default: none)
//	XENON_MAX_MESSAGE_SIZE    - Max received message bytes (default: 64MiB)
//	XENON_LOG_LEVEL           - Log level: debug, info, warn, error (default: info)
//	XENON_LOG_FORMAT          - Log format: json or console (default: console)
//	XENON_METRICS_ENABLED     - Serve /metrics (default: false)
//	XENON_METRICS_ADDR        - Metrics listen address (default: 127.0.0.1:9464)
//	XENON_STREAM_QUEUE_SIZE   - Interactive stdin queue size (default: 16)
//	XENON_STREAM_CHUNK_SIZE   - Upload chunk size (default: 64KiB)
//	XENON_STREAM_PULL_TIMEOUT - Output pull timeout (default: none)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies XENON_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Transport configuration
	if v := os.Getenv("XENON_TRANSPORT_MODE"); v != "" {
		cfg.Transport.Mode = v
	}
	if v := os.Getenv("XENON_TARGET"); v != "" {
		cfg.Transport.Target = v
	}
	if v := os.Getenv("XENON_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Transport.DialTimeout = d
		}
	}
	if v := os.Getenv("XENON_CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Transport.CallTimeout = d
		}
	}
	if v := os.Getenv("XENON_MAX_MESSAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Transport.MaxMessageSize = n
		}
	}

	// Logging configuration
	if v := os.Getenv("XENON_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("XENON_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("XENON_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("XENON_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Stream configuration
	if v := os.Getenv("XENON_STREAM_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Streams.QueueSize = n
		}
	}
	if v := os.Getenv("XENON_STREAM_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Streams.ChunkSize = n
		}
	}
	if v := os.Getenv("XENON_STREAM_PULL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Streams.PullTimeout = d
		}
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Transport.Mode == "" {
		cfg.Transport.Mode = ModeGRPC
	}
	if cfg.Transport.Target == "" && cfg.Transport.Mode == ModeGRPC {
		cfg.Transport.Target = "localhost:50051"
	}
	if cfg.Transport.DialTimeout == 0 {
		cfg.Transport.DialTimeout = 10 * time.Second
	}
	if cfg.Transport.MaxMessageSize == 0 {
		cfg.Transport.MaxMessageSize = 64 << 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = "127.0.0.1:9464"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Streams.QueueSize == 0 {
		cfg.Streams.QueueSize = 16
	}
	if cfg.Streams.ChunkSize == 0 {
		cfg.Streams.ChunkSize = 64 << 10
	}
}

func validate(cfg *Config) error {
	validModes := map[string]bool{ModeGRPC: true, ModeMemory: true}
	if !validModes[cfg.Transport.Mode] {
		return fmt.Errorf("transport.mode must be 'grpc' or 'memory', got %q", cfg.Transport.Mode)
	}
	if cfg.Transport.Mode == ModeGRPC && cfg.Transport.Target == "" {
		return fmt.Errorf("transport.target is required when transport.mode is 'grpc'")
	}
	if cfg.Transport.CallTimeout < 0 {
		return fmt.Errorf("transport.call_timeout must not be negative")
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}

	if cfg.Streams.QueueSize < 0 {
		return fmt.Errorf("streams.queue_size must not be negative")
	}
	if cfg.Streams.ChunkSize < 0 {
		return fmt.Errorf("streams.chunk_size must not be negative")
	}
	if cfg.Streams.PullTimeout < 0 {
		return fmt.Errorf("streams.pull_timeout must not be negative")
	}

	return nil
}
