// Package config loads the host configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level host configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Display DisplayConfig `yaml:"display"`
	Assets  AssetsConfig  `yaml:"assets"`
	Storage StorageConfig `yaml:"storage"`
	Input   InputConfig   `yaml:"input"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracer  TracerConfig  `yaml:"tracer"`
}

// EngineConfig holds WebAssembly engine settings.
type EngineConfig struct {
	// MemoryLimitPages caps module memory (64 KiB pages). 0 keeps the
	// wazero default.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
	// WASI instantiates wasi_snapshot_preview1 for modules compiled
	// against it.
	WASI bool `yaml:"wasi"`
	// Entry is the export called on the event loop after instantiation.
	// Empty or missing exports are skipped.
	Entry string `yaml:"entry"`
	// Workers bounds how many asynchronous host operations (fetch,
	// storage, decode) run at once.
	Workers int `yaml:"workers"`
}

// DisplayConfig describes the default surface and the frame cadence.
type DisplayConfig struct {
	Width     uint32 `yaml:"width"`
	Height    uint32 `yaml:"height"`
	FrameRate int    `yaml:"frame_rate"`
}

// FrameInterval returns the time between animation frames.
func (d DisplayConfig) FrameInterval() time.Duration {
	if d.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(d.FrameRate)
}

// AssetsConfig controls where fetch reads from.
type AssetsConfig struct {
	Root        string        `yaml:"root"`
	AllowHTTP   bool          `yaml:"allow_http"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// RequestsPerSecond and Burst limit outgoing HTTP fetches.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	// BreakerFailures consecutive HTTP failures open the circuit for
	// BreakerTimeout.
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
}

// StorageConfig selects the file persistence backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "dir" or "sqlite"
	Path    string `yaml:"path"`
}

// InputConfig holds keyboard translation settings.
type InputConfig struct {
	TextBufferSize uint32 `yaml:"text_buffer_size"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Defaults returns a Config with every field set to a usable value.
func Defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			MemoryLimitPages: 0,
			WASI:             true,
			Entry:            "main",
			Workers:          8,
		},
		Display: DisplayConfig{
			Width:     800,
			Height:    600,
			FrameRate: 60,
		},
		Assets: AssetsConfig{
			Root:              ".",
			AllowHTTP:         false,
			HTTPTimeout:       30 * time.Second,
			RequestsPerSecond: 20,
			Burst:             8,
			BreakerFailures:   5,
			BreakerTimeout:    30 * time.Second,
		},
		Storage: StorageConfig{
			Backend: "dir",
			Path:    "save",
		},
		Input: InputConfig{
			TextBufferSize: 32,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file and applies env var overrides. A missing
// file is not an error: defaults plus overrides are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps PLAYHOST_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PLAYHOST_ENGINE_ENTRY"); v != "" {
		cfg.Engine.Entry = v
	}
	if v := os.Getenv("PLAYHOST_ENGINE_WASI"); v != "" {
		cfg.Engine.WASI = v == "true"
	}
	if v := os.Getenv("PLAYHOST_ENGINE_MEMORY_LIMIT_PAGES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Engine.MemoryLimitPages = uint32(n)
		}
	}
	if v := os.Getenv("PLAYHOST_ENGINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = n
		}
	}
	if v := os.Getenv("PLAYHOST_DISPLAY_FRAME_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Display.FrameRate = n
		}
	}
	if v := os.Getenv("PLAYHOST_ASSETS_ROOT"); v != "" {
		cfg.Assets.Root = v
	}
	if v := os.Getenv("PLAYHOST_ASSETS_ALLOW_HTTP"); v == "true" {
		cfg.Assets.AllowHTTP = true
	}
	if v := os.Getenv("PLAYHOST_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("PLAYHOST_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PLAYHOST_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("PLAYHOST_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("PLAYHOST_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("PLAYHOST_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}
