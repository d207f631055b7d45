package config

import (
	"fmt"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a
// *ValidationError listing every problem found.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateEngine(cfg, ve)
	validateDisplay(cfg, ve)
	validateAssets(cfg, ve)
	validateStorage(cfg, ve)
	validateInput(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateEngine(cfg *Config, ve *ValidationError) {
	if cfg.Engine.Workers <= 0 {
		ve.Add("engine.workers must be > 0, got %d", cfg.Engine.Workers)
	}
}

func validateDisplay(cfg *Config, ve *ValidationError) {
	if cfg.Display.Width == 0 || cfg.Display.Height == 0 {
		ve.Add("display.width and display.height must be > 0")
	}
	if cfg.Display.FrameRate <= 0 || cfg.Display.FrameRate > 1000 {
		ve.Add("display.frame_rate must be in 1..1000, got %d", cfg.Display.FrameRate)
	}
}

func validateAssets(cfg *Config, ve *ValidationError) {
	if cfg.Assets.Root == "" {
		ve.Add("assets.root is required")
	}
	if cfg.Assets.AllowHTTP && cfg.Assets.HTTPTimeout <= 0 {
		ve.Add("assets.http_timeout must be > 0 when assets.allow_http is set")
	}
	if cfg.Assets.RequestsPerSecond < 0 || cfg.Assets.Burst < 0 {
		ve.Add("assets.requests_per_second and assets.burst must be >= 0")
	}
}

func validateStorage(cfg *Config, ve *ValidationError) {
	switch cfg.Storage.Backend {
	case "dir", "sqlite":
	default:
		ve.Add("storage.backend must be dir or sqlite, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path == "" {
		ve.Add("storage.path is required")
	}
}

func validateInput(cfg *Config, ve *ValidationError) {
	if cfg.Input.TextBufferSize < 2 {
		ve.Add("input.text_buffer_size must be >= 2")
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch cfg.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		ve.Add("logger.level must be debug, info, warn or error, got %q", cfg.Logger.Level)
	}
	switch cfg.Logger.Format {
	case "json", "console":
	default:
		ve.Add("logger.format must be json or console, got %q", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		ve.Add("tracer.exporter must be noop or stdout, got %q", cfg.Tracer.Exporter)
	}
}
