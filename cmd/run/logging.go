package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm-playhost/audio"
	"github.com/wippyai/wasm-playhost/bridge"
	"github.com/wippyai/wasm-playhost/config"
	"github.com/wippyai/wasm-playhost/engine"
	"github.com/wippyai/wasm-playhost/fetch"
	"github.com/wippyai/wasm-playhost/gpu"
	"github.com/wippyai/wasm-playhost/runtime"
	"github.com/wippyai/wasm-playhost/storage"
)

// newLogger builds a zap logger from the logger section. Output is
// "stdout", "stderr" or a file path.
func newLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.Development = false
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.DisableStacktrace = level > zapcore.DebugLevel
	if cfg.Output != "" {
		zc.OutputPaths = []string{cfg.Output}
		zc.ErrorOutputPaths = []string{cfg.Output}
	}
	return zc.Build()
}

func setLoggers(l *zap.Logger) {
	runtime.SetLogger(l.Named("runtime"))
	engine.SetLogger(l.Named("engine"))
	bridge.SetLogger(l.Named("bridge"))
	gpu.SetLogger(l.Named("gpu"))
	audio.SetLogger(l.Named("audio"))
	fetch.SetLogger(l.Named("fetch"))
	storage.SetLogger(l.Named("storage"))
}
