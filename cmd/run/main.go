package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-playhost/config"
	"github.com/wippyai/wasm-playhost/runtime"
	"github.com/wippyai/wasm-playhost/tracing"
)

func main() {
	var (
		wasmFile   = flag.String("wasm", "", "Path to the game module")
		configFile = flag.String("config", "playhost.yaml", "Path to the YAML config (missing file uses defaults)")
		assets     = flag.String("assets", "", "Asset root (overrides assets.root)")
		saves      = flag.String("saves", "", "Save location (overrides storage.path)")
		entry      = flag.String("entry", "", "Entry export (overrides engine.entry)")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
		headless   = flag.Bool("headless", false, "Run without the terminal player")
		duration   = flag.Duration("duration", 0, "Stop the session after this long (0 runs until quit)")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <game.wasm> [-config playhost.yaml] [-assets dir] [-saves dir]")
		fmt.Fprintln(os.Stderr, "       run -wasm <game.wasm> -headless [-duration 10s]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *assets != "" {
		cfg.Assets.Root = *assets
	}
	if *saves != "" {
		cfg.Storage.Path = *saves
	}
	if *entry != "" {
		cfg.Engine.Entry = *entry
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	interactive := !*headless && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(cfg, *wasmFile, interactive, *duration); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, wasmFile string, interactive bool, duration time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	// The player owns the terminal, so its logs never go to stdout.
	if interactive && cfg.Logger.Output == "stdout" {
		cfg.Logger.Output = "stderr"
	}
	logger, err := newLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	setLoggers(logger)

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	bin, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	p, err := runtime.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create platform: %w", err)
	}
	defer func() {
		if err := p.Close(context.Background()); err != nil {
			logger.Warn("close platform", zap.Error(err))
		}
	}()

	name := strings.TrimSuffix(filepath.Base(wasmFile), filepath.Ext(wasmFile))
	if err := p.Load(ctx, bin, name); err != nil {
		return fmt.Errorf("load module: %w", err)
	}

	if interactive {
		err = runPlayer(ctx, p, name)
	} else {
		err = p.Run(ctx)
	}
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Interrupted or out of time; not a module failure.
		logger.Info("session stopped", zap.Error(ctx.Err()))
		err = nil
	}

	s := p.Stats()
	logger.Info("session ended",
		zap.Uint64("frames", s.Clock.Frames),
		zap.Uint64("updates", s.Clock.Updates),
		zap.Duration("sim_time", s.Clock.SimTime),
		zap.Uint64("operations", s.Begun))
	return err
}
