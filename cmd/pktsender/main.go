package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcalzada-xor/pktsender/internal/app"
	"github.com/lcalzada-xor/pktsender/internal/config"
	"github.com/lcalzada-xor/pktsender/internal/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("Invalid command line", "error", err)
		os.Exit(2)
	}

	// Setup Structured Logging
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(2)
	}

	if cfg.TraceOutput != "" {
		shutdownTracer, err := initTracing(cfg.TraceOutput)
		if err != nil {
			slog.Error("Failed to init tracer", "error", err)
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					slog.Error("Failed to shutdown tracer", "error", err)
				}
			}()
		}
	}

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	// Root Context with cancellation on Interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("pktsender starting", "version", version)

	if err := application.Run(ctx); err != nil {
		slog.Error("Application error", "error", err)
	}
}

// initTracing exports spans to stdout or appends them to a file.
func initTracing(output string) (func(context.Context) error, error) {
	var w io.Writer = os.Stdout
	var f *os.File
	if output != "stdout" {
		var err error
		f, err = os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
	}
	shutdown, err := telemetry.InitTracer(version, w)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, err
	}
	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if f != nil {
			f.Close()
		}
		return err
	}, nil
}
