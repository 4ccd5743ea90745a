// Command hedgesim sells one vanilla option, delta hedges it along a
// simulated price path and reports the PnL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alanyoungcy/hedgesim/internal/app"
	"github.com/alanyoungcy/hedgesim/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "TOML or YAML configuration file; defaults apply when empty")
	mode := flag.String("mode", "", "run, compare, quote or serve")
	out := flag.String("out", "", "record output file, - for stdout")
	format := flag.String("format", "", "record format: csv or jsonl")
	seed := flag.Uint64("seed", 0, "random seed")
	flag.Parse()

	// Records may go to stdout, so logs always go to stderr.
	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("path", *configPath), slog.String("error", err.Error()))
		return 1
	}

	// Explicit flags win over the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "out":
			cfg.Output.Path = *out
		case "format":
			cfg.Output.Format = *format
		case "seed":
			cfg.Simulation.Seed = *seed
		}
	})

	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.LogLevel))); err != nil {
		level.Set(slog.LevelInfo)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("hedgesim starting",
		slog.String("mode", cfg.Mode),
		slog.String("config", *configPath),
		slog.Any("settings", config.RedactedConfig(cfg)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, logger)
	err = application.Run(ctx)
	application.Close()

	switch {
	case err == nil:
		logger.Info("hedgesim stopped")
	case errors.Is(err, context.Canceled):
		logger.Info("interrupted, shut down cleanly")
	default:
		logger.Error("hedgesim failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "hedgesim: %v\n", err)
		return 1
	}
	return 0
}
