// Package main implements the silero-vad command line tool.
//
// Usage:
//
//	silero-vad           - download the TorchScript model and convert it to ONNX
//	silero-vad fetch     - download the TorchScript model only
//	silero-vad convert   - convert a downloaded model to ONNX only
//	silero-vad inspect   - summarize the structure of an ONNX artifact
//	silero-vad detect    - detect speech segments in a WAV file
//	silero-vad version   - print the build version
//
// Configuration comes from defaults, an optional YAML file named by
// SILERO_VAD_CONFIG, and SILERO_VAD_* environment variables. A .env file
// in the working directory is loaded when present.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tonyrewin/silero-vad-go/internal/config"
)

// version is set at build time by GoReleaser via -ldflags.
var version = "dev"

// app carries the loaded configuration and logger into the command tree.
type app struct {
	cfg config.Config
	log *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	a := &app{
		cfg: cfg,
		log: newLogger(cfg.LogLevel),
	}

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
