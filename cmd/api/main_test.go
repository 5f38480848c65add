package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zhouzirui/code-mentor/backend/internal/config"
)

func TestRunReturnsStartupErrors(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	dir := t.TempDir()
	cfg := &config.Config{
		AI:        config.AIConfig{Provider: "unknown"},
		Log:       config.LogConfig{Level: slog.LevelInfo, File: filepath.Join(dir, "server.log")},
		Telemetry: config.TelemetryConfig{Enabled: true, Dir: filepath.Join(dir, "telemetry")},
	}

	err := run(context.Background(), cfg)
	if !errors.Is(err, config.ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to initialize AI generator") {
		t.Fatalf("unexpected error %v", err)
	}
}
