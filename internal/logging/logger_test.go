package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"gazette/internal/services"
)

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger = NewComponentLogger(logger, "scorer")
	logger.Info("batch scored", Int("processed", 3), String("mode", "full run"))

	line := buf.String()
	if !strings.Contains(line, "INFO scorer: batch scored") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "processed=3") {
		t.Fatalf("missing attr in line: %q", line)
	}
	if !strings.Contains(line, `mode="full run"`) {
		t.Fatalf("expected quoted value in line: %q", line)
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be suppressed: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	ctx := services.WithRunID(context.Background(), "run-123")
	ctx = services.WithStage(ctx, "collect")
	WithContext(ctx, logger).Info("stage started")

	line := buf.String()
	if !strings.Contains(line, "run_id=run-123") {
		t.Fatalf("missing run_id: %q", line)
	}
	if !strings.Contains(line, "stage=collect") {
		t.Fatalf("missing stage: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
