package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clicktrack/internal/config"
	"clicktrack/internal/logging"
	"clicktrack/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (*logging.Options, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "out.log")
	return &logging.Options{
		Format:  format,
		Level:   level,
		Outputs: []string{logPath},
	}, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, "clicktrack.log"))
	if !strings.Contains(content, "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	opts, logPath := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller", logging.Int("measures", 12))

	content := readLog(t, logPath)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(content, "INFO") || !strings.Contains(content, "message without caller") {
		t.Fatalf("unexpected header: %q", content)
	}
	if !strings.Contains(content, "    - Measures: 12") {
		t.Fatalf("expected labelled field line, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	opts, logPath := newFileLogger(t, "console", "debug")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("debug detail", logging.String("path", "a b.wav"))

	content := readLog(t, logPath)
	if !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
	if !strings.Contains(content, `    path: "a b.wav"`) {
		t.Fatalf("expected raw quoted field, got %q", content)
	}
}

func TestConsoleLoggerSubjectFromContext(t *testing.T) {
	opts, logPath := newFileLogger(t, "console", "info")
	base, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRenderID(context.Background(), "0123456789abcdef")
	ctx = services.WithStage(ctx, "overlay")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "render"))
	logger.Info("mixed click track")

	content := readLog(t, logPath)
	if !strings.Contains(content, "[render] 01234567 (overlay) – mixed click track") {
		t.Fatalf("unexpected subject rendering: %q", content)
	}
	if strings.Contains(content, "Render id") || strings.Contains(content, "Stage:") {
		t.Fatalf("subject fields should not repeat as field lines: %q", content)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	opts, logPath := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithSong(context.Background(), "Blue in Green")
	logging.ErrorWithContext(logging.WithContext(ctx, logger), "render failed", "render_error",
		services.Wrap(services.ErrValidation, "render", "load song", "bad descriptor", errors.New("boom")))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["level"] != "error" || entry["msg"] != "render failed" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry[logging.FieldSong] != "Blue in Green" {
		t.Fatalf("expected song field, got %v", entry[logging.FieldSong])
	}
	if entry[logging.FieldErrorKind] != "validation" {
		t.Fatalf("expected validation kind, got %v", entry[logging.FieldErrorKind])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	opts, logPath := newFileLogger(t, "console", "warn")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	content := readLog(t, logPath)
	if strings.Contains(content, "hidden") || !strings.Contains(content, "shown") {
		t.Fatalf("unexpected filtering: %q", content)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.NewComponentLogger(nil, "x").Info("dropped")
}

func TestProgressSampler(t *testing.T) {
	sampler := logging.NewProgressSampler(25)
	steps := []struct {
		percent float64
		stage   string
		want    bool
	}{
		{0, "encode", true},
		{10, "encode", false},
		{26, "encode", true},
		{30, "encode", false},
		{100, "encode", true},
		{100, "mux", true},
	}
	for i, step := range steps {
		if got := sampler.ShouldLog(step.percent, step.stage); got != step.want {
			t.Fatalf("step %d: ShouldLog(%v, %q) = %v, want %v", i, step.percent, step.stage, got, step.want)
		}
	}
}
