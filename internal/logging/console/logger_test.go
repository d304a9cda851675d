package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-imagesync/internal/logging"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
}

func TestConsoleLoggerFormatsEntry(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock})

	logger := provider.GetLogger("imagesync.scan")
	logger.Info("scan.started", "documents", 3, "dry_run", true)

	line := strings.TrimSuffix(buf.String(), "\n")
	if !strings.HasPrefix(line, "2025-03-14T09:26:53Z INFO scan.started") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	for _, want := range []string{"documents=3", "dry_run=true", "logger=imagesync.scan"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
}

func TestConsoleLoggerMinLevel(t *testing.T) {
	var buf bytes.Buffer
	minLevel := LevelWarn
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock, MinLevel: &minLevel})

	logger := provider.GetLogger("test")
	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("entries below the minimum level leaked: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn entry missing: %q", out)
	}
}

func TestConsoleLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock})

	logger := logging.WithFields(provider.GetLogger("test"), map[string]any{
		"document": "a.md",
		"url":      "https://example.com/cat.png",
	})
	logger.Info("asset.resolved")

	line := buf.String()
	if !strings.Contains(line, "document=a.md") {
		t.Fatalf("missing persistent field: %q", line)
	}
	if !strings.Contains(line, "url=https://example.com/cat.png") {
		t.Fatalf("missing url field: %q", line)
	}
}

func TestConsoleLoggerContextFields(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock})

	ctx := logging.ContextWithFields(context.Background(), map[string]any{"run_id": "r-42"})
	provider.GetLogger("test").WithContext(ctx).Info("run.started")

	if !strings.Contains(buf.String(), "run_id=r-42") {
		t.Fatalf("missing context field: %q", buf.String())
	}
}

func TestConsoleLoggerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock})

	provider.GetLogger("test").Error("write.failed", "reason", "disk is full")

	if !strings.Contains(buf.String(), `reason="disk is full"`) {
		t.Fatalf("values with spaces should be quoted: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		" info ":  LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"fatal":   LevelFatal,
	}
	for input, want := range cases {
		got, ok := ParseLevel(input)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = (%v, %v), want %v", input, got, ok, want)
		}
	}
	if _, ok := ParseLevel("loud"); ok {
		t.Fatal("unknown level should not parse")
	}
}
