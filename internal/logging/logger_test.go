package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"cadence/internal/config"
	"cadence/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	var buf bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, &buf)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("planning started", logging.String(logging.FieldRunID, "r1"))

	content, err := os.ReadFile(cfg.LogFile())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "planning started") {
		t.Fatalf("expected message in log file, got %q", content)
	}
	if !strings.Contains(buf.String(), "run_id=r1") {
		t.Fatalf("expected message on writer, got %q", buf.String())
	}
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "queue")
	logger.Info("posting enqueued", logging.String(logging.FieldDestinationID, "cocalc"), logging.String("title", "Two words"))
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "INFO queue: posting enqueued") {
		t.Fatalf("unexpected console line: %q", out)
	}
	if !strings.Contains(out, `destination_id=cocalc`) || !strings.Contains(out, `title="Two words"`) {
		t.Fatalf("expected key=value fields, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %q", out)
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", out)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("slot skipped", logging.Error(errors.New("boom")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if entry["level"] != "warn" || entry["msg"] != "slot skipped" || entry["error"] != "boom" {
		t.Fatalf("unexpected json entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "no content available", "content_shortfall", logging.String(logging.FieldImpact, "slot left empty"))

	out := buf.String()
	for _, want := range []string{"event_type=content_shortfall", "error_hint=", `impact="slot left empty"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestWithContextAddsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithRunID(context.Background(), "abc")
	logging.WithContext(ctx, logger).Info("tick")
	if !strings.Contains(buf.String(), "run_id=abc") {
		t.Fatalf("expected run id, got %q", buf.String())
	}
	if _, ok := logging.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected no run id on empty context")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("ignored")
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("nop logger should be disabled")
	}
}
