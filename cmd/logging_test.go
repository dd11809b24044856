package cmd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLoggingLevels(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	var buf bytes.Buffer
	if err := initLogging(&buf, "error", ""); err != nil {
		t.Fatalf("initLogging: %v", err)
	}
	slog.Warn("hidden")
	slog.Error("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("level filter not applied:\n%s", buf.String())
	}

	buf.Reset()
	if err := initLogging(&buf, "bogus", ""); err != nil {
		t.Fatalf("initLogging: %v", err)
	}
	slog.Info("info")
	slog.Warn("warn")
	if strings.Contains(buf.String(), "msg=info") || !strings.Contains(buf.String(), "msg=warn") {
		t.Fatalf("unknown level should default to warn:\n%s", buf.String())
	}
}

func TestInitLoggingFile(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	path := filepath.Join(t.TempDir(), "logs", "tablechart.log")
	var buf bytes.Buffer
	if err := initLogging(&buf, "warn", path); err != nil {
		t.Fatalf("initLogging: %v", err)
	}
	t.Cleanup(func() {
		if logFile != nil {
			_ = logFile.Close()
			logFile = nil
		}
	})
	slog.Debug("series built", "points", 3)

	if buf.Len() != 0 {
		t.Fatalf("debug record reached the warn-level console: %s", buf.String())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(b), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, b)
	}
	if rec["msg"] != "series built" || rec["points"] != 3.0 {
		t.Fatalf("unexpected log record: %v", rec)
	}
}
