package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rio-cli/internal/logging"
)

func TestNew_FileAppendsAndFiltersLevel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "rio.log")
	logger, closer, err := logging.New(logging.Options{Level: "warn", Path: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud", "job_id", "j1")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "quiet") {
		t.Fatalf("expected info line filtered at warn level; got %q", content)
	}
	if !strings.Contains(string(content), "job_id=j1") || !strings.Contains(string(content), "level=warn") {
		t.Fatalf("expected warn line with attrs; got %q", content)
	}
}

func TestNew_JSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello", "n", 1)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a json line; got %q (%v)", buf.String(), err)
	}
	if rec["msg"] != "hello" || rec["level"] != "info" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if _, ok := rec["source"]; ok {
		t.Fatalf("expected no source at info level")
	}
}

func TestNew_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): expected %v; got %v", in, want, got)
		}
	}
}
