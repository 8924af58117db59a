package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/credence/internal/model"
)

func TestNew_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(model.LogConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = closer.Close() }()

	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %s, want warn", logger.GetLevel())
	}

	logger.Info("dropped")
	logger.WithField("post_id", 7).Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["message"] != "kept" || entry["post_id"] != float64(7) {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, _, err := New(model.LogConfig{Level: "loud"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s, want info", logger.GetLevel())
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	if _, _, err := New(model.LogConfig{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "credence.log")
	var console bytes.Buffer

	logger, closer, err := New(model.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, &console)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("analysis run complete")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "analysis run complete") {
		t.Errorf("file missing entry: %q", data)
	}
	if !strings.Contains(console.String(), "analysis run complete") {
		t.Errorf("console missing entry: %q", console.String())
	}
}
