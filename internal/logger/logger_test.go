package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn", false)

	log.Info("dropped")
	log.With(String("device", "d1")).Warn("push failed", Int64("version", 7), Error(errors.New("boom")))
	_ = log.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["msg"] != "push failed" || entry["device"] != "d1" || entry["error"] != "boom" {
		t.Errorf("entry = %v", entry)
	}
	if entry["version"] != float64(7) {
		t.Errorf("version = %v, want 7", entry["version"])
	}
}

func TestNewWriterUnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "chatty", true)
	log.Debug("hidden")
	log.Infof("shown %d", 1)
	_ = log.Sync()

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug line should be filtered at info level")
	}
	if !strings.Contains(buf.String(), "shown 1") {
		t.Errorf("output = %q, want the info line", buf.String())
	}
}
