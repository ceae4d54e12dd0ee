package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := WithMarkID(WithComponent(New(&buf, "info"), "editor"), "m-1")

	logger.Debug("hidden")
	logger.Info("mark created", "label", "kick")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "mark created" || rec["component"] != "editor" || rec["mark_id"] != "m-1" || rec["label"] != "kick" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("short"); got != "****" {
		t.Errorf("SanitizeToken(short) = %q", got)
	}
	if got := SanitizeToken("abcdefghijkl"); got != "abcd...ijkl" {
		t.Errorf("SanitizeToken = %q, want abcd...ijkl", got)
	}
}

func TestSanitizePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory")
	}

	if got := SanitizePath(filepath.Join(home, "videos", "a.mp4")); got != filepath.Join("~", "videos", "a.mp4") {
		t.Errorf("SanitizePath under home = %q", got)
	}
	if got := SanitizePath(home + "other"); got != home+"other" {
		t.Errorf("SanitizePath sibling of home = %q, want unchanged", got)
	}
}
