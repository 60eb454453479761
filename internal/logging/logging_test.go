package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestInit(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	t.Run("nil config uses defaults", func(t *testing.T) {
		if err := Init(nil); err != nil {
			t.Fatalf("Init(nil) failed: %v", err)
		}
	})

	t.Run("json to stderr", func(t *testing.T) {
		if err := Init(&Config{Level: "debug", Format: "json", Output: "stderr"}); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "bot.log")
		err := Init(&Config{
			Level:    "info",
			Output:   path,
			Rotation: &RotationConfig{MaxSize: "1MB", MaxAge: "1d", MaxBackups: 2},
		})
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
	})

	t.Run("bad rotation size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bot.log")
		err := Init(&Config{Output: path, Rotation: &RotationConfig{MaxSize: "lots"}})
		if err == nil {
			t.Fatal("expected error for invalid max_size")
		}
	})
}

func TestWithContext(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := ContextWithConversation(context.Background(), "telegram:42")
	ctx = ContextWithDialog(ctx, "dlg-1")
	ctx = ContextWithComponent(ctx, "dialog")
	WithContext(ctx).Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	for key, want := range map[string]string{
		"conversation_id": "telegram:42",
		"dialog_id":       "dlg-1",
		"component":       "dialog",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %s", key, entry[key], want)
		}
	}
}

func TestWithComponent(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	WithComponent("telegram").Warn("poll failed")
	WithConversation("ws:abc").Info("prompt sent")

	out := buf.String()
	if !strings.Contains(out, "component=telegram") {
		t.Errorf("missing component attribute: %s", out)
	}
	if !strings.Contains(out, "conversation_id=ws:abc") {
		t.Errorf("missing conversation attribute: %s", out)
	}
}
