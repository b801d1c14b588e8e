package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/casapulse/pulse-core/internal/infrastructure/config"
)

// ─── Construction ───

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"json to stdout", config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{"text to stderr", config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{"all fields empty", config.LoggingConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if New(tt.cfg, "1.0.0") == nil {
				t.Fatal("expected non-nil logger")
			}
		})
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("expected non-nil default logger")
	}
}

// ─── Level parsing ───

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
		{"DEBUG", slog.LevelDebug},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

// ─── Attribute propagation ───

func TestWith_ReturnsDistinctChild(t *testing.T) {
	parent := Default()
	child := parent.With("component", "gateway")

	if child == nil {
		t.Fatal("expected non-nil child logger")
	}
	if child == parent {
		t.Error("expected child logger to be a distinct instance")
	}
}

func TestOutputCarriesDefaultFields(t *testing.T) {
	var buf bytes.Buffer

	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{
			slog.String("service", serviceName),
			slog.String("version", "test"),
		})

	log := &Logger{Logger: slog.New(handler)}
	log.Info("reading accepted", "device_id", "d-1")

	out := buf.String()
	if !strings.Contains(out, serviceName) {
		t.Error("expected output to carry the service field")
	}
	if !strings.Contains(out, `"version":"test"`) {
		t.Error("expected output to carry the version field")
	}

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}
	if record["msg"] != "reading accepted" {
		t.Errorf("expected msg='reading accepted', got %v", record["msg"])
	}
	if record["device_id"] != "d-1" {
		t.Errorf("expected device_id='d-1', got %v", record["device_id"])
	}
}
