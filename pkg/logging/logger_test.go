package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
	if cfg.Output == nil {
		t.Error("Expected default output to be set")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("LOG_SERVICE", "pokedex-proxy")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.Level != LevelDebug || !cfg.Pretty || cfg.Service != "pokedex-proxy" {
		t.Errorf("ConfigFromEnv() = %+v", cfg)
	}
	if cfg.Output == nil {
		t.Error("Output should keep its default")
	}
}

func TestConfigFromEnv_InvalidBool(t *testing.T) {
	t.Setenv("LOG_PRETTY", "sometimes")
	if _, err := ConfigFromEnv(); err == nil {
		t.Error("ConfigFromEnv() should fail on an invalid bool")
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		level  LogLevel
		emit   func(zerolog.Logger)
		expect bool
	}{
		{"debug at debug", LevelDebug, func(l zerolog.Logger) { l.Debug().Msg("level check") }, true},
		{"debug at info", LevelInfo, func(l zerolog.Logger) { l.Debug().Msg("level check") }, false},
		{"info at info", LevelInfo, func(l zerolog.Logger) { l.Info().Msg("level check") }, true},
		{"info at warn", LevelWarn, func(l zerolog.Logger) { l.Info().Msg("level check") }, false},
		{"warn at warn", LevelWarn, func(l zerolog.Logger) { l.Warn().Msg("level check") }, true},
		{"error at error", LevelError, func(l zerolog.Logger) { l.Error().Msg("level check") }, true},
		{"error when disabled", LevelDisabled, func(l zerolog.Logger) { l.Error().Msg("level check") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Output: buf})
			tt.emit(logger)

			if got := strings.Contains(buf.String(), "level check"); got != tt.expect {
				t.Errorf("message written = %v, want %v (output %q)", got, tt.expect, buf.String())
			}
		})
	}
	Setup(Config{Level: LevelInfo, Output: &bytes.Buffer{}})
}

func TestSetup_ServiceField(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Service: "pokedex-proxy", Output: buf})

	logger := NewLogger("disk-cache")
	logger.Info().Msg("hello")

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if event["service"] != "pokedex-proxy" {
		t.Errorf("service = %v", event["service"])
	}
	if event["component"] != "disk-cache" {
		t.Errorf("component = %v", event["component"])
	}
	if event["message"] != "hello" {
		t.Errorf("message = %v", event["message"])
	}
}

func TestSetup_Pretty(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Pretty: true, Output: buf})
	logger.Info().Msg("pretty message")

	out := buf.String()
	if !strings.Contains(out, "pretty message") {
		t.Errorf("output = %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("pretty output should not be JSON: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{"WARNING", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if result := ParseLevel(tt.input); result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}
