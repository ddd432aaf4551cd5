package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		testMsg  string
		contains string
	}{
		{
			name:     "info_level",
			level:    LevelInfo,
			testMsg:  "cache sweep complete",
			contains: "cache sweep complete",
		},
		{
			name:     "debug_level",
			level:    LevelDebug,
			testMsg:  "memory cache hit",
			contains: "memory cache hit",
		},
		{
			name:     "warn_level",
			level:    LevelWarn,
			testMsg:  "provider fallback used",
			contains: "provider fallback used",
		},
		{
			name:     "error_level",
			level:    LevelError,
			testMsg:  "like store failure",
			contains: "like store failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Pretty: false, Output: buf})

			switch tt.level {
			case LevelDebug:
				logger.Debug().Msg(tt.testMsg)
			case LevelInfo:
				logger.Info().Msg(tt.testMsg)
			case LevelWarn:
				logger.Warn().Msg(tt.testMsg)
			case LevelError:
				logger.Error().Msg(tt.testMsg)
			}

			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("Expected output to contain %q, got %q", tt.contains, buf.String())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input LogLevel
		want  zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LogLevel("warning"), zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{LogLevel("unknown"), zerolog.InfoLevel},
		{LogLevel(""), zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("cache")
	logger.Info().Msg("component logger test")

	out := buf.String()
	if !strings.Contains(out, `"component":"cache"`) {
		t.Errorf("Expected component field in output, got %q", out)
	}
	if !strings.Contains(out, "component logger test") {
		t.Errorf("Expected message in output, got %q", out)
	}
}
