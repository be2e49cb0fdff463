package logging

import (
	"log/slog"
	"reflect"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "critical", want: slog.LevelError},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "", want: slog.LevelInfo},
		{in: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStripLevelFlag(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		wantRemaining []string
		wantLevel     string
	}{
		{
			name:          "no flag",
			args:          []string{"web", "-port", "8080"},
			wantRemaining: []string{"web", "-port", "8080"},
		},
		{
			name:          "double dash equals",
			args:          []string{"--log-level=debug", "web"},
			wantRemaining: []string{"web"},
			wantLevel:     "debug",
		},
		{
			name:          "single dash equals",
			args:          []string{"-log-level=warn"},
			wantLevel:     "warn",
		},
		{
			name:          "separate value",
			args:          []string{"web", "-log-level", "error", "-port", "8080"},
			wantRemaining: []string{"web", "-port", "8080"},
			wantLevel:     "error",
		},
		{
			name:          "flag at end with no value",
			args:          []string{"web", "--log-level"},
			wantRemaining: []string{"web"},
		},
		{
			name:          "bare word is not a flag",
			args:          []string{"log-level", "debug"},
			wantRemaining: []string{"log-level", "debug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, level := stripLevelFlag(tt.args)
			if !reflect.DeepEqual(remaining, tt.wantRemaining) {
				t.Errorf("remaining = %v, want %v", remaining, tt.wantRemaining)
			}
			if level != tt.wantLevel {
				t.Errorf("level = %q, want %q", level, tt.wantLevel)
			}
		})
	}
}
