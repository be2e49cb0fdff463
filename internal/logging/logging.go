// Package logging configures the process-wide slog logger for all bqagent
// entry points.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// levels maps accepted LOG_LEVEL spellings to slog levels. "critical" is
// accepted as an alias for error.
var levels = map[string]slog.Level{
	"debug":    slog.LevelDebug,
	"info":     slog.LevelInfo,
	"warn":     slog.LevelWarn,
	"warning":  slog.LevelWarn,
	"error":    slog.LevelError,
	"critical": slog.LevelError,
}

// ParseLevel maps a level string to a slog.Level, defaulting to info for
// anything unrecognised.
func ParseLevel(levelStr string) slog.Level {
	if level, ok := levels[strings.ToLower(levelStr)]; ok {
		return level
	}
	return slog.LevelInfo
}

// Init configures the default slog logger from the LOG_LEVEL env var and an
// optional -log-level / --log-level CLI flag (flag wins). It returns args
// with the flag stripped so downstream flag parsers (e.g. the ADK launcher)
// don't choke on it.
func Init(args []string) []string {
	levelStr := os.Getenv("LOG_LEVEL")
	remaining, flagLevel := stripLevelFlag(args)
	if flagLevel != "" {
		levelStr = flagLevel
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLevel(levelStr)})
	slog.SetDefault(slog.New(handler))

	return remaining
}

// stripLevelFlag removes -log-level / --log-level (in both "=value" and
// separate-argument form) from args, returning the filtered slice and the
// level value seen, if any.
func stripLevelFlag(args []string) (remaining []string, level string) {
	for i := 0; i < len(args); i++ {
		name, isFlag := strings.CutPrefix(args[i], "-")
		name = strings.TrimPrefix(name, "-")
		switch {
		case !isFlag:
			remaining = append(remaining, args[i])
		case strings.HasPrefix(name, "log-level="):
			level = strings.TrimPrefix(name, "log-level=")
		case name == "log-level":
			if i+1 < len(args) {
				level = args[i+1]
				i++
			}
		default:
			remaining = append(remaining, args[i])
		}
	}
	return remaining, level
}
