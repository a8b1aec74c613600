// Package logging provides structured logging configuration for cronalarm.
//
// Logging Strategy:
// - JSON format for systemd journald compatibility and easy parsing
// - Source locations included for debugging (file:line)
// - Log levels configurable via config file (debug, info, warn, error)
// - The CLI writes to a size-rotated file under the data directory, the
//   daemon writes to stdout as well so journald picks it up
//
// Usage:
//
//	w, closer := logging.OpenLogFile(path, 5)
//	defer closer.Close()
//	logger := logging.SetupLogger("info", w)
//	logger.Info("adding entry", "line", line, "component", "alarm")
package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogger creates and configures a structured JSON logger writing to w.
// The level parameter accepts: "debug", "info", "warn", "error" (case-insensitive).
// Invalid levels default to "info".
//
// The logger is also set as the default via slog.SetDefault, allowing
// use of the global slog.Info(), slog.Error(), etc. functions.
func SetupLogger(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		AddSource:   true,
		ReplaceAttr: shortenSource,
	}

	logger := slog.New(slog.NewJSONHandler(w, opts))
	slog.SetDefault(logger)

	return logger
}

// shortenSource trims source paths down to internal/... or the file name.
func shortenSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	source, ok := a.Value.Any().(*slog.Source)
	if !ok {
		return a
	}
	if idx := strings.Index(source.File, "internal/"); idx != -1 {
		source.File = source.File[idx:]
	} else {
		source.File = filepath.Base(source.File)
	}
	if idx := strings.Index(source.Function, "internal/"); idx != -1 {
		source.Function = source.Function[idx:]
	}
	return a
}

// parseLevel converts a string log level to slog.Level.
// Accepts: "debug", "info", "warn", "error" (case-insensitive).
// Returns slog.LevelInfo for unrecognized values.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OpenLogFile returns a writer appending to path that rotates once the file
// grows past maxSizeMB megabytes. The directory is created on first write.
// Close the returned logger to release the file.
func OpenLogFile(path string, maxSizeMB int) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		LocalTime:  true,
	}
}

// WithComponent returns a logger with a pre-set component attribute.
// Useful for tagging all logs from a specific subsystem.
//
// Usage:
//
//	alarmLog := logging.WithComponent(logger, "alarm")
//	alarmLog.Info("wake alarm set") // includes "component": "alarm"
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}
