// Package logger provides the application wide structured logger.
// Messages follow the "Component:Method:Event" convention with optional
// key/value pairs, e.g. logger.Error("VenueRepository:Create:Error", "error", err).
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var std = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

// SetLevel reconfigures the minimum level ("debug", "info", "warn", "error").
func SetLevel(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	std = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

func Info(msg string, args ...any)  { std.Info(msg, normalize(args)...) }
func Warn(msg string, args ...any)  { std.Warn(msg, normalize(args)...) }
func Error(msg string, args ...any) { std.Error(msg, normalize(args)...) }
func Debug(msg string, args ...any) { std.Debug(msg, normalize(args)...) }

// normalize tolerates a bare error (or any odd trailing value) in place of a
// key/value pair so call sites can pass errors directly.
func normalize(args []any) []any {
	out := make([]any, 0, len(args)+1)
	for i := 0; i < len(args); {
		if key, ok := args[i].(string); ok && i+1 < len(args) {
			out = append(out, key, args[i+1])
			i += 2
			continue
		}
		if err, ok := args[i].(error); ok {
			out = append(out, "error", err)
		} else {
			out = append(out, "detail", args[i])
		}
		i++
	}
	return out
}
