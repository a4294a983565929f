package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/lsiproject/propertyhub/internal/config"
)

// New builds a slog.Logger for the given config, writing to w.
func New(conf config.Log, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(conf.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(conf.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
