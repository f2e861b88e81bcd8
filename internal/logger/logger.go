package logger

import (
	"io"
	"log/slog"
	"os"
)

const serviceName = "cashout"

// New creates a preconfigured slog.Logger.
func New() *slog.Logger {
	return newWithWriter(os.Stdout)
}

func newWithWriter(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler).With(slog.String("service", serviceName))
}
