package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

var log *slog.Logger

// New wraps a slog handler in a *slog.Logger. Exposed for tests.
func New(h slog.Handler) *slog.Logger {
	return slog.New(h)
}

// NewJSONHandler builds a JSON slog handler. Exposed for tests.
func NewJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

// Init sets up the package-level JSON logger. Call once at startup.
func Init() {
	log = New(NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func ensure() *slog.Logger {
	if log == nil {
		Init()
	}
	return log
}

func Info(msg string, args ...any) {
	ensure().Info(msg, args...)
}

func Infof(format string, v ...any) {
	ensure().Info(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...any) {
	ensure().Error(msg, args...)
}

func Errorf(format string, v ...any) {
	ensure().Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...any) {
	ensure().Debug(msg, args...)
}

func Debugf(format string, v ...any) {
	ensure().Debug(fmt.Sprintf(format, v...))
}

func Fatalf(format string, v ...any) {
	ensure().Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}

// WithError returns a logger carrying the error as a structured field.
func WithError(err error) *slog.Logger {
	return ensure().With("error", err)
}

// WithFields returns a logger carrying the given fields.
func WithFields(fields map[string]interface{}) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return ensure().With(args...)
}
