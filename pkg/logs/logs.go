// Package logs builds the slog loggers used by the commands.
package logs

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

// Logger is the logger type passed around the commands.
type Logger = *slog.Logger

// New returns a logger writing text records at level to w, fanned out to
// any extra handlers.
func New(w io.Writer, level slog.Leveler, extra ...slog.Handler) Logger {
	handlers := []slog.Handler{
		slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
		}),
	}
	handlers = append(handlers, extra...)
	return slog.New(slogmulti.Fanout(handlers...))
}

// OpenFile returns a JSON handler appending to path. The caller closes the
// returned file.
func OpenFile(path string, level slog.Leveler) (slog.Handler, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	h := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: level,
	})
	return h, f, nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", name, err)
	}
	return level, nil
}

// WithRun tags every record of l with a fresh run id.
func WithRun(l Logger) Logger {
	return l.With("run", uuid.NewString())
}
