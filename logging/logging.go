package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"lautenbacher.net/avrisp/config"
)

// teeWriter is a thread-safe writer that copies output to the console
// target and, when configured, to a log file.
type teeWriter struct {
	mu     sync.Mutex
	target io.Writer
	file   *os.File
}

func (w *teeWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	if w.target != nil {
		if _, err := w.target.Write(p); err != nil {
			firstErr = err
		}
	}
	if w.file != nil {
		if _, err := w.file.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return len(p), firstErr
}

var writer *teeWriter

// Init installs the default slog logger. Output goes to target (stderr when
// nil) and is teed to conf.File when that is set.
func Init(conf config.LoggingConfig, target io.Writer) error {
	if target == nil {
		target = os.Stderr
	}
	w := &teeWriter{target: target}

	if conf.File != "" {
		file, err := os.OpenFile(conf.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		w.file = file
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(conf.Level),
	}

	var handler slog.Handler
	if strings.ToLower(conf.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	if err := Close(); err != nil {
		slog.Warn("Error closing previous log file", "error", err)
	}
	writer = w
	slog.SetDefault(slog.New(handler))
	return nil
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to a slog level,
// defaulting to INFO.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close releases the log file, if any.
func Close() error {
	if writer == nil {
		return nil
	}
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.file == nil {
		return nil
	}
	err := writer.file.Close()
	writer.file = nil
	return err
}
