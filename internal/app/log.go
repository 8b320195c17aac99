package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// tillHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<opID>\t<message>\t<key=value ...>
type tillHandler struct {
	w     io.Writer
	opID  string
	attrs []slog.Attr
}

func (h *tillHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *tillHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, level, h.opID, r.Message)
	if err != nil {
		return err
	}

	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}

	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *tillHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &tillHandler{
		w:     h.w,
		opID:  h.opID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *tillHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that writes to a size-rotated
// till.log in logDir plus stderr. The returned closer owns the log file.
func newLogger(logDir string, opID string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "till.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 5,
	}

	w := io.MultiWriter(rotated, os.Stderr)
	handler := &tillHandler{w: w, opID: opID}
	return slog.New(handler), rotated, nil
}

// slogAdapter wraps *slog.Logger to satisfy the till.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
