package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// logFile stays open for the life of the process once --log-file is used.
var logFile *os.File

// initLogging installs the default slog logger: text on w at the given level,
// plus JSON lines in file when one is named.
func initLogging(w io.Writer, logLevel, file string) error {
	level, ok := logLevelMap[strings.ToLower(strings.TrimSpace(logLevel))]
	if !ok {
		level = slog.LevelWarn
	}
	var handler slog.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			slog.SetDefault(slog.New(handler))
			return fmt.Errorf("create log directory: %w", err)
		}
		if logFile != nil {
			_ = logFile.Close()
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.SetDefault(slog.New(handler))
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true})
		handler = &multiHandler{handlers: []slog.Handler{handler, fileHandler}}
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// multiHandler fans records out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		out[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: out}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		out[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: out}
}
