// Package output provides logging, styled messages and progress reporting
// for gitkey commands.
package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Environment variables tuning log file rotation
const (
	EnvLogMaxSize    = "GITKEY_LOG_MAX_SIZE"
	EnvLogMaxBackups = "GITKEY_LOG_MAX_BACKUPS"
	EnvLogMaxAge     = "GITKEY_LOG_MAX_AGE"
)

// consoleHandler writes bare messages, without timestamps or levels
type consoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	debugMode bool
	quiet     *bool
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		return h.debugMode
	}
	return true
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if *h.quiet {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.writer, record.Message)
	return err
}

func (h *consoleHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *consoleHandler) WithGroup(_ string) slog.Handler {
	return h
}

// newRotatingFile opens the rotating log file, honouring the GITKEY_LOG_MAX_*
// overrides
func newRotatingFile(path string) *lumberjack.Logger {
	l := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1, // megabytes
		MaxBackups: 2,
		MaxAge:     30, // days
	}
	if n, ok := envInt(EnvLogMaxSize); ok && n > 0 {
		l.MaxSize = n
	}
	if n, ok := envInt(EnvLogMaxBackups); ok && n >= 0 {
		l.MaxBackups = n
	}
	if n, ok := envInt(EnvLogMaxAge); ok && n > 0 {
		l.MaxAge = n
	}
	return l
}

func envInt(key string) (int, bool) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// fanoutHandler sends each record to every handler that wants it
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
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

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// Splog writes user-facing messages to the console and, optionally, a
// rotating log file with timestamps and debug detail.
type Splog struct {
	logger  *slog.Logger
	mu      sync.Mutex
	writer  io.Writer
	logFile io.WriteCloser
	quiet   bool
}

// NewSplog creates a console-only Splog writing to stderr. Debug messages are
// shown when DEBUG is set.
func NewSplog() *Splog {
	return NewSplogWithWriter(os.Stderr, os.Getenv("DEBUG") != "")
}

// NewSplogWithWriter creates a console-only Splog writing to w
func NewSplogWithWriter(w io.Writer, debug bool) *Splog {
	s, _ := newSplog(w, debug, "")
	return s
}

// NewSplogWithConfig creates a stderr Splog that also writes to logFilePath
// when it is not empty. Debug messages reach the console when debug is true or
// DEBUG is set.
func NewSplogWithConfig(logFilePath string, debug bool) (*Splog, error) {
	return newSplog(os.Stderr, debug || os.Getenv("DEBUG") != "", logFilePath)
}

func newSplog(w io.Writer, debug bool, logFilePath string) (*Splog, error) {
	s := &Splog{writer: w}
	handlers := []slog.Handler{&consoleHandler{
		mu:        &s.mu,
		writer:    w,
		debugMode: debug,
		quiet:     &s.quiet,
	}}

	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file := newRotatingFile(logFilePath)
		s.logFile = file
		handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{
			Level: slog.LevelDebug,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String(a.Key, a.Value.Time().Format("2006-01-02 15:04:05.000"))
				}
				return a
			},
		}))
	}

	s.logger = slog.New(&fanoutHandler{handlers: handlers})
	return s, nil
}

// SetQuiet suppresses console output; the log file still receives everything
func (s *Splog) SetQuiet(quiet bool) {
	s.quiet = quiet
}

// IsQuiet reports whether console output is suppressed
func (s *Splog) IsQuiet() bool {
	return s.quiet
}

func (s *Splog) log(level slog.Level, prefix, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	s.logger.Log(context.Background(), level, prefix+msg)
}

// Info writes an info message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Info(format string, args ...interface{}) {
	s.log(slog.LevelInfo, "", format, args)
}

// Warn writes a warning message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Warn(format string, args ...interface{}) {
	s.log(slog.LevelWarn, WarnPrefix(), format, args)
}

// Error writes an error message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Error(format string, args ...interface{}) {
	s.log(slog.LevelError, ErrorPrefix(), format, args)
}

// Debug writes a debug message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Debug(format string, args ...interface{}) {
	s.log(slog.LevelDebug, "", format, args)
}

// Tip writes a tip message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Tip(format string, args ...interface{}) {
	s.log(slog.LevelInfo, TipPrefix(), format, args)
}

// Page writes raw content to the console, bypassing the log file
func (s *Splog) Page(content string) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprint(s.writer, content)
}

// Close closes the log file if one was opened
func (s *Splog) Close() error {
	if s.logFile != nil {
		return s.logFile.Close()
	}
	return nil
}
