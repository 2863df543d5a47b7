package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel represents logging verbosity levels.
type LogLevel int

// Log level constants.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelDebug
)

// ParseLogLevel parses a log level string. Unknown values map to error.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "error":
		return LogLevelError
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelError:
		return "error"
	case LogLevelDebug:
		return "debug"
	default:
		return "error"
	}
}

// slogLevel maps a LogLevel onto the threshold of a slog handler.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelError:
		return slog.LevelError
	case LogLevelOff:
		return slog.LevelError + 4
	default:
		return slog.LevelError
	}
}

// Logger writes check transitions and failures to a file.
// It satisfies the graph package's Logger interface.
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	file     *os.File
	filePath string

	json       bool
	slogLevel  slog.LevelVar
	structured *slog.Logger
}

// NewLogger creates a new logger. No file is opened when level is off or
// filePath is empty.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	logger := &Logger{
		level:    level,
		filePath: filePath,
	}
	logger.slogLevel.Set(level.slogLevel())

	if level == LogLevelOff || filePath == "" {
		return logger, nil
	}

	filePath, err := ExpandHome(filePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	logger.file = f
	logger.filePath = filePath

	return logger, nil
}

// NewStructuredLogger creates a logger whose structured output is JSON.
func NewStructuredLogger(level LogLevel, filePath string) (*Logger, error) {
	logger, err := NewLogger(level, filePath)
	if err != nil {
		return nil, err
	}
	logger.SetJSONOutput(true)
	return logger, nil
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.slogLevel.Set(level.slogLevel())
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Path returns the resolved log file path.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filePath
}

// SetJSONOutput switches structured records between JSON and key=value text.
func (l *Logger) SetJSONOutput(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.json = enabled
	l.structured = nil
}

// Structured returns a slog.Logger writing to the log file, or nil when the
// logger has no file.
func (l *Logger) Structured() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if l.structured == nil {
		w := &lockedWriter{logger: l}
		opts := &slog.HandlerOptions{Level: &l.slogLevel}
		if l.json {
			l.structured = slog.New(slog.NewJSONHandler(w, opts))
		} else {
			l.structured = slog.New(slog.NewTextHandler(w, opts))
		}
	}
	return l.structured
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LogLevelDebug, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LogLevelError, format, args...)
}

// DebugAttrs logs a structured debug record.
func (l *Logger) DebugAttrs(msg string, attrs ...slog.Attr) {
	l.logAttrs(slog.LevelDebug, msg, attrs)
}

// ErrorAttrs logs a structured error record.
func (l *Logger) ErrorAttrs(msg string, attrs ...slog.Attr) {
	l.logAttrs(slog.LevelError, msg, attrs)
}

func (l *Logger) logAttrs(level slog.Level, msg string, attrs []slog.Attr) {
	s := l.Structured()
	if s == nil {
		return
	}
	s.LogAttrs(context.Background(), level, msg, attrs...)
}

// Writer returns an io.Writer that writes to the logger at the specified level.
func (l *Logger) Writer(level LogLevel) io.Writer {
	return &logWriter{logger: l, level: level}
}

// log writes a log message if the level is appropriate.
func (l *Logger) log(level LogLevel, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.level == LogLevelOff || level > l.level || l.file == nil {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	levelStr := strings.ToUpper(level.String())
	msg := fmt.Sprintf(format, args...)

	_, _ = fmt.Fprintf(l.file, "%s [%s] %s\n", timestamp, levelStr, msg)
}

// logWriter implements io.Writer for the logger.
type logWriter struct {
	logger *Logger
	level  LogLevel
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.logger.log(w.level, "%s", strings.TrimSpace(string(p)))
	return len(p), nil
}

// lockedWriter serializes slog output with plain log lines.
type lockedWriter struct {
	logger *Logger
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.logger.mu.Lock()
	defer w.logger.mu.Unlock()

	if w.logger.file == nil {
		return len(p), nil
	}
	return w.logger.file.Write(p)
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	l := &Logger{level: LogLevelOff}
	l.slogLevel.Set(LogLevelOff.slogLevel())
	return l
}
