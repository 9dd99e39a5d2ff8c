// Package logx is a small leveled logger with structured fields and
// console/JSON output, configured from the environment.
package logx

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents logging level.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name; unknown names fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Fields is a set of structured log fields.
type Fields map[string]any

// Logger writes leveled, formatted log records.
type Logger struct {
	mu        sync.Mutex
	level     Level
	formatter Formatter
	writer    io.Writer
	exitFunc  func(int)
}

// NewLogger creates a logger. Format "json" selects the JSON formatter,
// anything else the console formatter.
func NewLogger(level Level, format string, w io.Writer) *Logger {
	var f Formatter
	if strings.EqualFold(format, "json") {
		f = jsonFormatter{}
	} else {
		f = consoleFormatter{}
	}
	if w == nil {
		w = os.Stdout
	}
	return &Logger{
		level:     level,
		formatter: f,
		writer:    w,
		exitFunc:  os.Exit,
	}
}

// SetLevel sets the minimum level that will be written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	rec := record{
		Level:     level,
		Message:   msg,
		Fields:    fields,
		Timestamp: time.Now(),
	}
	formatted, err := l.formatter.Format(rec)
	if err != nil {
		return
	}
	l.writer.Write(formatted)
}

// WithField creates an entry with one field.
func (l *Logger) WithField(key string, value any) *Entry {
	return newEntry(l).WithField(key, value)
}

// WithFields creates an entry with fields.
func (l *Logger) WithFields(fields Fields) *Entry {
	return newEntry(l).WithFields(fields)
}

// WithError creates an entry with an error field.
func (l *Logger) WithError(err error) *Entry {
	return newEntry(l).WithError(err)
}

var defaultLogger = NewLogger(
	ParseLevel(os.Getenv("LOG_LEVEL")),
	os.Getenv("LOG_FORMAT"),
	os.Stdout,
)

// SetDefaultLogger replaces the package-level logger.
func SetDefaultLogger(l *Logger) { defaultLogger = l }

// SetLevel sets the level on the package-level logger.
func SetLevel(level Level) { defaultLogger.SetLevel(level) }

func Debug(msg string)  { defaultLogger.log(LevelDebug, msg, nil) }
func Info(msg string)   { defaultLogger.log(LevelInfo, msg, nil) }
func Warn(msg string)   { defaultLogger.log(LevelWarn, msg, nil) }
func Error(msg string)  { defaultLogger.log(LevelError, msg, nil) }

func Debugf(format string, args ...any) { newEntry(defaultLogger).Debugf(format, args...) }
func Infof(format string, args ...any)  { newEntry(defaultLogger).Infof(format, args...) }
func Warnf(format string, args ...any)  { newEntry(defaultLogger).Warnf(format, args...) }
func Errorf(format string, args ...any) { newEntry(defaultLogger).Errorf(format, args...) }

// Fatal logs and exits.
func Fatal(msg string) {
	defaultLogger.log(LevelFatal, msg, nil)
	defaultLogger.exitFunc(1)
}

// Fatalf logs formatted and exits.
func Fatalf(format string, args ...any) {
	newEntry(defaultLogger).logf(LevelFatal, format, args...)
	defaultLogger.exitFunc(1)
}

// WithField creates an entry on the package-level logger.
func WithField(key string, value any) *Entry { return defaultLogger.WithField(key, value) }

// WithFields creates an entry on the package-level logger.
func WithFields(fields Fields) *Entry { return defaultLogger.WithFields(fields) }

// WithError creates an entry on the package-level logger.
func WithError(err error) *Entry { return defaultLogger.WithError(err) }
