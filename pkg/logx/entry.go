package logx

import "fmt"

// Entry builds up a log record with fields before emitting it.
type Entry struct {
	logger *Logger
	fields Fields
}

func newEntry(l *Logger) *Entry {
	return &Entry{logger: l, fields: make(Fields)}
}

// WithField adds a field (chainable).
func (e *Entry) WithField(key string, value any) *Entry {
	e.fields[key] = value
	return e
}

// WithFields adds multiple fields (chainable).
func (e *Entry) WithFields(fields Fields) *Entry {
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

// WithError adds an error field (chainable).
func (e *Entry) WithError(err error) *Entry {
	if err != nil {
		e.fields["error"] = err.Error()
	}
	return e
}

func (e *Entry) logf(level Level, format string, args ...any) {
	e.logger.log(level, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Debug(msg string) { e.logger.log(LevelDebug, msg, e.fields) }
func (e *Entry) Info(msg string)  { e.logger.log(LevelInfo, msg, e.fields) }
func (e *Entry) Warn(msg string)  { e.logger.log(LevelWarn, msg, e.fields) }
func (e *Entry) Error(msg string) { e.logger.log(LevelError, msg, e.fields) }

func (e *Entry) Debugf(format string, args ...any) { e.logf(LevelDebug, format, args...) }
func (e *Entry) Infof(format string, args ...any)  { e.logf(LevelInfo, format, args...) }
func (e *Entry) Warnf(format string, args ...any)  { e.logf(LevelWarn, format, args...) }
func (e *Entry) Errorf(format string, args ...any) { e.logf(LevelError, format, args...) }

// Fatal logs and exits.
func (e *Entry) Fatal(msg string) {
	e.logger.log(LevelFatal, msg, e.fields)
	e.logger.exitFunc(1)
}
