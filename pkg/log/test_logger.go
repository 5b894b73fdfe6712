package log

import (
	"sync"
)

// TestEntry represents a captured log entry for testing.
type TestEntry struct {
	Level   Level
	Message string
	Fields  []Field
}

// TestLogger is a Logger implementation for testing that captures logs
// without producing output.
type TestLogger struct {
	mu      sync.Mutex
	entries []TestEntry
	fields  []Field
	level   Level
	parent  *TestLogger
}

// NewTestLogger creates a new TestLogger for use in unit tests.
func NewTestLogger() *TestLogger {
	return &TestLogger{level: DebugLevel}
}

// GetEntries returns all captured log entries.
func (l *TestLogger) GetEntries() []TestEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]TestEntry, len(l.entries))
	copy(result, l.entries)
	return result
}

// ClearEntries clears all captured log entries.
func (l *TestLogger) ClearEntries() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

func (l *TestLogger) log(level Level, msg string, fields []Field) {
	all := make([]Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	// Child loggers record into the root logger so assertions see all entries.
	root := l
	for root.parent != nil {
		root = root.parent
	}
	root.mu.Lock()
	defer root.mu.Unlock()
	root.entries = append(root.entries, TestEntry{Level: level, Message: msg, Fields: all})
}

// Debug logs a debug message.
func (l *TestLogger) Debug(msg string, fields ...Field) {
	if l.level <= DebugLevel {
		l.log(DebugLevel, msg, fields)
	}
}

// Info logs an info message.
func (l *TestLogger) Info(msg string, fields ...Field) {
	if l.level <= InfoLevel {
		l.log(InfoLevel, msg, fields)
	}
}

// Warn logs a warning message.
func (l *TestLogger) Warn(msg string, fields ...Field) {
	if l.level <= WarnLevel {
		l.log(WarnLevel, msg, fields)
	}
}

// Error logs an error message.
func (l *TestLogger) Error(msg string, fields ...Field) {
	if l.level <= ErrorLevel {
		l.log(ErrorLevel, msg, fields)
	}
}

// Fatal logs a fatal message. Unlike the production logger it does not exit,
// so tests can assert on fatal paths.
func (l *TestLogger) Fatal(msg string, fields ...Field) {
	l.log(FatalLevel, msg, fields)
}

// WithField adds a single field to the logger.
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.With(F(key, value))
}

// With adds fields to the logger.
func (l *TestLogger) With(fields ...Field) Logger {
	child := &TestLogger{level: l.level, parent: l}
	child.fields = append(child.fields, l.fields...)
	child.fields = append(child.fields, fields...)
	return child
}

// WithComponent tags logs with a component name.
func (l *TestLogger) WithComponent(component string) Logger {
	return l.WithField(ComponentKey, component)
}

// SetLevel sets the minimum log level.
func (l *TestLogger) SetLevel(level Level) {
	l.level = level
}

// GetLevel returns the current minimum log level.
func (l *TestLogger) GetLevel() Level {
	return l.level
}
