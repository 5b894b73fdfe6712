package log

import (
	"io"
	"os"
	"sync"
)

// ConsoleOutput writes log entries to the console.
type ConsoleOutput struct {
	mu            sync.Mutex
	writer        io.Writer
	errorToStderr bool
}

// ConsoleOutputOption is a function that configures a ConsoleOutput.
type ConsoleOutputOption func(*ConsoleOutput)

// WithErrorToStderr sends error and fatal logs to stderr.
func WithErrorToStderr() ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.errorToStderr = true
	}
}

// WithCustomWriter configures the ConsoleOutput to use a custom writer.
func WithCustomWriter(writer io.Writer) ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.writer = writer
	}
}

// NewConsoleOutput creates an output writing to stdout.
func NewConsoleOutput(opts ...ConsoleOutputOption) *ConsoleOutput {
	o := &ConsoleOutput{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Write writes the log entry to the console.
func (o *ConsoleOutput) Write(entry *Entry, formattedEntry []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var writer io.Writer = os.Stdout
	if o.writer != nil {
		writer = o.writer
	}
	if o.errorToStderr && (entry.Level == ErrorLevel || entry.Level == FatalLevel) {
		writer = os.Stderr
	}

	_, err := writer.Write(formattedEntry)
	return err
}

// Close implements the Output interface but does nothing for console output.
func (o *ConsoleOutput) Close() error {
	return nil
}
