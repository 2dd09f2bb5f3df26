package log

import (
	"io"
	"os"
)

// ConsoleWriter abstracts the console output streams for testability.
type ConsoleWriter interface {
	Stdout() io.Writer
	Stderr() io.Writer
}

// DefaultConsoleWriter implements ConsoleWriter using the process's stdout/stderr.
type DefaultConsoleWriter struct{}

// NewDefaultConsoleWriter creates a new DefaultConsoleWriter.
func NewDefaultConsoleWriter() ConsoleWriter {
	return &DefaultConsoleWriter{}
}

// Stdout returns the standard output writer.
func (w *DefaultConsoleWriter) Stdout() io.Writer {
	return os.Stdout
}

// Stderr returns the standard error writer.
func (w *DefaultConsoleWriter) Stderr() io.Writer {
	return os.Stderr
}
