package log

import (
	"errors"
	"fmt"
	"log"
)

// ConsoleLogger logs messages to the console, sending ERROR to stderr and
// everything else to stdout.
type ConsoleLogger struct {
	stdoutLogger  *log.Logger
	stderrLogger  *log.Logger
	minLevel      Level
	consoleWriter ConsoleWriter
}

// NewConsoleLogger creates a new logger that writes to the console.
func NewConsoleLogger(minLevel Level) (*ConsoleLogger, error) {
	return NewConsoleLoggerWithWriter(minLevel, NewDefaultConsoleWriter())
}

// NewConsoleLoggerWithWriter creates a new logger with an injected console writer.
func NewConsoleLoggerWithWriter(minLevel Level, consoleWriter ConsoleWriter) (*ConsoleLogger, error) {
	if consoleWriter == nil {
		return nil, errors.New("consoleWriter cannot be nil")
	}
	return &ConsoleLogger{
		stdoutLogger:  log.New(consoleWriter.Stdout(), "", log.Ldate|log.Ltime),
		stderrLogger:  log.New(consoleWriter.Stderr(), "", log.Ldate|log.Ltime),
		minLevel:      minLevel,
		consoleWriter: consoleWriter,
	}, nil
}

// SetLevel configures the minimum log level for console output.
func (l *ConsoleLogger) SetLevel(level Level) {
	l.minLevel = level
}

func (l *ConsoleLogger) log(level Level, format string, v ...interface{}) {
	if level < l.minLevel {
		return
	}
	message := fmt.Sprintf(format, v...)
	if level == ERROR {
		l.stderrLogger.Printf("[%s] %s", level.String(), message)
	} else {
		l.stdoutLogger.Printf("[%s] %s", level.String(), message)
	}
}

// Debug logs a debug level message.
func (l *ConsoleLogger) Debug(message string) { l.log(DEBUG, "%s", message) }

// Info logs an info level message.
func (l *ConsoleLogger) Info(message string) { l.log(INFO, "%s", message) }

// Warn logs a warning level message.
func (l *ConsoleLogger) Warn(message string) { l.log(WARN, "%s", message) }

// Error logs an error level message.
func (l *ConsoleLogger) Error(message string) { l.log(ERROR, "%s", message) }

// Debugf logs a formatted debug level message.
func (l *ConsoleLogger) Debugf(format string, v ...interface{}) { l.log(DEBUG, format, v...) }

// Infof logs a formatted info level message.
func (l *ConsoleLogger) Infof(format string, v ...interface{}) { l.log(INFO, format, v...) }

// Warnf logs a formatted warning level message.
func (l *ConsoleLogger) Warnf(format string, v ...interface{}) { l.log(WARN, format, v...) }

// Errorf logs a formatted error level message.
func (l *ConsoleLogger) Errorf(format string, v ...interface{}) { l.log(ERROR, format, v...) }
