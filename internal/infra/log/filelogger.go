package log

import (
	"fmt"
	"log"
	"os"
)

// FileLogger logs messages to a file, appending across runs.
type FileLogger struct {
	logger   *log.Logger
	logFile  *os.File
	minLevel Level
}

// NewFileLogger creates a new logger that writes to the given file path,
// creating it if necessary and appending to it otherwise.
func NewFileLogger(filePath string, minLevel Level) (*FileLogger, error) {
	// #nosec G304 -- filePath is supplied by application configuration.
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	return &FileLogger{
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lshortfile),
		logFile:  file,
		minLevel: minLevel,
	}, nil
}

// Close closes the underlying log file.
func (l *FileLogger) Close() error {
	if l.logFile == nil {
		return nil
	}
	err := l.logFile.Close()
	l.logFile = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// SetLevel configures the minimum log level for file output.
func (l *FileLogger) SetLevel(level Level) {
	l.minLevel = level
}

func (l *FileLogger) log(level Level, format string, v ...interface{}) {
	if level < l.minLevel {
		return
	}
	message := fmt.Sprintf(format, v...)
	l.logger.Printf("[%s] %s", level.String(), message)
}

// Debug logs a debug level message.
func (l *FileLogger) Debug(message string) { l.log(DEBUG, "%s", message) }

// Info logs an info level message.
func (l *FileLogger) Info(message string) { l.log(INFO, "%s", message) }

// Warn logs a warning level message.
func (l *FileLogger) Warn(message string) { l.log(WARN, "%s", message) }

// Error logs an error level message.
func (l *FileLogger) Error(message string) { l.log(ERROR, "%s", message) }

// Debugf logs a formatted debug level message.
func (l *FileLogger) Debugf(format string, v ...interface{}) { l.log(DEBUG, format, v...) }

// Infof logs a formatted info level message.
func (l *FileLogger) Infof(format string, v ...interface{}) { l.log(INFO, format, v...) }

// Warnf logs a formatted warning level message.
func (l *FileLogger) Warnf(format string, v ...interface{}) { l.log(WARN, format, v...) }

// Errorf logs a formatted error level message.
func (l *FileLogger) Errorf(format string, v ...interface{}) { l.log(ERROR, format, v...) }
