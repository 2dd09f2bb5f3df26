package log

// MultiLogger distributes log messages to multiple loggers.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a new multi-logger with the given loggers.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// SetLevel sets the level on all contained loggers.
func (ml *MultiLogger) SetLevel(level Level) {
	for _, logger := range ml.loggers {
		logger.SetLevel(level)
	}
}

// Debug sends a debug message to all loggers.
func (ml *MultiLogger) Debug(message string) {
	for _, logger := range ml.loggers {
		logger.Debug(message)
	}
}

// Info sends an info message to all loggers.
func (ml *MultiLogger) Info(message string) {
	for _, logger := range ml.loggers {
		logger.Info(message)
	}
}

// Warn sends a warning message to all loggers.
func (ml *MultiLogger) Warn(message string) {
	for _, logger := range ml.loggers {
		logger.Warn(message)
	}
}

// Error sends an error message to all loggers.
func (ml *MultiLogger) Error(message string) {
	for _, logger := range ml.loggers {
		logger.Error(message)
	}
}

// Debugf sends a formatted debug message to all loggers.
func (ml *MultiLogger) Debugf(format string, v ...interface{}) {
	for _, logger := range ml.loggers {
		logger.Debugf(format, v...)
	}
}

// Infof sends a formatted info message to all loggers.
func (ml *MultiLogger) Infof(format string, v ...interface{}) {
	for _, logger := range ml.loggers {
		logger.Infof(format, v...)
	}
}

// Warnf sends a formatted warning message to all loggers.
func (ml *MultiLogger) Warnf(format string, v ...interface{}) {
	for _, logger := range ml.loggers {
		logger.Warnf(format, v...)
	}
}

// Errorf sends a formatted error message to all loggers.
func (ml *MultiLogger) Errorf(format string, v ...interface{}) {
	for _, logger := range ml.loggers {
		logger.Errorf(format, v...)
	}
}

// NewDefaultLogger builds the console+file multi-logger the pipeline driver
// uses by default: INFO and above to the console, everything to the file.
func NewDefaultLogger(logFilePath string) (Logger, error) {
	fileLogger, err := NewFileLogger(logFilePath, DEBUG)
	if err != nil {
		return nil, err
	}
	consoleLogger, err := NewConsoleLogger(INFO)
	if err != nil {
		return nil, err
	}
	return NewMultiLogger(consoleLogger, fileLogger), nil
}
