package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	level    Level
	messages []string
}

func (r *recordingLogger) SetLevel(level Level)                               { r.level = level }
func (r *recordingLogger) Debug(message string)                               { r.messages = append(r.messages, "D:"+message) }
func (r *recordingLogger) Info(message string)                                { r.messages = append(r.messages, "I:"+message) }
func (r *recordingLogger) Warn(message string)                                { r.messages = append(r.messages, "W:"+message) }
func (r *recordingLogger) Error(message string)                               { r.messages = append(r.messages, "E:"+message) }
func (r *recordingLogger) Debugf(format string, v ...interface{})             { r.Debug(sprintf(format, v...)) }
func (r *recordingLogger) Infof(format string, v ...interface{})              { r.Info(sprintf(format, v...)) }
func (r *recordingLogger) Warnf(format string, v ...interface{})              { r.Warn(sprintf(format, v...)) }
func (r *recordingLogger) Errorf(format string, v ...interface{})             { r.Error(sprintf(format, v...)) }

func sprintf(format string, v ...interface{}) string {
	if len(v) == 0 {
		return format
	}
	return format
}

func TestMultiLogger_FansOutToAll(t *testing.T) {
	t.Parallel()
	a, b := &recordingLogger{}, &recordingLogger{}
	ml := NewMultiLogger(a, b)

	ml.SetLevel(WARN)
	ml.Info("hi")
	ml.Error("bye")

	assert.Equal(t, WARN, a.level)
	assert.Equal(t, WARN, b.level)
	assert.Equal(t, []string{"I:hi", "E:bye"}, a.messages)
	assert.Equal(t, []string{"I:hi", "E:bye"}, b.messages)
}

func TestNewDefaultLogger(t *testing.T) {
	t.Parallel()
	logger, err := NewDefaultLogger(t.TempDir() + "/app.log")
	assert := assert.New(t)
	assert.NoError(err)
	assert.NotNil(logger)
}
