// Package logger provides the component loggers shared by the server and the client.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Logger is a printf-style logger bound to one component.
type Logger struct {
	entry *logrus.Entry
}

// Component loggers.
var (
	Server = New("server")
	Match  = New("match")
	Client = New("client")
	API    = New("api")
)

func init() {
	formatter := new(logrus.TextFormatter)
	formatter.TimestampFormat = time.RFC3339
	formatter.FullTimestamp = true
	logrus.SetFormatter(formatter)
	logrus.SetLevel(logrus.InfoLevel)
}

// New creates a logger tagged with the given component name.
func New(component string) *Logger {
	return &Logger{entry: logrus.StandardLogger().WithField("component", component)}
}

// SetGlobalLogLevel sets the level of every component logger.
func SetGlobalLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return errors.Wrapf(err, "parse log level %q failed", level)
	}
	logrus.SetLevel(lvl)
	return nil
}

// SetFile duplicates log output into the file at path.
func SetFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create log directory failed")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log file failed")
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// WithField returns a child logger carrying an extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *Logger) Fatal(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }
