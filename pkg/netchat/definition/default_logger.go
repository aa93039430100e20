// Package definition holds the default, swappable implementations the rest
// of the node runtime depends on through interfaces defined in package
// types — today, just the logger.
package definition

import (
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"

	"github.com/ehariz/netchat/pkg/netchat/types"
)

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	debugColor = color.New(color.FgCyan)
)

// DefaultLogger is the logger used if the caller does not provide its own
// implementation. It wraps logrus for structured, leveled output and colors
// the message text of warn, error and debug entries so a scrolling terminal
// stays readable.
type DefaultLogger struct {
	entry *logrus.Logger
}

// NewDefaultLogger builds a DefaultLogger writing to w (truncated log files
// are the caller's responsibility, see cmd/netchat). Passing nil uses a
// colorable wrapper around the process's stderr.
func NewDefaultLogger(w io.Writer) *DefaultLogger {
	if w == nil {
		w = colorable.NewColorableStderr()
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &DefaultLogger{entry: l}
}

func (l *DefaultLogger) Info(v ...interface{})                 { l.entry.Info(v...) }
func (l *DefaultLogger) Infof(format string, v ...interface{}) { l.entry.Infof(format, v...) }
func (l *DefaultLogger) Warn(v ...interface{})                 { l.entry.Warn(warnColor.Sprint(v...)) }
func (l *DefaultLogger) Warnf(format string, v ...interface{}) {
	l.entry.Warn(warnColor.Sprintf(format, v...))
}
func (l *DefaultLogger) Error(v ...interface{}) { l.entry.Error(errorColor.Sprint(v...)) }
func (l *DefaultLogger) Errorf(format string, v ...interface{}) {
	l.entry.Error(errorColor.Sprintf(format, v...))
}
func (l *DefaultLogger) Debug(v ...interface{}) {
	if l.entry.IsLevelEnabled(logrus.DebugLevel) {
		l.entry.Debug(debugColor.Sprint(v...))
	}
}
func (l *DefaultLogger) Debugf(format string, v ...interface{}) {
	if l.entry.IsLevelEnabled(logrus.DebugLevel) {
		l.entry.Debug(debugColor.Sprintf(format, v...))
	}
}
func (l *DefaultLogger) Fatal(v ...interface{})                 { l.entry.Fatal(v...) }
func (l *DefaultLogger) Fatalf(format string, v ...interface{}) { l.entry.Fatalf(format, v...) }

// ToggleDebug enables debug-level logging when value is true, sets the
// info level otherwise, and returns value.
func (l *DefaultLogger) ToggleDebug(value bool) bool {
	if value {
		l.entry.SetLevel(logrus.DebugLevel)
	} else {
		l.entry.SetLevel(logrus.InfoLevel)
	}
	return value
}

var _ types.Logger = (*DefaultLogger)(nil)
