// Package rtlog wraps logrus with the small set of structured fields
// raytran's components attach to every line, so call sites never build
// raw logrus.Entry values themselves.
package rtlog

import "github.com/sirupsen/logrus"

// Logger is a component-scoped logrus entry.
type Logger struct {
	entry *logrus.Entry
}

var base = logrus.New()

// New returns a Logger tagged with the given component name.
func New(component string) *Logger {
	return &Logger{entry: base.WithField("component", component)}
}

// With returns a copy of l with additional structured fields attached.
func (l *Logger) With(fields logrus.Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// SetLevel adjusts the shared base logger's verbosity.
func SetLevel(level logrus.Level) { base.SetLevel(level) }
