package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the node's structured logging surface: a level-tagged method per
// severity, each taking an optional data payload alongside the formatted
// message (mirrors the teacher's logger.Logger method shapes).
type Logger interface {
	Debug(message string, data interface{}, args ...interface{})
	Info(message string, data interface{}, args ...interface{})
	Warning(message string, data interface{}, args ...interface{})
	Error(message string, data interface{}, args ...interface{})
	Fatal(message string, data interface{}, args ...interface{})
	Panic(message string, data interface{}, args ...interface{})

	// SetLevel/GetLevel control the minimal severity that reaches the output.
	SetLevel(level logrus.Level)
	GetLevel() logrus.Level

	// WithField returns a derived entry for components (the dispatcher, a
	// module worker) that want a *logrus.Entry of their own to tag with a
	// component name.
	WithField(key string, value interface{}) *logrus.Entry

	// Entry exposes the root entry directly.
	Entry() *logrus.Entry

	Close() error
}

// Options configures New.
type Options struct {
	Level  logrus.Level
	JSON   bool
	Output io.Writer // defaults to os.Stderr
	File   string    // when set, additionally logs to this file (append)
}

type logger struct {
	entry *logrus.Entry
	file  *os.File
}

// New builds a Logger from Options, grounded on the teacher's logger/
// options.go construction shape: pick a formatter, pick a level, optionally
// tee to a file.
func New(opt Options) (Logger, error) {
	l := logrus.New()
	if opt.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	l.SetLevel(opt.Level)

	out := opt.Output
	if out == nil {
		out = os.Stderr
	}

	var f *os.File
	if opt.File != "" {
		file, err := os.OpenFile(opt.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		f = file
		out = io.MultiWriter(out, f)
	}
	l.SetOutput(out)

	return &logger{entry: logrus.NewEntry(l), file: f}, nil
}

func (l *logger) log(level logrus.Level, message string, data interface{}, args ...interface{}) {
	e := l.entry
	if data != nil {
		e = e.WithField("data", data)
	}
	e.Log(level, fmt.Sprintf(message, args...))
}

func (l *logger) Debug(message string, data interface{}, args ...interface{}) {
	l.log(logrus.DebugLevel, message, data, args...)
}

func (l *logger) Info(message string, data interface{}, args ...interface{}) {
	l.log(logrus.InfoLevel, message, data, args...)
}

func (l *logger) Warning(message string, data interface{}, args ...interface{}) {
	l.log(logrus.WarnLevel, message, data, args...)
}

func (l *logger) Error(message string, data interface{}, args ...interface{}) {
	l.log(logrus.ErrorLevel, message, data, args...)
}

func (l *logger) Fatal(message string, data interface{}, args ...interface{}) {
	l.log(logrus.FatalLevel, message, data, args...)
}

func (l *logger) Panic(message string, data interface{}, args ...interface{}) {
	l.log(logrus.PanicLevel, message, data, args...)
}

func (l *logger) SetLevel(level logrus.Level) { l.entry.Logger.SetLevel(level) }
func (l *logger) GetLevel() logrus.Level       { return l.entry.Logger.GetLevel() }

func (l *logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.entry.WithField(key, value)
}

func (l *logger) Entry() *logrus.Entry { return l.entry }

func (l *logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
