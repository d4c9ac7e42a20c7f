// Package logger wraps logrus behind the node's own Logger interface:
// level-tagged methods taking an optional structured data payload, the way
// the teacher's logger package shapes its Debug/Info/Warning/Error/Fatal
// methods. Components that need a *logrus.Entry directly (internal/
// dispatcher, internal/module) get one from Entry.
package logger
