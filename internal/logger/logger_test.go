package logger_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/secop/internal/logger"
)

func TestLoggerLevelsAndOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(logger.Options{Level: logrus.InfoLevel, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Debug("should not appear", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered out, got %q", buf.String())
	}

	l.Info("hello %s", map[string]int{"n": 1}, "world")
	if buf.Len() == 0 {
		t.Fatal("expected info line to be written")
	}

	l.SetLevel(logrus.DebugLevel)
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("GetLevel = %v, want Debug", l.GetLevel())
	}
}
