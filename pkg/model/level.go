package model

import (
	"strings"

	"github.com/openrangelabs/middleware/pkg/apperrors"
)

// LogLevel is the severity of a system log entry.
type LogLevel string

const (
	LevelTrace LogLevel = "TRACE"
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelFatal LogLevel = "FATAL"
)

// LogLevels lists every level in ascending severity.
var LogLevels = []LogLevel{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}

var levelInfo = map[LogLevel]struct {
	severity    int
	description string
}{
	LevelTrace: {0, "Trace level logging"},
	LevelDebug: {1, "Debug level logging"},
	LevelInfo:  {2, "Info level logging"},
	LevelWarn:  {3, "Warning level logging"},
	LevelError: {4, "Error level logging"},
	LevelFatal: {5, "Fatal level logging"},
}

// ParseLogLevel resolves a level code, ignoring case and surrounding space.
func ParseLogLevel(s string) (LogLevel, error) {
	l := LogLevel(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelInfo[l]; !ok {
		return "", apperrors.NewInvalidValue("log level", s)
	}
	return l, nil
}

// IsValidLogLevel reports whether s names a level.
func IsValidLogLevel(s string) bool {
	_, err := ParseLogLevel(s)
	return err == nil
}

func (l LogLevel) String() string { return string(l) }

// Code is the canonical code stored and sent on the wire.
func (l LogLevel) Code() string { return string(l) }

func (l LogLevel) Description() string { return levelInfo[l].description }

// Severity ranks the level from 0 (TRACE) to 5 (FATAL). Unknown levels rank -1.
func (l LogLevel) Severity() int {
	info, ok := levelInfo[l]
	if !ok {
		return -1
	}
	return info.severity
}

// EnabledFor reports whether l passes a configured minimum level.
func (l LogLevel) EnabledFor(min LogLevel) bool {
	return l.Severity() >= min.Severity()
}
