// Package logger provides the leveled process logger used by the server, the
// save service and the CLI.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel accepts debug, info, warn or error. Anything else is info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes prefixed lines per level. A nil *Logger discards everything.
type Logger struct {
	level       Level
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// New creates a logger writing info and below to stdout and warnings and
// errors to stderr.
func New(level Level) *Logger {
	return NewWithWriters(level, os.Stdout, os.Stderr)
}

func NewWithWriters(level Level, out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime
	return &Logger{
		level:       level,
		debugLogger: log.New(out, "[POKESTATE-DEBUG] ", flags),
		infoLogger:  log.New(out, "[POKESTATE-INFO] ", flags),
		warnLogger:  log.New(errOut, "[POKESTATE-WARN] ", flags),
		errorLogger: log.New(errOut, "[POKESTATE-ERROR] ", flags),
	}
}

// Discard returns a logger that drops all output.
func Discard() *Logger {
	return NewWithWriters(LevelError+1, io.Discard, io.Discard)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, format, args...)
}

// Event logs a state change against a subject, e.g. a player or a save.
func (l *Logger) Event(eventType, subjectID, details string) {
	l.logf(LevelInfo, "[EVENT:%s] subject:%s | %s", eventType, subjectID, details)
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	var target *log.Logger
	switch level {
	case LevelDebug:
		target = l.debugLogger
	case LevelInfo:
		target = l.infoLogger
	case LevelWarn:
		target = l.warnLogger
	default:
		target = l.errorLogger
	}
	target.Output(3, fmt.Sprintf(format, args...))
}
