// Package mlog defines the logger interface threaded through the core via
// context, so every layer logs against an interface rather than a concrete
// logging library.
package mlog

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Logger is the common interface for log implementations used across the core.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)

	WithFields(fields ...any) Logger

	Sync() error
}

// Level represents logging severity.
type Level int8

const (
	FatalLevel Level = iota
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

// ParseLevel parses a level string (case-insensitive).
func ParseLevel(lvl string) (Level, error) {
	switch strings.ToLower(lvl) {
	case "fatal":
		return FatalLevel, nil
	case "error":
		return ErrorLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	}

	return InfoLevel, fmt.Errorf("not a valid log level: %q", lvl)
}

// GoLogger is a stdlib-log-backed Logger, used as a fallback when no
// structured logger is configured (e.g. in unit tests).
type GoLogger struct {
	Level  Level
	fields []any
}

func (l *GoLogger) enabled(level Level) bool { return l.Level >= level }

func (l *GoLogger) Info(args ...any) {
	if l.enabled(InfoLevel) {
		log.Print(append(l.fields, args...)...)
	}
}

func (l *GoLogger) Infof(format string, args ...any) {
	if l.enabled(InfoLevel) {
		log.Printf(format, args...)
	}
}

func (l *GoLogger) Error(args ...any) {
	if l.enabled(ErrorLevel) {
		log.Print(append(l.fields, args...)...)
	}
}

func (l *GoLogger) Errorf(format string, args ...any) {
	if l.enabled(ErrorLevel) {
		log.Printf(format, args...)
	}
}

func (l *GoLogger) Warn(args ...any) {
	if l.enabled(WarnLevel) {
		log.Print(append(l.fields, args...)...)
	}
}

func (l *GoLogger) Warnf(format string, args ...any) {
	if l.enabled(WarnLevel) {
		log.Printf(format, args...)
	}
}

func (l *GoLogger) Debug(args ...any) {
	if l.enabled(DebugLevel) {
		log.Print(append(l.fields, args...)...)
	}
}

func (l *GoLogger) Debugf(format string, args ...any) {
	if l.enabled(DebugLevel) {
		log.Printf(format, args...)
	}
}

func (l *GoLogger) Fatal(args ...any) {
	log.Fatal(append(l.fields, args...)...)
}

func (l *GoLogger) Fatalf(format string, args ...any) {
	log.Fatalf(format, args...)
}

// WithFields returns a new logger carrying additional structured context.
//
//nolint:ireturn
func (l *GoLogger) WithFields(fields ...any) Logger {
	return &GoLogger{
		Level:  l.Level,
		fields: append(append([]any{}, l.fields...), fields...),
	}
}

func (l *GoLogger) Sync() error { return nil }

// NoneLogger discards everything. Useful as a safe zero value.
type NoneLogger struct{}

func (l *NoneLogger) Info(args ...any)                  {}
func (l *NoneLogger) Infof(format string, args ...any)  {}
func (l *NoneLogger) Error(args ...any)                 {}
func (l *NoneLogger) Errorf(format string, args ...any) {}
func (l *NoneLogger) Warn(args ...any)                  {}
func (l *NoneLogger) Warnf(format string, args ...any)  {}
func (l *NoneLogger) Debug(args ...any)                 {}
func (l *NoneLogger) Debugf(format string, args ...any) {}
func (l *NoneLogger) Fatal(args ...any)                 {}
func (l *NoneLogger) Fatalf(format string, args ...any) {}
func (l *NoneLogger) Sync() error                       { return nil }

//nolint:ireturn
func (l *NoneLogger) WithFields(fields ...any) Logger { return l }

type loggerContextKey string

const loggerKey loggerContextKey = "logger"

// ContextWithLogger returns a context carrying the given Logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the Logger from ctx, falling back to NoneLogger.
//
//nolint:ireturn
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok && logger != nil {
		return logger
	}

	return &NoneLogger{}
}
