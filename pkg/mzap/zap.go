// Package mzap adapts a zap.SugaredLogger to the pkg/mlog.Logger interface,
// the way the teacher's common/mzap wraps otelzap for the same purpose.
package mzap

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/mlog"
)

// Logger wraps a *zap.SugaredLogger to satisfy mlog.Logger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// InitializeLogger builds a production or development zap config depending
// on ENV_NAME, honoring LOG_LEVEL, and returns it wrapped as an mlog.Logger.
func InitializeLogger() (mlog.Logger, error) {
	var cfg zap.Config

	if os.Getenv("ENV_NAME") == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if val, ok := os.LookupEnv("LOG_LEVEL"); ok && val != "" {
		var lvl zapcore.Level
		if err := lvl.Set(val); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	cfg.DisableStacktrace = true

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &Logger{sugar: zl.Sugar()}, nil
}

func (l *Logger) Info(args ...any)                  { l.sugar.Info(args...) }
func (l *Logger) Infof(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *Logger) Error(args ...any)                 { l.sugar.Error(args...) }
func (l *Logger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }
func (l *Logger) Warn(args ...any)                  { l.sugar.Warn(args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *Logger) Debug(args ...any)                 { l.sugar.Debug(args...) }
func (l *Logger) Debugf(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *Logger) Fatal(args ...any)                 { l.sugar.Fatal(args...) }
func (l *Logger) Fatalf(format string, args ...any) { l.sugar.Fatalf(format, args...) }

// WithFields returns a new Logger with the given key/value pairs attached.
//
//nolint:ireturn
func (l *Logger) WithFields(fields ...any) mlog.Logger {
	return &Logger{sugar: l.sugar.With(fields...)}
}

func (l *Logger) Sync() error { return l.sugar.Sync() }
