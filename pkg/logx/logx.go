// Package logx is the process-wide leveled logger, backed by zap.
package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors zap levels so callers do not import zapcore.
type Level int8

const (
	LevelDebug Level = Level(zapcore.DebugLevel)
	LevelInfo  Level = Level(zapcore.InfoLevel)
	LevelWarn  Level = Level(zapcore.WarnLevel)
	LevelError Level = Level(zapcore.ErrorLevel)
)

var (
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar       = newLogger()
)

func newLogger() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zap.Must(cfg.Build(zap.AddCallerSkip(1))).Sugar()
}

// SetLevel adjusts the global log level at runtime.
func SetLevel(l Level) { atomicLevel.SetLevel(zapcore.Level(l)) }

func Debug(args ...any) { sugar.Debug(args...) }
func Info(args ...any)  { sugar.Info(args...) }
func Warn(args ...any)  { sugar.Warn(args...) }
func Error(args ...any) { sugar.Error(args...) }

func Debugf(format string, args ...any) { sugar.Debugf(format, args...) }
func Infof(format string, args ...any)  { sugar.Infof(format, args...) }
func Warnf(format string, args ...any)  { sugar.Warnf(format, args...) }
func Errorf(format string, args ...any) { sugar.Errorf(format, args...) }
func Fatalf(format string, args ...any) { sugar.Fatalf(format, args...) }

// Structured variants carry key/value pairs (job_id, uid, target_service,
// operation, status, duration_ms).
func Debugw(msg string, keysAndValues ...any) { sugar.Debugw(msg, keysAndValues...) }
func Infow(msg string, keysAndValues ...any)  { sugar.Infow(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...any)  { sugar.Warnw(msg, keysAndValues...) }
func Errorw(msg string, keysAndValues ...any) { sugar.Errorw(msg, keysAndValues...) }

// Sync flushes buffered log entries. Call on shutdown.
func Sync() { _ = sugar.Sync() }
