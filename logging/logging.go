// Package logging contains the structured logger used across chardev. It is a thin layer over
// zap: a Logger fans entries out to appenders, and each logger carries its own level so that
// subloggers for individual device handles can be tuned separately.
package logging

import (
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging interface used by every package in this module.
type Logger interface {
	// Debugw, Warnw and Errorw log msg with structured context: alternating keys and values.
	Debugw(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a child logger named "<name>.<subname>" that shares this logger's
	// appenders and starts at this logger's level.
	Sublogger(subname string) Logger
	Name() string
	SetLevel(level Level)
	GetLevel() Level
	AddAppender(appender Appender)
	Sync() error
}

// An Appender receives every entry a logger decides to emit.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	Sync() error
}

// NewZapLoggerConfig returns the console encoder settings used by the stdout appender.
func NewZapLoggerConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewStdoutAppender returns an appender writing console formatted lines to stdout.
func NewStdoutAppender() Appender {
	return newWriterAppender(zapcore.Lock(os.Stdout))
}

// NewStderrAppender returns an appender writing console formatted lines to stderr.
func NewStderrAppender() Appender {
	return newWriterAppender(zapcore.Lock(os.Stderr))
}

// NewFileAppender returns an appender writing console formatted lines to the file at path. The
// file is rotated once it grows past 10 MB, keeping two compressed backups.
func NewFileAppender(path string) Appender {
	return newWriterAppender(zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 2,
		Compress:   true,
	}))
}

func newWriterAppender(ws zapcore.WriteSyncer) Appender {
	// Level filtering happens in the logger, so the core itself accepts everything.
	return zapcore.NewCore(zapcore.NewConsoleEncoder(NewZapLoggerConfig()), ws, zap.DebugLevel)
}

// NewLogger returns a new logger that outputs Info+ logs to stdout in UTC.
func NewLogger(name string) Logger {
	const inUTC = true
	return &impl{name, NewAtomicLevelAt(INFO), inUTC, []Appender{NewStdoutAppender()}}
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout in UTC.
func NewDebugLogger(name string) Logger {
	const inUTC = true
	return &impl{name, NewAtomicLevelAt(DEBUG), inUTC, []Appender{NewStdoutAppender()}}
}

// NewBlankLogger returns a new logger that outputs Debug+ logs in UTC, but without any
// pre-existing appenders/outputs.
func NewBlankLogger(name string) Logger {
	const inUTC = true
	return &impl{name, NewAtomicLevelAt(DEBUG), inUTC, []Appender{}}
}

// NewTestLogger returns a new logger that outputs Debug+ logs to the test's log in local time.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	const inUTC = false
	logger := &impl{"", NewAtomicLevelAt(DEBUG), inUTC, []Appender{}}
	logger.AddAppender(NewTestAppender(tb))

	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	logger.AddAppender(observerCore)

	return logger, observedLogs
}
