// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package obslog provides two log.Logger implementations: a discard logger
// and a slog-backed logger for cmd/ringd. No package anywhere holds a
// package-level logger (spec Design Notes §9: no hidden module-level
// state) — every ring, the DataBus, and the Server take a log.Logger
// through their constructor, and accept nil to mean no logging. The
// transport package does not log.
package obslog

import (
	"context"
	"log/slog"
	"os"

	"github.com/luxfi/log"
	"go.uber.org/zap"
)

// NoOp returns a logger that discards everything, for callers that want a
// non-nil log.Logger. Constructors in this repository do not substitute it
// for a nil logger; they skip logging instead.
func NoOp() log.Logger {
	return noop{}
}

type noop struct{}

func (noop) With(ctx ...interface{}) log.Logger   { return noop{} }
func (noop) New(ctx ...interface{}) log.Logger    { return noop{} }
func (noop) Log(level slog.Level, msg string, ctx ...interface{}) {}
func (noop) Trace(msg string, ctx ...interface{})  {}
func (noop) Debug(msg string, ctx ...interface{})  {}
func (noop) Info(msg string, ctx ...interface{})   {}
func (noop) Warn(msg string, ctx ...interface{})   {}
func (noop) Error(msg string, ctx ...interface{})  {}
func (noop) Crit(msg string, ctx ...interface{})   {}
func (noop) WriteLog(level slog.Level, msg string, attrs ...any) {}
func (noop) Enabled(ctx context.Context, level slog.Level) bool { return false }
func (noop) Handler() slog.Handler                 { return nil }
func (noop) Fatal(msg string, fields ...zap.Field) {}
func (noop) Verbo(msg string, fields ...zap.Field) {}
func (n noop) WithFields(fields ...zap.Field) log.Logger  { return n }
func (n noop) WithOptions(opts ...zap.Option) log.Logger  { return n }
func (noop) SetLevel(level slog.Level)             {}
func (noop) GetLevel() slog.Level                  { return slog.Level(0) }
func (noop) EnabledLevel(lvl slog.Level) bool       { return false }
func (noop) StopOnPanic()                          {}
func (noop) RecoverAndPanic(f func())              { f() }
func (noop) RecoverAndExit(f, exit func())         { f() }
func (noop) Stop()                                 {}
func (noop) Write(p []byte) (int, error)           { return len(p), nil }

// New returns a slog-backed Logger writing to os.Stderr, used by cmd/ringd.
func New(level slog.Level) log.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &slogLogger{base: slog.New(handler), level: level}
}

type slogLogger struct {
	base  *slog.Logger
	level slog.Level
}

func (l *slogLogger) With(ctx ...interface{}) log.Logger {
	return &slogLogger{base: l.base.With(ctx...), level: l.level}
}

func (l *slogLogger) New(ctx ...interface{}) log.Logger { return l.With(ctx...) }

func (l *slogLogger) Log(level slog.Level, msg string, ctx ...interface{}) {
	l.base.Log(context.Background(), level, msg, ctx...)
}

func (l *slogLogger) Trace(msg string, ctx ...interface{}) { l.Log(slog.LevelDebug-4, msg, ctx...) }
func (l *slogLogger) Debug(msg string, ctx ...interface{}) { l.base.Debug(msg, ctx...) }
func (l *slogLogger) Info(msg string, ctx ...interface{})  { l.base.Info(msg, ctx...) }
func (l *slogLogger) Warn(msg string, ctx ...interface{})  { l.base.Warn(msg, ctx...) }
func (l *slogLogger) Error(msg string, ctx ...interface{}) { l.base.Error(msg, ctx...) }
func (l *slogLogger) Crit(msg string, ctx ...interface{})  { l.Log(slog.LevelError+4, msg, ctx...) }

func (l *slogLogger) WriteLog(level slog.Level, msg string, attrs ...any) {
	l.Log(level, msg, attrs...)
}

func (l *slogLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.base.Enabled(ctx, level)
}

func (l *slogLogger) Handler() slog.Handler { return l.base.Handler() }

func (l *slogLogger) Fatal(msg string, fields ...zap.Field) {
	l.Error(msg, zapFieldsToArgs(fields)...)
	os.Exit(1)
}

func (l *slogLogger) Verbo(msg string, fields ...zap.Field) {
	l.Log(slog.LevelDebug-8, msg, zapFieldsToArgs(fields)...)
}

func (l *slogLogger) WithFields(fields ...zap.Field) log.Logger {
	return l.With(zapFieldsToArgs(fields)...)
}

func (l *slogLogger) WithOptions(opts ...zap.Option) log.Logger { return l }

func (l *slogLogger) SetLevel(level slog.Level) { l.level = level }
func (l *slogLogger) GetLevel() slog.Level      { return l.level }
func (l *slogLogger) EnabledLevel(lvl slog.Level) bool { return lvl >= l.level }

func (l *slogLogger) StopOnPanic() {}

func (l *slogLogger) RecoverAndPanic(f func()) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("recovered panic, repanicking", "panic", r)
			panic(r)
		}
	}()
	f()
}

func (l *slogLogger) RecoverAndExit(f, exit func()) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("recovered panic, exiting", "panic", r)
			exit()
		}
	}()
	f()
}

func (l *slogLogger) Stop() {}

func (l *slogLogger) Write(p []byte) (int, error) {
	l.base.Info(string(p))
	return len(p), nil
}

// zapFieldsToArgs flattens zap.Field values into the key-value pairs the
// geth/slog-style variadic methods expect.
func zapFieldsToArgs(fields []zap.Field) []any {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Interface)
		if f.Interface == nil {
			switch {
			case f.String != "":
				args[len(args)-1] = f.String
			default:
				args[len(args)-1] = f.Integer
			}
		}
	}
	return args
}
