// Package minikvlog is the logging facade shared by every core component.
// Components never call fmt.Println or the stdlib log package directly;
// they log through the package-level functions here, which forward to a
// swappable Logger implementation.
package minikvlog

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

// Level is the severity of a log call. The constants run from least to
// most verbose: Error is the most severe level, Verbose the least.
type Level int32

const (
	Off Level = iota
	Error
	Warn
	Info
	Debug
	Verbose
)

func (l Level) String() string {
	switch l {
	case Off:
		return "OFF"
	case Error:
		return "ERROR"
	case Warn:
		return "WARN"
	case Info:
		return "INFO"
	case Debug:
		return "DEBUG"
	case Verbose:
		return "VERBOSE"
	default:
		return "UNKNOWN"
	}
}

// Logger is the pluggable sink for core log lines. Implementations must be
// safe for concurrent use.
type Logger interface {
	Log(level Level, tag, msg string)
}

// slogLogger is the default Logger, backed by log/slog the way FlashDB's
// server package builds its logger from slog.NewJSONHandler.
type slogLogger struct {
	inner *slog.Logger
}

func newDefaultLogger() *slogLogger {
	return &slogLogger{inner: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}

func (s *slogLogger) Log(level Level, tag, msg string) {
	attrs := []any{"tag", tag}
	switch level {
	case Error:
		s.inner.Error(msg, attrs...)
	case Warn:
		s.inner.Warn(msg, attrs...)
	case Info:
		s.inner.Info(msg, attrs...)
	case Debug, Verbose:
		s.inner.Debug(msg, attrs...)
	}
}

var (
	activeLevel  atomic.Int32
	activeLogger atomic.Pointer[Logger]
)

func init() {
	activeLevel.Store(int32(Verbose))
	var l Logger = newDefaultLogger()
	activeLogger.Store(&l)
}

// SetLogger replaces the active Logger. Passing nil restores the default.
func SetLogger(l Logger) {
	if l == nil {
		var d Logger = newDefaultLogger()
		activeLogger.Store(&d)
		return
	}
	activeLogger.Store(&l)
}

// SetLevel sets the minimum level that reaches the active Logger.
func SetLevel(level Level) {
	activeLevel.Store(int32(level))
}

func current() (Logger, Level) {
	p := activeLogger.Load()
	return *p, Level(activeLevel.Load())
}

func logf(level Level, tag, format string, args ...any) {
	logger, threshold := current()
	if threshold == Off || level > threshold {
		return
	}
	logger.Log(level, tag, fmt.Sprintf(format, args...))
}

func Errorf(tag, format string, args ...any)   { logf(Error, tag, format, args...) }
func Warnf(tag, format string, args ...any)    { logf(Warn, tag, format, args...) }
func Infof(tag, format string, args ...any)    { logf(Info, tag, format, args...) }
func Debugf(tag, format string, args ...any)   { logf(Debug, tag, format, args...) }
func Verbosef(tag, format string, args ...any) { logf(Verbose, tag, format, args...) }
