package pbrtracer

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes leveled lines through the standard log package:
// debug and info to one writer, warnings and errors to another.
type DefaultLogger struct {
	debug  atomic.Bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewDefaultLoggerTo(prefix, debug, os.Stdout, os.Stderr, log.LstdFlags|log.Lmicroseconds)
}

// NewDefaultLoggerTo is NewDefaultLogger with explicit writers and log flags.
func NewDefaultLoggerTo(prefix string, debug bool, out, errOut io.Writer, flags int) *DefaultLogger {
	l := &DefaultLogger{
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
	l.debug.Store(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool {
	return l.debug.Load()
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.debug.Store(enabled)
}

func (l *DefaultLogger) print(dst *log.Logger, level string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		dst.Printf("[%s] %s: %s", l.prefix, level, msg)
		return
	}
	dst.Printf("%s: %s", level, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.DebugEnabled() {
		l.print(l.out, "DEBUG", format, args...)
	}
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.print(l.out, "INFO", format, args...)
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.print(l.err, "WARN", format, args...)
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.print(l.err, "ERROR", format, args...)
}

// LoggingModule installs a default logger as a resource.
type LoggingModule struct {
	Prefix string
	Debug  bool
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	if existing, ok := Resource[DefaultLogger](app); ok {
		existing.SetDebug(m.Debug)
		return
	}
	logger := NewDefaultLogger(m.Prefix, m.Debug)
	app.addResources(logger)
}

// logThrottle lets a message through at most once per interval. Per-frame
// failures use it so they don't flood the output.
type logThrottle struct {
	interval time.Duration
	last     time.Time
}

func (t *logThrottle) allow(now time.Time) bool {
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

type nopLogger struct{}

func NewNopLogger() Logger                             { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

// Logger returns the DefaultLogger resource, else any resource implementing
// Logger, else a no-op logger. It never returns nil.
func (app *App) Logger() Logger {
	if app == nil || app.resources == nil {
		return NewNopLogger()
	}
	if l, ok := Resource[DefaultLogger](app); ok {
		return l
	}
	for _, r := range app.resources {
		if l, ok := r.(Logger); ok {
			return l
		}
	}
	return NewNopLogger()
}
