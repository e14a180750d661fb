// Package logger provides a simple leveled logger for the application.
// It supports three levels: off (no output), normal (info/warn/error),
// and verbose (includes debug). The logger is safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level controls the verbosity of the logger.
type Level int

const (
	// LevelOff disables all log output.
	LevelOff Level = iota
	// LevelNormal enables info, warn, and error output.
	LevelNormal
	// LevelVerbose enables all output including debug.
	LevelVerbose
)

// String returns the config spelling of the level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelVerbose:
		return "verbose"
	default:
		return "normal"
	}
}

// ParseLevel maps a config value to a Level. Unknown values fall back
// to LevelNormal and report ok=false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "quiet", "none":
		return LevelOff, true
	case "", "normal", "info":
		return LevelNormal, true
	case "verbose", "debug":
		return LevelVerbose, true
	default:
		return LevelNormal, false
	}
}

// sink is shared between a logger and the children made by Named so a
// level change applies to all of them.
type sink struct {
	mu    sync.RWMutex
	level Level
	out   io.Writer
}

// Logger is a leveled logger. All methods are safe for concurrent use.
type Logger struct {
	sink   *sink
	prefix string
	debug  *log.Logger
	info   *log.Logger
	warn   *log.Logger
	errLog *log.Logger
}

// New creates a logger with the given level, writing to the given output.
// If out is nil, os.Stderr is used.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return newLogger(&sink{level: level, out: out}, "")
}

func newLogger(s *sink, prefix string) *Logger {
	flags := log.Ltime | log.Lmsgprefix
	tag := ""
	if prefix != "" {
		tag = prefix + ": "
	}
	return &Logger{
		sink:   s,
		prefix: prefix,
		debug:  log.New(s.out, "[DBG] "+tag, flags),
		info:   log.New(s.out, "[INF] "+tag, flags),
		warn:   log.New(s.out, "[WRN] "+tag, flags),
		errLog: log.New(s.out, "[ERR] "+tag, flags),
	}
}

// Named returns a child logger whose lines carry a component prefix.
// Nested names are joined with a dot.
func (l *Logger) Named(component string) *Logger {
	name := component
	if l.prefix != "" {
		name = l.prefix + "." + component
	}
	return newLogger(l.sink, name)
}

// RedirectStdlib sends the standard library's default logger to the
// same writer, so third-party log.Printf calls land next to ours.
func (l *Logger) RedirectStdlib() {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()
	if l.sink.level == LevelOff {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(l.sink.out)
	log.SetFlags(log.Ltime)
	log.SetPrefix("[STD] ")
}

// SetLevel changes the log level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()
	return l.sink.level
}

func (l *Logger) output(min Level, dst *log.Logger, format string, args ...any) {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()
	if l.sink.level >= min {
		dst.Output(3, fmt.Sprintf(format, args...))
	}
}

// Debug logs a message at debug level (only visible in verbose mode).
func (l *Logger) Debug(format string, args ...any) {
	l.output(LevelVerbose, l.debug, format, args...)
}

// Info logs a message at info level.
func (l *Logger) Info(format string, args ...any) {
	l.output(LevelNormal, l.info, format, args...)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(format string, args ...any) {
	l.output(LevelNormal, l.warn, format, args...)
}

// Error logs a message at error level.
func (l *Logger) Error(format string, args ...any) {
	l.output(LevelNormal, l.errLog, format, args...)
}
