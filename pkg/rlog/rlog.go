// Package rlog wraps the standard log package with leveled prefixes, mirroring
// the teacher's "log but continue" idiom: background failures are logged and
// swallowed rather than propagated, since most of them (tier demotion races,
// WAL tail corruption, cold-tier unavailability) are expected and recoverable.
package rlog

import (
	"log"
	"os"
)

// Logger is the minimal leveled logger used throughout resonantdb.
type Logger struct {
	prefix string
	std    *log.Logger
}

// New creates a Logger that writes to stderr with the given component prefix.
func New(component string) *Logger {
	return &Logger{
		prefix: component,
		std:    log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.std.Printf("[INFO] "+l.prefix+": "+format, args...)
}
func (l *Logger) Warnf(format string, args ...any) {
	l.std.Printf("[WARN] "+l.prefix+": "+format, args...)
}
func (l *Logger) Errorf(format string, args ...any) {
	l.std.Printf("[ERROR] "+l.prefix+": "+format, args...)
}

// Noop returns a Logger writing to io.Discard, for tests that don't want
// console noise.
func Noop() *Logger {
	l := New("")
	l.std.SetOutput(discard{})
	return l
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
