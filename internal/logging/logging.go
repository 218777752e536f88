// Package logging is a small leveled shim over the standard log package,
// colorized with github.com/fatih/color in the teacher's own idiom
// (cmd/kanso-lsp/main.go's bare log.Println calls, color.Red/color.Green
// for CLI output). SPEC_FULL.md's AMBIENT STACK calls this out
// deliberately: the teacher never reaches for a structured logging
// library, so matching its own texture is the right fidelity target here
// rather than adopting one of the pack's (DESIGN.md explains the
// rejection of github.com/opencoff/go-logger).
package logging

import (
	"log"
	"os"

	"github.com/fatih/color"
)

// Level selects what gets printed; Warn is the default floor so a bare
// run stays quiet about routine inlining-iteration traces.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var std = log.New(os.Stderr, "", log.LstdFlags)

// Logger is the handle every package holding a long-lived run (the CLI
// driver, the LSP server) keeps; New returns one that logs at Warn and
// above, while the zero value logs at every level.
type Logger struct {
	level  Level
	prefix string
}

// New returns a Logger tagged with prefix (e.g. "semdiff", "semdiff-watch"),
// printed before every line so output from the CLI and the LSP server's
// stderr trace is distinguishable when both run side by side.
func New(prefix string) *Logger {
	return &Logger{level: Warn, prefix: prefix}
}

// SetLevel changes the floor below which Debug/Info calls are dropped.
func (l *Logger) SetLevel(level Level) { l.level = level }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(Debug, color.New(color.FgHiBlack), format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(Info, color.New(color.FgCyan), format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(Warn, color.New(color.FgYellow, color.Bold), format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(Error, color.New(color.FgRed, color.Bold), format, args...)
}

func (l *Logger) logf(level Level, c *color.Color, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	msg := c.Sprintf(format, args...)
	if l.prefix != "" {
		std.Printf("[%s] %s", l.prefix, msg)
		return
	}
	std.Printf("%s", msg)
}
