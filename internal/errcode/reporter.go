package errcode

import (
	"fmt"

	"github.com/fatih/color"
)

// Level mirrors internal/errors.ErrorLevel, trimmed to the two severities
// the comparator actually produces.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
)

// Diagnostic is a single reported problem: a code from this package, a
// level, a message, and the file it concerns (patterns and .sdir modules
// carry no meaningful column/line span worth reproducing here, unlike the
// source-level CompilerError the teacher formats).
type Diagnostic struct {
	Level Level
	Code  string
	File  string
	Msg   string
}

// Sink is where a Diagnostic goes once raised. PatternSet loading (§6's
// "on-parse-failure: warn|abort") is the one place the core needs two
// interchangeable sinks for the same diagnostic.
type Sink interface {
	Report(d Diagnostic) error
}

// WarnSink formats and logs every diagnostic, in the teacher's
// level-colored "error[D0100]: message" style, and never fails the run.
type WarnSink struct{}

func (WarnSink) Report(d Diagnostic) error {
	fmt.Println(Format(d))
	return nil
}

// AbortSink formats the diagnostic and returns it as an error, aborting
// whatever load loop called Report.
type AbortSink struct{}

func (AbortSink) Report(d Diagnostic) error {
	fmt.Println(Format(d))
	return fmt.Errorf("%s: [%s] %s", d.File, d.Code, d.Msg)
}

// Format renders a Diagnostic the way internal/errors.ErrorReporter
// renders a CompilerError's header line, without the source-context body
// (the comparator's diagnostics concern whole functions/modules, not a
// single span).
func Format(d Diagnostic) string {
	levelColor := color.New(color.FgRed, color.Bold).SprintFunc()
	if d.Level == Warning {
		levelColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return fmt.Sprintf("%s[%s]: %s (%s)", levelColor(string(d.Level)), d.Code, d.Msg, d.File)
}
