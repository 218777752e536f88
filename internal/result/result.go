// Package result defines the data-model types spec.md §3 describes as the
// comparator's output: Result, NonFunctionDifference (SyntaxDifference /
// TypeDifference), CallStack, FunctionInfo, and MissingDef. It has no
// dependency on the comparator packages so that internal/compare,
// internal/patternmatch, and internal/modcompare can all produce these
// values without an import cycle.
package result

import "kanso/internal/ir"

// Kind is the comparator's verdict for one function pair (spec.md §3
// "Result").
type Kind int

const (
	Equal Kind = iota
	AssumedEqual
	NotEqual
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "Equal"
	case AssumedEqual:
		return "AssumedEqual"
	case NotEqual:
		return "NotEqual"
	case Unknown:
		return "Unknown"
	default:
		return "?"
	}
}

// FunctionInfo describes one side of a compared pair: name, debug
// location, and outgoing call set with call-site locations.
type FunctionInfo struct {
	Name  string
	File  string
	Line  int
	Calls []CallSite
}

type CallSite struct {
	Callee string
	File   string
	Line   int
}

// CallStack traces how a difference was reached from the top-level
// compared function, as an ordered sequence of (callee, file, line)
// triples (spec.md §3 "CallStack").
type CallStack []Frame

type Frame struct {
	Callee string
	File   string
	Line   int
}

// NonFunctionDifference is implemented by SyntaxDifference and
// TypeDifference (spec.md §3 "sum of").
type NonFunctionDifference interface {
	nonFunctionDifference()
}

// SyntaxDifference is a named pair of differing textual bodies (macro
// expansions or inline-asm blobs) plus the two call-stacks that located
// the use.
type SyntaxDifference struct {
	Name   string
	BodyL  string
	BodyR  string
	StackL CallStack
	StackR CallStack
}

func (SyntaxDifference) nonFunctionDifference() {}

// TypeDifference is a differing aggregate type used at corresponding
// positions, with the two definition sites.
type TypeDifference struct {
	Name  string
	LocL  ir.SourceLoc
	LocR  ir.SourceLoc
}

func (TypeDifference) nonFunctionDifference() {}

// MissingDef records a callee that existed only as a declaration when
// inlining was attempted (spec.md §3 "MissingDef"). Exactly one of Left /
// Right is non-nil, naming the side lacking a body; a callee that resolves
// to no function at all produces no MissingDef.
type MissingDef struct {
	Left  *ir.Function
	Right *ir.Function
}

// Result is the full outcome of comparing one function pair.
type Result struct {
	Kind        Kind
	Left        FunctionInfo
	Right       FunctionInfo
	Differences []NonFunctionDifference
	Missing     []MissingDef
	// PreInlineKind records the verdict produced before any inlining
	// iteration succeeded, for diagnostics (spec.md §9 Design Notes, Open
	// Question: "expose the pre-inline verdict in diagnostics").
	PreInlineKind Kind
}
