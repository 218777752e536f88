// Package irtext is the textual module format + pattern-module loader
// (SPEC_FULL.md "internal/irtext"): a small human-writable IR assembly
// format (".sdir") that gives the comparator core two things the
// distilled spec leaves entirely to "the host" — a way to load pattern
// modules (spec.md §4.4/§6) and a way for tests and cmd/semdiff to get
// two *ir.Module values from disk without a source-language front end
// (explicitly out of scope per spec.md §1).
//
// Parsed with participle/v2 exactly as the teacher parses Kanso source
// (grammar/grammar.go, grammar/lexer.go), generalized from module/struct/
// function source syntax to module/struct/global/function IR syntax.
package irtext

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer mirrors grammar.KansoLexer's shape (ordered rule table, comments
// before identifiers, punctuation after operators) generalized with a
// String rule for file names, asm bodies, and string-constant operands,
// which the Kanso lexer never needed.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		// IntType ("i32", "i1", ...) must be tried before Ident so a
		// bitwidth type lexes as one token instead of colliding with the
		// general identifier rule.
		{"IntType", `i[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_.-]*`, nil},
		{"Integer", `-?[0-9]+`, nil},
		{"Punctuation", `[{}\[\]():,=!%@]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
