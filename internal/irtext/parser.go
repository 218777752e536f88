package irtext

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"kanso/internal/ir"
)

var sdirParser = participle.MustBuild[fileSyn](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// ParseFile reads and parses a .sdir module file into an *ir.Module.
func ParseFile(path string) (*ir.Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("irtext: read %s: %w", path, err)
	}
	return ParseString(path, string(source))
}

// ParseString parses .sdir source text already held in memory (used by
// tests and cmd/semdiff fixtures alike), reporting syntax errors with the
// same caret-style formatting grammar.ParseFile uses for Kanso source.
func ParseString(filename, source string) (*ir.Module, error) {
	fs, err := sdirParser.ParseString(filename, source)
	if err != nil {
		reportParseError(filename, source, err)
		return nil, fmt.Errorf("irtext: parse %s: %w", filename, err)
	}
	return build(fs)
}

func reportParseError(filename, src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("irtext: unexpected error in %s: %s", filename, err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("irtext: syntax error in %s at unknown location: %s", filename, err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", max(pos.Column-1, 0)) + "^"

	color.Red("irtext: syntax error in %s at line %d, column %d:", filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message())
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
