package ir

import (
	"fmt"
	"io"
	"os"
)

// Verify performs integrity checking of a function's representation: every
// block ends in exactly one terminator and every referenced successor
// block belongs to the function. Instruction IDs are not checked.
// Diagnostics go to reporter, or os.Stderr if reporter is nil. Grounded on
// the sanity checker pattern used by the Go team's own SSA package
// (go/ssa's sanityCheck), adapted to this repository's instruction set;
// the comparator's walk assumes well-formed input but does not call Verify
// itself, and only the tests run it.
func Verify(f *Function, reporter io.Writer) []string {
	if reporter == nil {
		reporter = os.Stderr
	}
	v := &verifier{fn: f, reporter: reporter}
	v.checkFunction()
	return v.problems
}

type verifier struct {
	fn       *Function
	reporter io.Writer
	block    *BasicBlock
	problems []string
}

func (v *verifier) diagnostic(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	loc := fmt.Sprintf("function %s", v.fn.Name)
	if v.block != nil {
		loc += fmt.Sprintf(", block %s", v.block.Label)
	}
	full := loc + ": " + msg
	v.problems = append(v.problems, full)
	fmt.Fprintln(v.reporter, full)
}

func (v *verifier) checkFunction() {
	if v.fn.Decl {
		if len(v.fn.Blocks) != 0 {
			v.diagnostic("declaration has a body")
		}
		return
	}
	if len(v.fn.Blocks) == 0 {
		v.diagnostic("definition has no blocks")
		return
	}

	known := make(map[*BasicBlock]bool, len(v.fn.Blocks))
	for _, b := range v.fn.Blocks {
		known[b] = true
	}

	for _, b := range v.fn.Blocks {
		v.block = b
		v.checkBlock(b, known)
	}
	v.block = nil
}

func (v *verifier) checkBlock(b *BasicBlock, known map[*BasicBlock]bool) {
	if len(b.Insts) == 0 {
		v.diagnostic("empty block")
		return
	}

	for i, inst := range b.Insts {
		isLast := i == len(b.Insts)-1
		if inst.IsTerminator() != isLast {
			if isLast {
				v.diagnostic("block does not end in a terminator")
			} else {
				v.diagnostic("non-terminal instruction %d is a terminator", i)
			}
		}
	}

	term, ok := b.Terminator().(Terminator)
	if !ok {
		return
	}
	for _, succ := range term.Successors() {
		if succ != nil && !known[succ] {
			v.diagnostic("terminator references block %q outside the function", succ.Label)
		}
	}
}
