// Package compare implements the Function Comparator (spec.md §4.2): a
// generic lockstep structural walker over two functions' basic-block
// graphs, overridable at three hook points (cmp_operations_with_operands,
// cmp_basic_blocks, cmp_global_values) so that the Differential Function
// Comparator (differential.go) and the Pattern Matcher
// (internal/patternmatch) can share one walk algorithm instead of each
// re-implementing it, per spec.md §9 Design Notes: "Implement via a base
// walker exposing those hooks; do not flatten into one giant switch."
package compare

import (
	"kanso/internal/correspond"
	"kanso/internal/ir"
)

// Hooks lets a specialization intercept the three decision points spec.md
// §4.2 names.
//
// Instruction is consulted at every cursor position (li, ri) into bl/br's
// instruction streams. Returning handled=false asks the base walker to run
// its own structural default and advance both cursors by one. Returning
// handled=true supplies the verdict directly and advances each cursor by
// advanceL/advanceR (both become 1 only when both are zero) — this is how a
// benign pattern "optionally skips instructions" (spec.md §4.3) on one or
// both sides, e.g. when a callee was inlined on only one side. The loop
// runs until both cursors sit on their blocks' terminators.
type Hooks interface {
	Instruction(w *Walker, bl, br *ir.BasicBlock, li, ri int) (handled, equal bool, advanceL, advanceR int)
	Block(w *Walker, bl, br *ir.BasicBlock) (handled, equal bool)
	GlobalValue(w *Walker, lname, rname string) (handled, equal bool)
}

// DefaultHooks implements Hooks by always falling through to the base
// walker's structural comparison; it is what the plain (non-differential)
// Function Comparator uses.
type DefaultHooks struct{}

func (DefaultHooks) Instruction(*Walker, *ir.BasicBlock, *ir.BasicBlock, int, int) (bool, bool, int, int) {
	return false, false, 0, 0
}
func (DefaultHooks) Block(*Walker, *ir.BasicBlock, *ir.BasicBlock) (bool, bool) { return false, false }
func (DefaultHooks) GlobalValue(*Walker, string, string) (bool, bool)          { return false, false }

// blockPair is one entry of the walker's worklist.
type blockPair struct {
	l, r *ir.BasicBlock
}

// Walker drives one structural comparison of two functions. A fresh Walker
// (and fresh Correspondence) must be used per top-level function-pair
// comparison (spec.md §3 "Invariants").
type Walker struct {
	Corr  *correspond.Correspondence
	Hooks Hooks

	visited map[*ir.BasicBlock]bool
}

func NewWalker(hooks Hooks) *Walker {
	if hooks == nil {
		hooks = DefaultHooks{}
	}
	return &Walker{
		Corr:    correspond.New(),
		Hooks:   hooks,
		visited: make(map[*ir.BasicBlock]bool),
	}
}

// Compare implements spec.md §4.2's algorithm. It returns true when the
// two functions are structurally equal modulo the accumulated
// correspondence and whatever the active Hooks chose to treat as benign.
func (w *Walker) Compare(fl, fr *ir.Function) bool {
	if !w.compareSignature(fl, fr) {
		return false
	}

	if fl.Decl || fr.Decl {
		// Both-declaration / mixed-declaration handling belongs to the
		// Module Comparator (spec.md §4.5 "Declaration fast path"); by
		// the time a Walker is invoked, both sides are expected to have
		// bodies.
		return fl.Decl == fr.Decl
	}

	for i, p := range fl.Params {
		w.Corr.Relate(p.Val, fr.Params[i].Val)
	}

	queue := []blockPair{{fl.Entry(), fr.Entry()}}

	for len(queue) > 0 {
		pair := queue[0]
		queue = queue[1:]

		if w.visited[pair.l] {
			continue
		}
		w.visited[pair.l] = true

		if !w.compareBlockPair(pair.l, pair.r, &queue) {
			return false
		}
	}

	return true
}

func (w *Walker) compareSignature(fl, fr *ir.Function) bool {
	if len(fl.Params) != len(fr.Params) {
		return false
	}
	for i := range fl.Params {
		if !w.Corr.RelateTypes(fl.Params[i].Type, fr.Params[i].Type) {
			return false
		}
	}
	if !w.Corr.RelateTypes(fl.RetType, fr.RetType) {
		return false
	}
	if fl.Vararg != fr.Vararg {
		return false
	}
	if fl.CallConv != fr.CallConv {
		return false
	}
	return true
}

func (w *Walker) compareBlockPair(bl, br *ir.BasicBlock, queue *[]blockPair) bool {
	if handled, equal := w.Hooks.Block(w, bl, br); handled {
		if !equal {
			return false
		}
	}

	if correspond.Conflict == w.Corr.RelateBlocks(bl, br) {
		return false
	}

	li, ri := 0, 0
	for li < len(bl.Insts) && ri < len(br.Insts) {
		if bl.Insts[li].IsTerminator() && br.Insts[ri].IsTerminator() {
			break
		}

		handled, equal, advanceL, advanceR := w.Hooks.Instruction(w, bl, br, li, ri)
		if handled {
			if !equal {
				return false
			}
		} else {
			if !w.CompareInstructionDefault(bl.Insts[li], br.Insts[ri]) {
				return false
			}
			advanceL, advanceR = 1, 1
		}
		if advanceL == 0 && advanceR == 0 {
			advanceL, advanceR = 1, 1
		}
		li += advanceL
		ri += advanceR
	}

	// spec.md §4.2 step 4: both blocks must end at the same
	// instruction-stream position (the non-terminator prefix fully
	// consumed on both sides) before comparing terminators.
	if li != len(bl.Insts)-1 || ri != len(br.Insts)-1 {
		return false
	}
	if !w.CompareInstructionDefault(bl.Insts[li], br.Insts[ri]) {
		return false
	}

	lt, lok := bl.Terminator().(ir.Terminator)
	rt, rok := br.Terminator().(ir.Terminator)
	if lok != rok {
		return false
	}
	if lok {
		ls, rs := lt.Successors(), rt.Successors()
		if len(ls) != len(rs) {
			return false
		}
		for i := range ls {
			if ls[i] == nil || rs[i] == nil {
				if ls[i] != rs[i] {
					return false
				}
				continue
			}
			*queue = append(*queue, blockPair{ls[i], rs[i]})
		}
	}

	return true
}

// CompareSubWalk is the bounded, mid-block walk the Pattern Matcher
// (internal/patternmatch) drives (spec.md §4.4): starting at (li, ri)
// within a single block pair, it compares instructions one at a time via
// CompareInstructionDefault until isEnd reports the pair it just compared
// is the match's terminal instruction. It does not follow successor
// blocks — patterns spanning more than one basic block are out of scope
// for this implementation (see DESIGN.md).
func (w *Walker) CompareSubWalk(bl, br *ir.BasicBlock, li, ri int, isEnd func(l, r ir.Instruction) bool) (ok bool, consumedL, consumedR int) {
	startLi, startRi := li, ri
	for li < len(bl.Insts) && ri < len(br.Insts) {
		l, r := bl.Insts[li], br.Insts[ri]
		end := isEnd(l, r)
		if !w.CompareInstructionDefault(l, r) {
			return false, 0, 0
		}
		li++
		ri++
		if end {
			return true, li - startLi, ri - startRi
		}
	}
	return false, 0, 0
}

// CompareInstructionDefault is the base structural comparison spec.md
// §4.2 step 3 describes: opcode, operand count, result type, and
// opcode-specific attributes, then each operand by kind.
func (w *Walker) CompareInstructionDefault(il, irr ir.Instruction) bool {
	if il.Op() != irr.Op() {
		return false
	}
	return w.CompareInstructionRelaxed(il, irr, il.Attrs() == irr.Attrs())
}

// CompareInstructionRelaxed runs the same structural comparison as
// CompareInstructionDefault but lets the caller decide attribute equality
// itself, so a benign-pattern rule (e.g. "struct-alignment": two loads
// differing only in Align) can mask out the one attribute field it treats
// as immaterial before delegating the rest of the match. Callers that
// diverge only on Op() must still reject the pair themselves; this helper
// assumes the opcodes already match.
func (w *Walker) CompareInstructionRelaxed(il, irr ir.Instruction, attrsEqual bool) bool {
	if !attrsEqual {
		return false
	}

	lres, rres := il.Result(), irr.Result()
	if (lres == nil) != (rres == nil) {
		return false
	}
	if lres != nil {
		if !w.Corr.RelateTypes(lres.Type, rres.Type) {
			return false
		}
	}

	lops, rops := il.Operands(), irr.Operands()
	if len(lops) != len(rops) {
		return false
	}
	for i := range lops {
		if !w.CompareOperand(lops[i], rops[i]) {
			return false
		}
	}

	// Establish the result correspondence only after the instruction
	// itself has matched structurally, so a failed match never leaves a
	// partial, misleading binding behind.
	if lres != nil {
		if correspond.Conflict == w.Corr.Relate(lres, rres) {
			return false
		}
	}

	return compareOpSpecific(il, irr)
}

func (w *Walker) CompareOperand(l, r ir.Operand) bool {
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case ir.OperandConst:
		return w.Corr.RelateTypes(l.ConstType, r.ConstType) && l.ConstValue == r.ConstValue
	case ir.OperandArg, ir.OperandInstRef:
		lv, rv := operandValue(l), operandValue(r)
		if lv == nil || rv == nil {
			return lv == rv
		}
		if existing, ok := w.Corr.LookupLeft(lv); ok {
			return existing == rv
		}
		return correspond.Conflict != w.Corr.Relate(lv, rv)
	case ir.OperandGlobal:
		if handled, equal := w.Hooks.GlobalValue(w, l.GlobalName, r.GlobalName); handled {
			return equal
		}
		return l.GlobalName == r.GlobalName
	case ir.OperandBlock:
		if l.Block == nil || r.Block == nil {
			return l.Block == r.Block
		}
		if existing, ok := w.Corr.LookupBlockLeft(l.Block); ok {
			return existing == r.Block
		}
		return correspond.Conflict != w.Corr.RelateBlocks(l.Block, r.Block)
	case ir.OperandMetadata:
		return l.MetaName == r.MetaName && l.MetaValue == r.MetaValue
	default:
		return false
	}
}

func operandValue(o ir.Operand) *ir.Value {
	if o.Arg != nil {
		return o.Arg
	}
	return o.Inst
}

// compareOpSpecific compares fields CompareInstructionDefault's generic
// pass can't see through the Instruction interface (e.g. a phi's
// predecessor-block identity, a call's callee name). Opcodes not listed
// here are fully captured by Operands()/Attrs()/Result().
func compareOpSpecific(il, irr ir.Instruction) bool {
	switch l := il.(type) {
	case *ir.CallInst:
		r := irr.(*ir.CallInst)
		return l.Callee == r.Callee
	case *ir.PhiInst:
		r := irr.(*ir.PhiInst)
		if len(l.Incoming) != len(r.Incoming) {
			return false
		}
		for i := range l.Incoming {
			if l.Incoming[i].Block.Label != r.Incoming[i].Block.Label {
				return false
			}
		}
		return true
	case *ir.CastInst:
		r := irr.(*ir.CastInst)
		return l.Kind == r.Kind
	case *ir.InlineAsmInst:
		r := irr.(*ir.InlineAsmInst)
		return l.AsmBody == r.AsmBody
	default:
		return true
	}
}
