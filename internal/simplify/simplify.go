// Package simplify provides the one concrete implementation of the
// per-module simplification pipeline spec.md §1 names as an external
// collaborator and §6 specifies by pre/post-contract: the Simplifier run
// between inlining iterations, the Inliner the Module Comparator drives,
// and the unused-return-value rewriter pre-pass. The core
// (internal/modcompare) depends only on the Simplifier/Inliner
// interfaces below, never on this package's concrete types, matching
// spec.md §1's "described only by the interfaces the core consumes".
package simplify

import "kanso/internal/ir"

// Simplifier matches spec.md §6: "precondition: function has a body.
// Postcondition: dead and obviously-redundant instructions removed, CFG
// normalized; no observable behavior change. Must not alter function
// signature."
type Simplifier interface {
	Simplify(f *ir.Function)
}

// Inliner matches spec.md §6: "best-effort; returns whether the call was
// replaced with the callee's body. Intrinsics and declarations must not
// be passed in."
type Inliner interface {
	Inline(caller *ir.Function, call *ir.CallInst, callee *ir.Function) bool
}

// DefaultSimplifier is a best-effort simplifier over internal/ir: it
// removes side-effect-free instructions whose results go unused, drops
// basic blocks no longer reachable from the entry block, folds phis with a
// single incoming edge, and merges straight-line block pairs. Grounded
// on the teacher's own multi-pass analyzer shape (internal/semantic runs
// a fixed sequence of independent passes over one AST); here the passes
// are dead-instruction elimination, unreachable-block elimination,
// trivial-phi elimination and block merging, run to a fixpoint since
// removing one dead instruction or block can make another one dead in turn.
type DefaultSimplifier struct{}

func (DefaultSimplifier) Simplify(f *ir.Function) {
	if len(f.Blocks) == 0 {
		return
	}
	for {
		removedInsts := eliminateDeadInstructions(f)
		removedBlocks := eliminateUnreachableBlocks(f)
		foldedPhis := eliminateTrivialPhis(f)
		mergedBlocks := mergeStraightLineBlocks(f)
		if !removedInsts && !removedBlocks && !foldedPhis && !mergedBlocks {
			return
		}
	}
}

// eliminateTrivialPhis replaces a Phi with exactly one incoming edge by
// its sole incoming value everywhere it is used, then drops the Phi. This
// is what keeps a just-inlined single-return-site callee from leaving
// behind a Phi the Differential Function Comparator's structural walk has
// no counterpart for on the other side (spec.md §6 "CFG normalized").
func eliminateTrivialPhis(f *ir.Function) bool {
	changed := false
	for _, b := range f.Blocks {
		kept := b.Insts[:0]
		for _, inst := range b.Insts {
			phi, ok := inst.(*ir.PhiInst)
			if ok && len(phi.Incoming) == 1 && phi.Res != nil {
				substituteValue(f, phi.Res, phi.Incoming[0].Value)
				changed = true
				continue
			}
			kept = append(kept, inst)
		}
		b.Insts = kept
	}
	return changed
}

// substituteValue rewrites every operand referencing old (as an argument
// or instruction-result reference) to replacement, across every
// instruction in f.
func substituteValue(f *ir.Function, old *ir.Value, replacement ir.Operand) {
	replace := func(op ir.Operand) ir.Operand {
		if op.Kind != ir.OperandArg && op.Kind != ir.OperandInstRef {
			return op
		}
		v := op.Arg
		if v == nil {
			v = op.Inst
		}
		if v == old {
			return replacement
		}
		return op
	}
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			switch v := inst.(type) {
			case *ir.BinaryInst:
				v.Left, v.Right = replace(v.Left), replace(v.Right)
			case *ir.ICmpInst:
				v.Left, v.Right = replace(v.Left), replace(v.Right)
			case *ir.LoadInst:
				v.Addr = replace(v.Addr)
			case *ir.StoreInst:
				v.Val, v.Addr = replace(v.Val), replace(v.Addr)
			case *ir.CallInst:
				for i := range v.Args {
					v.Args[i] = replace(v.Args[i])
				}
			case *ir.CastInst:
				v.Value = replace(v.Value)
			case *ir.PhiInst:
				for i := range v.Incoming {
					v.Incoming[i].Value = replace(v.Incoming[i].Value)
				}
			case *ir.GetElementPtrInst:
				v.Base = replace(v.Base)
				for i := range v.Indices {
					v.Indices[i] = replace(v.Indices[i])
				}
			case *ir.InlineAsmInst:
				for i := range v.Args {
					v.Args[i] = replace(v.Args[i])
				}
			case *ir.BranchInst:
				if !v.Unconditional {
					v.Cond = replace(v.Cond)
				}
			case *ir.SwitchInst:
				v.Value = replace(v.Value)
				for i := range v.Cases {
					v.Cases[i].Value = replace(v.Cases[i].Value)
				}
			case *ir.ReturnInst:
				if v.Value != nil {
					r := replace(*v.Value)
					v.Value = &r
				}
			}
		}
	}
}

// mergeStraightLineBlocks folds a block into its sole predecessor when
// that predecessor's only exit is an unconditional branch to it (spec.md
// §6 "CFG normalized") — the shape an inlined callee with one return site
// always leaves behind (entry -> callee body -> continuation).
func mergeStraightLineBlocks(f *ir.Function) bool {
	changed := false
	for {
		preds := countPredecessors(f)
		merged := false
		for _, b := range f.Blocks {
			br, ok := b.Terminator().(*ir.BranchInst)
			if !ok || !br.Unconditional || br.TrueBB == nil {
				continue
			}
			target := br.TrueBB
			if target == b || target == f.Blocks[0] || preds[target] != 1 {
				continue
			}
			b.Insts = append(b.Insts[:len(b.Insts)-1], target.Insts...)
			removeBlock(f, target)
			merged, changed = true, true
			break
		}
		if !merged {
			return changed
		}
	}
}

func countPredecessors(f *ir.Function) map[*ir.BasicBlock]int {
	preds := make(map[*ir.BasicBlock]int)
	for _, b := range f.Blocks {
		term, ok := b.Terminator().(ir.Terminator)
		if !ok {
			continue
		}
		for _, succ := range term.Successors() {
			if succ != nil {
				preds[succ]++
			}
		}
	}
	return preds
}

func removeBlock(f *ir.Function, target *ir.BasicBlock) {
	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if b != target {
			kept = append(kept, b)
		}
	}
	f.Blocks = kept
}

func eliminateDeadInstructions(f *ir.Function) bool {
	uses := ir.ComputeUses(f)
	changed := false
	for _, b := range f.Blocks {
		kept := b.Insts[:0]
		for _, inst := range b.Insts {
			if inst.IsTerminator() {
				kept = append(kept, inst)
				continue
			}
			if inst.Result() != nil && !uses.IsUsed(inst.Result()) && !ir.HasSideEffects(inst) {
				changed = true
				continue
			}
			kept = append(kept, inst)
		}
		b.Insts = kept
	}
	return changed
}

func eliminateUnreachableBlocks(f *ir.Function) bool {
	if len(f.Blocks) == 0 {
		return false
	}
	reachable := map[*ir.BasicBlock]bool{f.Blocks[0]: true}
	queue := []*ir.BasicBlock{f.Blocks[0]}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		term, ok := b.Terminator().(ir.Terminator)
		if !ok {
			continue
		}
		for _, succ := range term.Successors() {
			if succ != nil && !reachable[succ] {
				reachable[succ] = true
				queue = append(queue, succ)
			}
		}
	}

	changed := false
	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if reachable[b] {
			kept = append(kept, b)
		} else {
			changed = true
		}
	}
	f.Blocks = kept
	return changed
}
