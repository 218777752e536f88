package simplify

import (
	"fmt"

	"kanso/internal/ir"
)

// DefaultInliner is a best-effort Inliner (spec.md §6): it splices a
// callee's cloned body in place of one call instruction, converting the
// callee's return sites into branches to a synthesized continuation
// block that carries on with whatever followed the call. The call's own
// result Value is reused as a Phi's result in the continuation, so every
// existing reference to it elsewhere in the caller keeps resolving
// without a separate rewrite pass over the rest of the function.
//
// Known scope limits, acceptable for a best-effort collaborator (spec.md
// §6 calls the contract itself "best-effort"): exception/unwind edges
// are not modeled (this IR has none), and a callee with zero return
// sites (only unreachable terminators) leaves a call result Value
// unresolved — this cannot happen for a well-formed module where the
// call's result type matches the callee's declared, non-void return
// type.
type DefaultInliner struct {
	counter int
}

func (d *DefaultInliner) Inline(caller *ir.Function, call *ir.CallInst, callee *ir.Function) bool {
	if callee.Decl || call.Intrinsic || callee == caller && !recursionSupported {
		return false
	}

	site := locateCallSite(caller, call)
	if site == nil {
		return false
	}

	d.counter++
	tag := fmt.Sprintf(".inl%d", d.counter)

	contLabel := site.block.Label + tag + ".cont"
	cont := &ir.BasicBlock{Label: contLabel}

	valueMap := make(map[*ir.Value]*ir.Value)
	blockMap := make(map[*ir.BasicBlock]*ir.BasicBlock)
	for _, b := range callee.Blocks {
		nb := &ir.BasicBlock{Label: b.Label + tag}
		blockMap[b] = nb
		for _, inst := range b.Insts {
			if r := inst.Result(); r != nil {
				valueMap[r] = &ir.Value{ID: r.ID, Name: r.Name + tag, Type: r.Type}
			}
		}
	}

	argSubst := make(map[*ir.Value]ir.Operand, len(callee.Params))
	for i, p := range callee.Params {
		if i < len(call.Args) {
			argSubst[p.Val] = call.Args[i]
		}
	}

	resolve := func(op ir.Operand) ir.Operand {
		switch op.Kind {
		case ir.OperandArg:
			if repl, ok := argSubst[op.Arg]; ok {
				return repl
			}
			return op
		case ir.OperandInstRef:
			if nv, ok := valueMap[op.Inst]; ok {
				return ir.Operand{Kind: ir.OperandInstRef, Inst: nv}
			}
			return op
		case ir.OperandBlock:
			if nb, ok := blockMap[op.Block]; ok {
				return ir.Operand{Kind: ir.OperandBlock, Block: nb}
			}
			return op
		default:
			return op
		}
	}
	resolveBlock := func(b *ir.BasicBlock) *ir.BasicBlock {
		if b == nil {
			return nil
		}
		if nb, ok := blockMap[b]; ok {
			return nb
		}
		return b
	}

	var returnSites []ir.PhiEdge
	newBlocks := make([]*ir.BasicBlock, 0, len(callee.Blocks))
	for _, b := range callee.Blocks {
		nb := blockMap[b]
		for _, inst := range b.Insts {
			if ret, ok := inst.(*ir.ReturnInst); ok {
				if ret.Value != nil {
					returnSites = append(returnSites, ir.PhiEdge{Value: resolve(*ret.Value), Block: nb})
				}
				nb.Insts = append(nb.Insts, &ir.BranchInst{Unconditional: true, TrueBB: cont})
				continue
			}
			nb.Insts = append(nb.Insts, cloneCalleeInst(inst, valueMap[inst.Result()], resolve, resolveBlock))
		}
		newBlocks = append(newBlocks, nb)
	}

	if call.Res != nil && len(returnSites) > 0 {
		cont.Insts = append(cont.Insts, &ir.PhiInst{Res: call.Res, Incoming: returnSites})
	}
	cont.Insts = append(cont.Insts, site.block.Insts[site.index+1:]...)

	site.block.Insts = append(site.block.Insts[:site.index:site.index],
		&ir.BranchInst{Unconditional: true, TrueBB: newBlocks[0]})

	caller.Blocks = append(caller.Blocks, newBlocks...)
	caller.Blocks = append(caller.Blocks, cont)

	return true
}

// recursionSupported guards against inlining a function into itself,
// which this splice strategy (a single fresh clone, not an unbounded
// unrolling) cannot terminate correctly for direct self-recursion.
const recursionSupported = false

type callSite struct {
	block *ir.BasicBlock
	index int
}

func locateCallSite(f *ir.Function, call *ir.CallInst) *callSite {
	for _, b := range f.Blocks {
		for i, inst := range b.Insts {
			if inst == ir.Instruction(call) {
				return &callSite{block: b, index: i}
			}
		}
	}
	return nil
}

// cloneCalleeInst builds one instruction for the inlined clone: same
// opcode and attributes as inst, operands and any block-typed fields
// resolved against the caller's context via resolve/resolveBlock, and
// result stamped with newRes (nil when inst has no result).
func cloneCalleeInst(inst ir.Instruction, newRes *ir.Value, resolve func(ir.Operand) ir.Operand, resolveBlock func(*ir.BasicBlock) *ir.BasicBlock) ir.Instruction {
	switch v := inst.(type) {
	case *ir.BinaryInst:
		return &ir.BinaryInst{Res: newRes, Op_: v.Op_, Left: resolve(v.Left), Right: resolve(v.Right)}
	case *ir.ICmpInst:
		return &ir.ICmpInst{Res: newRes, Predicate: v.Predicate, Left: resolve(v.Left), Right: resolve(v.Right)}
	case *ir.LoadInst:
		return &ir.LoadInst{Res: newRes, Addr: resolve(v.Addr), Align: v.Align, Volatile: v.Volatile}
	case *ir.StoreInst:
		return &ir.StoreInst{Val: resolve(v.Val), Addr: resolve(v.Addr), Align: v.Align, Volatile: v.Volatile}
	case *ir.AllocaInst:
		return &ir.AllocaInst{Res: newRes, Align: v.Align}
	case *ir.CallInst:
		args := make([]ir.Operand, len(v.Args))
		for i, a := range v.Args {
			args[i] = resolve(a)
		}
		return &ir.CallInst{Res: newRes, Callee: v.Callee, Args: args, Intrinsic: v.Intrinsic}
	case *ir.CastInst:
		return &ir.CastInst{Res: newRes, Kind: v.Kind, Value: resolve(v.Value), FromType: v.FromType, ToType: v.ToType}
	case *ir.PhiInst:
		incoming := make([]ir.PhiEdge, len(v.Incoming))
		for i, e := range v.Incoming {
			incoming[i] = ir.PhiEdge{Value: resolve(e.Value), Block: resolveBlock(e.Block)}
		}
		return &ir.PhiInst{Res: newRes, Incoming: incoming}
	case *ir.GetElementPtrInst:
		idx := make([]ir.Operand, len(v.Indices))
		for i, o := range v.Indices {
			idx[i] = resolve(o)
		}
		return &ir.GetElementPtrInst{Res: newRes, Base: resolve(v.Base), Indices: idx}
	case *ir.InlineAsmInst:
		args := make([]ir.Operand, len(v.Args))
		for i, a := range v.Args {
			args[i] = resolve(a)
		}
		return &ir.InlineAsmInst{Res: newRes, AsmBody: v.AsmBody, Args: args}
	case *ir.BranchInst:
		if v.Unconditional {
			return &ir.BranchInst{Unconditional: true, TrueBB: resolveBlock(v.TrueBB)}
		}
		return &ir.BranchInst{Cond: resolve(v.Cond), TrueBB: resolveBlock(v.TrueBB), FalseBB: resolveBlock(v.FalseBB)}
	case *ir.SwitchInst:
		cases := make([]ir.SwitchCase, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = ir.SwitchCase{Value: resolve(c.Value), Block: resolveBlock(c.Block)}
		}
		return &ir.SwitchInst{Value: resolve(v.Value), Default: resolveBlock(v.Default), Cases: cases}
	case *ir.UnreachableInst:
		return &ir.UnreachableInst{}
	default:
		return inst
	}
}
