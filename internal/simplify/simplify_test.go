package simplify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/ir"
)

func i32() ir.Type { return &ir.IntType{Bits: 32} }

func TestDefaultSimplifierRemovesDeadAlloca(t *testing.T) {
	dead := &ir.AllocaInst{Res: &ir.Value{ID: 0, Type: i32()}}
	f := &ir.Function{
		Name:    "f",
		RetType: &ir.VoidType{},
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{dead, &ir.ReturnInst{}}}},
	}

	(DefaultSimplifier{}).Simplify(f)

	assert.Len(t, f.Blocks[0].Insts, 1, "the unused alloca should be removed, leaving only the terminator")
}

func TestDefaultSimplifierDropsUnreachableBlock(t *testing.T) {
	entry := &ir.BasicBlock{Label: "entry"}
	reachable := &ir.BasicBlock{Label: "reachable", Insts: []ir.Instruction{&ir.ReturnInst{}}}
	dead := &ir.BasicBlock{Label: "dead", Insts: []ir.Instruction{&ir.ReturnInst{}}}
	entry.Insts = []ir.Instruction{&ir.BranchInst{Unconditional: true, TrueBB: reachable}}

	f := &ir.Function{Name: "f", RetType: &ir.VoidType{}, Blocks: []*ir.BasicBlock{entry, reachable, dead}}

	(DefaultSimplifier{}).Simplify(f)

	// "dead" is unreachable and dropped; "reachable" has entry as its
	// only predecessor via an unconditional branch, so CFG normalization
	// folds the two straight-line blocks into one.
	require.Len(t, f.Blocks, 1)
	assert.NotEqual(t, "dead", f.Blocks[0].Label)
	_, isReturn := f.Blocks[0].Insts[len(f.Blocks[0].Insts)-1].(*ir.ReturnInst)
	assert.True(t, isReturn)
}

func TestDefaultInlinerSplicesCalleeAndPreservesResultIdentity(t *testing.T) {
	calleeParam := &ir.Value{ID: 0, Type: i32()}
	calleeRet := &ir.Value{ID: 1, Type: i32()}
	one := ir.Operand{Kind: ir.OperandConst, ConstType: i32(), ConstValue: 1}
	addInst := &ir.BinaryInst{Res: calleeRet, Op_: "add", Left: ir.Operand{Kind: ir.OperandArg, Arg: calleeParam}, Right: one}
	calleeRetVal := ir.Operand{Kind: ir.OperandInstRef, Inst: calleeRet}
	callee := &ir.Function{
		Name:    "helper",
		Params:  []*ir.Param{{Name: "x", Type: i32(), Val: calleeParam}},
		RetType: i32(),
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{addInst, &ir.ReturnInst{Value: &calleeRetVal}}}},
	}

	callRes := &ir.Value{ID: 2, Type: i32()}
	call := &ir.CallInst{Res: callRes, Callee: "helper", Args: []ir.Operand{{Kind: ir.OperandConst, ConstType: i32(), ConstValue: 41}}}
	useOfCall := &ir.ReturnInst{Value: &ir.Operand{Kind: ir.OperandInstRef, Inst: callRes}}
	caller := &ir.Function{
		Name:    "caller",
		RetType: i32(),
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{call, useOfCall}}},
	}

	inliner := &DefaultInliner{}
	ok := inliner.Inline(caller, call, callee)
	require.True(t, ok)

	assert.Greater(t, len(caller.Blocks), 1, "inlining should have introduced the callee's blocks plus a continuation")

	var foundPhi bool
	for _, b := range caller.Blocks {
		for _, inst := range b.Insts {
			if phi, ok := inst.(*ir.PhiInst); ok && phi.Res == callRes {
				foundPhi = true
			}
		}
	}
	assert.True(t, foundPhi, "the continuation block should phi the callee's return value into the original call result identity")
}
