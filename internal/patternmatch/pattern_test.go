package patternmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/compare"
	"kanso/internal/ir"
)

func i32() ir.Type { return &ir.IntType{Bits: 32} }

// buildOffsetPattern constructs a tiny pattern module recognizing
// "redundant zero-offset getelementptr" as equivalent to using the base
// pointer directly: new_Name has one instruction (the start, also the
// end); old_Name has none before its own trivial marker instruction. The
// final mapping pairs the new side's GEP result with the old side's
// bitcast result.
func buildOffsetPattern(t *testing.T) *Pattern {
	t.Helper()
	mod := ir.NewModule("patterns")
	mod.Pattern = ir.NewPatternMeta()

	newArg := &ir.Value{ID: 0, Type: &ir.PointerType{Elem: i32()}}
	newGEP := &ir.GetElementPtrInst{
		Res:  &ir.Value{ID: 1, Type: &ir.PointerType{Elem: i32()}},
		Base: ir.Operand{Kind: ir.OperandArg, Arg: newArg},
	}
	newFn := &ir.Function{
		Name:    "new_zero_offset",
		Params:  []*ir.Param{{Name: "p", Type: newArg.Type, Val: newArg}},
		RetType: &ir.VoidType{},
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{newGEP}}},
	}
	mod.Pattern.MarkStart(newGEP)
	mod.Pattern.MarkEnd(newGEP)
	mod.AddFunction(newFn)

	oldArg := &ir.Value{ID: 0, Type: &ir.PointerType{Elem: i32()}}
	oldNop := &ir.CastInst{
		Res:      &ir.Value{ID: 1, Type: oldArg.Type},
		Kind:     "bitcast",
		Value:    ir.Operand{Kind: ir.OperandArg, Arg: oldArg},
		FromType: oldArg.Type,
		ToType:   oldArg.Type,
	}
	oldFn := &ir.Function{
		Name:    "old_zero_offset",
		Params:  []*ir.Param{{Name: "p", Type: oldArg.Type, Val: oldArg}},
		RetType: &ir.VoidType{},
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{oldNop}}},
	}
	mod.Pattern.MarkStart(oldNop)
	mod.Pattern.MarkEnd(oldNop)
	mod.AddFunction(oldFn)

	mappingFn := &ir.Function{
		Name:    "mapping",
		RetType: &ir.VoidType{},
		Blocks: []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{
			&ir.BinaryInst{
				Left:  ir.Operand{Kind: ir.OperandInstRef, Inst: newGEP.Res},
				Right: ir.Operand{Kind: ir.OperandInstRef, Inst: oldNop.Res},
			},
		}}},
	}
	mod.AddFunction(mappingFn)

	p, err := LoadPattern(mod, 0)
	require.NoError(t, err)
	return p
}

func TestLoadPatternFindsStartAndMapping(t *testing.T) {
	p := buildOffsetPattern(t)
	assert.Equal(t, "zero_offset", p.Name)
	assert.Len(t, p.FinalMapping, 1)
}

func TestMatcherResolvesShapeMismatchViaPattern(t *testing.T) {
	p := buildOffsetPattern(t)
	set := NewPatternSet()
	set.Add(p)
	matcher := NewMatcher(set)

	base := &ir.Value{ID: 0, Type: &ir.PointerType{Elem: i32()}}
	gep := &ir.GetElementPtrInst{
		Res:  &ir.Value{ID: 1, Type: &ir.PointerType{Elem: i32()}},
		Base: ir.Operand{Kind: ir.OperandArg, Arg: base},
	}
	nop := &ir.CastInst{
		Res:      &ir.Value{ID: 1, Type: base.Type},
		Kind:     "bitcast",
		Value:    ir.Operand{Kind: ir.OperandArg, Arg: base},
		FromType: base.Type,
		ToType:   base.Type,
	}

	bl := &ir.BasicBlock{Label: "entry", Insts: []ir.Instruction{gep, &ir.ReturnInst{}}}
	br := &ir.BasicBlock{Label: "entry", Insts: []ir.Instruction{nop, &ir.ReturnInst{}}}

	w := compare.NewWalker(compare.DefaultHooks{})
	matched, advL, advR := matcher.TryMatch(w, bl, br, 0, 0)
	assert.True(t, matched)
	assert.Equal(t, 1, advL)
	assert.Equal(t, 1, advR)
}
