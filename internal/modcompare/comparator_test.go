package modcompare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/compare"
	"kanso/internal/ir"
	"kanso/internal/result"
)

func i32() ir.Type { return &ir.IntType{Bits: 32} }

func declOf(name string) *ir.Function {
	return &ir.Function{Name: name, Decl: true, RetType: &ir.VoidType{}}
}

// TestDeclarationFastPathAcceptsSuffixRenamedDeclaration is spec.md §8
// scenario 3: "foo" on the left and "foo.17" on the right, both
// declarations, compare Equal because their base names match.
func TestDeclarationFastPathAcceptsSuffixRenamedDeclaration(t *testing.T) {
	modL, modR := ir.NewModule("l"), ir.NewModule("r")
	modL.AddFunction(declOf("foo"))
	modR.AddFunction(declOf("foo.17"))

	c := New(modL, modR, compare.DefaultFlags(), nil, nil)
	res := c.Compare("foo", "foo.17")

	assert.Equal(t, result.Equal, res.Kind)
}

// TestDeclarationFastPathRejectsDifferentBaseNames covers the opposite
// side of spec.md §4.5 step 3: two declarations whose base names differ
// are NotEqual, never Equal by coincidence of both being bodiless.
func TestDeclarationFastPathRejectsDifferentBaseNames(t *testing.T) {
	modL, modR := ir.NewModule("l"), ir.NewModule("r")
	modL.AddFunction(declOf("foo"))
	modR.AddFunction(declOf("bar"))

	c := New(modL, modR, compare.DefaultFlags(), nil, nil)
	res := c.Compare("foo", "bar")

	assert.Equal(t, result.NotEqual, res.Kind)
}

// TestDeclarationFastPathRecordsMissingDef is spec.md §8 scenario 5's
// precondition: one side is a declaration, the other a definition. The
// Module Comparator cannot decide equivalence without a body, so it
// returns Unknown plus a MissingDef rather than guessing either way.
func TestDeclarationFastPathRecordsMissingDef(t *testing.T) {
	modL, modR := ir.NewModule("l"), ir.NewModule("r")
	modL.AddFunction(declOf("b"))
	modR.AddFunction(&ir.Function{
		Name:    "b",
		RetType: &ir.VoidType{},
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{&ir.ReturnInst{}}}},
	})

	c := New(modL, modR, compare.DefaultFlags(), nil, nil)
	res := c.Compare("b", "b")

	assert.Equal(t, result.Unknown, res.Kind)
	require.Len(t, res.Missing, 1)
	assert.Equal(t, "b", res.Missing[0].Left.Name)
	assert.Nil(t, res.Missing[0].Right)
}

// TestInliningLoopResolvesFunctionSplit is spec.md §8 scenario 2: version
// A inlines what version B factored out into a helper. The Module
// Comparator should force-inline the helper on the B side, simplify, and
// retry until the two bodies line up structurally.
func TestInliningLoopResolvesFunctionSplit(t *testing.T) {
	modL, modR := ir.NewModule("l"), ir.NewModule("r")
	modL.Globals["g"] = &ir.Global{Name: "g", Type: i32()}
	modR.Globals["g"] = &ir.Global{Name: "g", Type: i32()}

	// Left "a": everything inline.
	loadL := &ir.LoadInst{Res: &ir.Value{ID: 0, Type: i32()}, Addr: ir.Operand{Kind: ir.OperandGlobal, GlobalName: "g", GlobalType: i32()}}
	retValL := ir.Operand{Kind: ir.OperandInstRef, Inst: loadL.Res}
	aL := &ir.Function{
		Name:    "a",
		RetType: i32(),
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{loadL, &ir.ReturnInst{Value: &retValL}}}},
	}
	modL.AddFunction(aL)

	// Right "a": the same load factored into "helper" and called.
	callRes := &ir.Value{ID: 0, Type: i32()}
	call := &ir.CallInst{Res: callRes, Callee: "helper"}
	retValR := ir.Operand{Kind: ir.OperandInstRef, Inst: callRes}
	aR := &ir.Function{
		Name:    "a",
		RetType: i32(),
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{call, &ir.ReturnInst{Value: &retValR}}}},
	}
	modR.AddFunction(aR)

	loadHelper := &ir.LoadInst{Res: &ir.Value{ID: 0, Type: i32()}, Addr: ir.Operand{Kind: ir.OperandGlobal, GlobalName: "g", GlobalType: i32()}}
	retValHelper := ir.Operand{Kind: ir.OperandInstRef, Inst: loadHelper.Res}
	helper := &ir.Function{
		Name:    "helper",
		RetType: i32(),
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{loadHelper, &ir.ReturnInst{Value: &retValHelper}}}},
	}
	modR.AddFunction(helper)

	c := New(modL, modR, compare.DefaultFlags(), nil, nil)
	res := c.Compare("a", "a")

	require.Equal(t, result.Equal, res.Kind, "inlining helper into the right side's \"a\" should make the two bodies line up")
	assert.Equal(t, result.NotEqual, res.PreInlineKind, "the first comparison, before inlining, should have been NotEqual")
}

// TestInliningLoopTerminatesWhenCalleeIsOnlyADeclaration is spec.md §8
// scenario 5's other half: inlining cannot proceed because the callee
// factored out on the right has no body anywhere, so the loop must stop
// after one round with NotEqual plus a recorded MissingDef, not spin.
func TestInliningLoopTerminatesWhenCalleeIsOnlyADeclaration(t *testing.T) {
	modL, modR := ir.NewModule("l"), ir.NewModule("r")
	modL.Globals["g"] = &ir.Global{Name: "g", Type: i32()}
	modR.Globals["g"] = &ir.Global{Name: "g", Type: i32()}

	loadL := &ir.LoadInst{Res: &ir.Value{ID: 0, Type: i32()}, Addr: ir.Operand{Kind: ir.OperandGlobal, GlobalName: "g", GlobalType: i32()}}
	retValL := ir.Operand{Kind: ir.OperandInstRef, Inst: loadL.Res}
	aL := &ir.Function{
		Name:    "a",
		RetType: i32(),
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{loadL, &ir.ReturnInst{Value: &retValL}}}},
	}
	modL.AddFunction(aL)

	callRes := &ir.Value{ID: 0, Type: i32()}
	call := &ir.CallInst{Res: callRes, Callee: "helper"}
	retValR := ir.Operand{Kind: ir.OperandInstRef, Inst: callRes}
	aR := &ir.Function{
		Name:    "a",
		RetType: i32(),
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: []ir.Instruction{call, &ir.ReturnInst{Value: &retValR}}}},
	}
	modR.AddFunction(aR)
	modR.AddFunction(&ir.Function{Name: "helper", Decl: true, RetType: i32()})

	c := New(modL, modR, compare.DefaultFlags(), nil, nil)
	res := c.Compare("a", "a")

	assert.Equal(t, result.NotEqual, res.Kind)
	require.Len(t, res.Missing, 1)
	assert.Equal(t, "helper", res.Missing[0].Right.Name)
}
