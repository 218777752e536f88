package irtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/ir"
)

func TestParseStringBuildsFunctionWithControlFlow(t *testing.T) {
	src := `
module demo {
struct Point size 8 {
  x: i32,
  y: i32,
} !file="point.h" !line=3

global @counter: i32 = 0

declare i32 @printk(ptr) vararg

define i32 @max(i32 %a, i32 %b) !file="demo.c" !line=10 {
entry:
  %0 = icmp sgt i32 %a, %b !line=11
  br %0, label %then, label %else
then:
  br label %done
else:
  br label %done
done:
  %1 = phi i32 [ %a, %then ], [ %b, %else ]
  ret i32 %1
}
}
`
	mod, err := ParseString("demo.sdir", src)
	require.NoError(t, err)
	assert.Equal(t, "demo", mod.Name)

	st, ok := mod.Structs["Point"]
	require.True(t, ok)
	assert.Len(t, st.Fields, 2)
	size, ok := mod.Sizes.ByteSize("Point")
	require.True(t, ok)
	assert.Equal(t, 8, size)
	loc, ok := mod.Debug.TypeLoc("Point")
	require.True(t, ok)
	assert.Equal(t, "point.h", loc.File)
	assert.Equal(t, 3, loc.Line)

	g, ok := mod.Globals["counter"]
	require.True(t, ok)
	assert.Equal(t, "0", g.Init.Name)

	printk, ok := mod.Functions["printk"]
	require.True(t, ok)
	assert.True(t, printk.Decl)
	assert.True(t, printk.Vararg)

	fn, ok := mod.Functions["max"]
	require.True(t, ok)
	require.False(t, fn.Decl)
	assert.Equal(t, "demo.c", fn.File)
	assert.Equal(t, 10, fn.Line)
	require.Len(t, fn.Blocks, 4)
	assert.Equal(t, "entry", fn.Blocks[0].Label)

	icmp, ok := fn.Blocks[0].Insts[0].(*ir.ICmpInst)
	require.True(t, ok)
	assert.Equal(t, "sgt", icmp.Predicate)
	loc, ok = mod.Debug.InstLoc(icmp)
	require.True(t, ok)
	assert.Equal(t, 11, loc.Line)

	br, ok := fn.Blocks[0].Insts[1].(*ir.BranchInst)
	require.True(t, ok)
	assert.False(t, br.Unconditional)
	assert.Equal(t, "then", br.TrueBB.Label)
	assert.Equal(t, "else", br.FalseBB.Label)

	phi, ok := fn.Blocks[3].Insts[0].(*ir.PhiInst)
	require.True(t, ok)
	require.Len(t, phi.Incoming, 2)
	assert.Equal(t, "then", phi.Incoming[0].Block.Label)
	assert.Equal(t, ir.OperandArg, phi.Incoming[0].Value.Kind)
}

func TestParsePatternModuleMetadata(t *testing.T) {
	src := `
pattern module zero_offset {
define ptr @new_f(ptr %p) {
entry:
  %0 = getelementptr i32, %p !pattern-start !pattern-end
  ret ptr %0
}
define ptr @old_f(ptr %p) {
entry:
  %0 = bitcast ptr %p to ptr
  ret ptr %0
}
define void @mapping() {
entry:
  %0 = add ptr %new_f.0, %old_f.0
}
}
`
	mod, err := ParseString("pattern.sdir", src)
	require.NoError(t, err)
	require.NotNil(t, mod.Pattern)

	newFn := mod.Functions["new_f"]
	gep := newFn.Blocks[0].Insts[0]
	assert.True(t, mod.Pattern.IsStart(gep))
	assert.True(t, mod.Pattern.IsEnd(gep))

	mapping := mod.Functions["mapping"]
	add, ok := mapping.Blocks[0].Insts[0].(*ir.BinaryInst)
	require.True(t, ok)
	assert.Equal(t, ir.OperandInstRef, add.Left.Kind)
	assert.Equal(t, "0", add.Left.Inst.Name)
	assert.Equal(t, ir.OperandInstRef, add.Right.Kind)
	assert.Equal(t, "0", add.Right.Inst.Name)
}

func TestMacroAnnotationResolvesOperandIndex(t *testing.T) {
	src := `
module m {
declare void @printk(ptr) vararg

define void @f() {
entry:
  call void @printk("at line 42") !macro(0)=__LINE__
  ret void
}
}
`
	mod, err := ParseString("macro.sdir", src)
	require.NoError(t, err)
	fn := mod.Functions["f"]
	call := fn.Blocks[0].Insts[0].(*ir.CallInst)
	name, ok := mod.Debug.MacroAt(call, 0)
	require.True(t, ok)
	assert.Equal(t, "__LINE__", name)
}

func TestParseRejectsMalformedSource(t *testing.T) {
	_, err := ParseString("bad.sdir", "module m { this is not valid")
	assert.Error(t, err)
}
