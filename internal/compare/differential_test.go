package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kanso/internal/ir"
	"kanso/internal/result"
)

func i32() ir.Type { return &ir.IntType{Bits: 32} }

func simpleFunc(name string, body []ir.Instruction) *ir.Function {
	return &ir.Function{
		Name:    name,
		RetType: &ir.VoidType{},
		Blocks:  []*ir.BasicBlock{{Label: "entry", Insts: body}},
	}
}

func TestDifferentialAbsorbsStructAlignment(t *testing.T) {
	l := simpleFunc("f", []ir.Instruction{
		&ir.LoadInst{Res: &ir.Value{ID: 0, Type: i32()}, Addr: ir.Operand{Kind: ir.OperandGlobal, GlobalName: "g"}, Align: 4},
		&ir.ReturnInst{},
	})
	r := simpleFunc("f", []ir.Instruction{
		&ir.LoadInst{Res: &ir.Value{ID: 0, Type: i32()}, Addr: ir.Operand{Kind: ir.OperandGlobal, GlobalName: "g"}, Align: 8},
		&ir.ReturnInst{},
	})

	d := NewDifferential(DefaultFlags(), ir.NewModule("l"), ir.NewModule("r"), nil)
	assert.True(t, d.Compare(l, r), "loads differing only in alignment should compare equal")
}

func TestDifferentialRejectsAlignmentWhenFlagOff(t *testing.T) {
	l := simpleFunc("f", []ir.Instruction{
		&ir.LoadInst{Res: &ir.Value{ID: 0, Type: i32()}, Addr: ir.Operand{Kind: ir.OperandGlobal, GlobalName: "g"}, Align: 4},
		&ir.ReturnInst{},
	})
	r := simpleFunc("f", []ir.Instruction{
		&ir.LoadInst{Res: &ir.Value{ID: 0, Type: i32()}, Addr: ir.Operand{Kind: ir.OperandGlobal, GlobalName: "g"}, Align: 8},
		&ir.ReturnInst{},
	})

	flags := DefaultFlags()
	flags.StructAlignment = false
	flags.DeadCode = false
	d := NewDifferential(flags, ir.NewModule("l"), ir.NewModule("r"), nil)
	assert.False(t, d.Compare(l, r))
}

func TestDifferentialKernelPrintAbsorbsMacroString(t *testing.T) {
	modL, modR := ir.NewModule("l"), ir.NewModule("r")

	callL := &ir.CallInst{Callee: "printk", Args: []ir.Operand{{Kind: ir.OperandConst, ConstType: i32(), ConstValue: "line 42"}}}
	callR := &ir.CallInst{Callee: "printk", Args: []ir.Operand{{Kind: ir.OperandConst, ConstType: i32(), ConstValue: "line 57"}}}
	modL.Debug.SetMacroAt(callL, 0, "__LINE__")
	modR.Debug.SetMacroAt(callR, 0, "__LINE__")

	l := simpleFunc("f", []ir.Instruction{callL, &ir.ReturnInst{}})
	r := simpleFunc("f", []ir.Instruction{callR, &ir.ReturnInst{}})

	d := NewDifferential(DefaultFlags(), modL, modR, []string{"printk"})
	assert.True(t, d.Compare(l, r))
	assert.Len(t, d.Diffs, 1)

	sd, ok := d.Diffs[0].(result.SyntaxDifference)
	assert.True(t, ok, "kernel-print divergence should be reported as a SyntaxDifference")
	assert.Equal(t, "__LINE__", sd.Name)
}

func TestDifferentialFunctionSplitRecordsTryInline(t *testing.T) {
	modL, modR := ir.NewModule("l"), ir.NewModule("r")

	l := simpleFunc("f", []ir.Instruction{
		&ir.CallInst{Callee: "helper_v1"},
		&ir.ReturnInst{},
	})
	r := simpleFunc("f", []ir.Instruction{
		&ir.CallInst{Callee: "helper_v2"},
		&ir.ReturnInst{},
	})

	d := NewDifferential(DefaultFlags(), modL, modR, nil)
	assert.False(t, d.Compare(l, r))
	assert.Len(t, d.TryInline, 1)
	assert.Equal(t, "helper_v1", d.TryInline[0].Left.Callee)
	assert.Equal(t, "helper_v2", d.TryInline[0].Right.Callee)
}

func TestDifferentialDeadCodeSkipsUnusedInstruction(t *testing.T) {
	modL, modR := ir.NewModule("l"), ir.NewModule("r")

	dead := &ir.AllocaInst{Res: &ir.Value{ID: 1, Type: i32()}}
	l := simpleFunc("f", []ir.Instruction{dead, &ir.ReturnInst{}})
	r := simpleFunc("f", []ir.Instruction{&ir.ReturnInst{}})
	modL.AddFunction(l)
	modR.AddFunction(r)

	d := NewDifferential(DefaultFlags(), modL, modR, nil)
	assert.True(t, d.Compare(l, r), "an unused, side-effect-free alloca on one side should be skipped")
}
