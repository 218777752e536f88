package irtext

import (
	"fmt"
	"strconv"

	"kanso/internal/ir"
)

// buildInst dispatches on the opSyn union populated by participle and
// constructs the one matching ir.Instruction concrete type, resolving
// every operand through fb's value/block tables.
func (fb *funcBuilder) buildInst(is *instSyn, idx int) (ir.Instruction, error) {
	op := is.Op
	switch {
	case op.Binary != nil:
		b := op.Binary
		left, err := fb.operand(b.Left)
		if err != nil {
			return nil, err
		}
		right, err := fb.operand(b.Right)
		if err != nil {
			return nil, err
		}
		return &ir.BinaryInst{Res: fb.result(is, idx), Op_: b.Op, Left: left, Right: right}, nil

	case op.ICmp != nil:
		c := op.ICmp
		left, err := fb.operand(c.Left)
		if err != nil {
			return nil, err
		}
		right, err := fb.operand(c.Right)
		if err != nil {
			return nil, err
		}
		return &ir.ICmpInst{Res: fb.result(is, idx), Predicate: c.Pred, Left: left, Right: right}, nil

	case op.Load != nil:
		l := op.Load
		addr, err := fb.operand(l.Addr)
		if err != nil {
			return nil, err
		}
		align := 0
		if l.Align != nil {
			align = *l.Align
		}
		return &ir.LoadInst{Res: fb.result(is, idx), Addr: addr, Align: align, Volatile: l.Volatile}, nil

	case op.Store != nil:
		s := op.Store
		val, err := fb.operand(s.Val)
		if err != nil {
			return nil, err
		}
		addr, err := fb.operand(s.Addr)
		if err != nil {
			return nil, err
		}
		align := 0
		if s.Align != nil {
			align = *s.Align
		}
		return &ir.StoreInst{Val: val, Addr: addr, Align: align, Volatile: s.Volatile}, nil

	case op.Alloca != nil:
		a := op.Alloca
		align := 0
		if a.Align != nil {
			align = *a.Align
		}
		return &ir.AllocaInst{Res: fb.result(is, idx), Align: align}, nil

	case op.Call != nil:
		c := op.Call
		var args []ir.Operand
		for _, a := range c.Args {
			o, err := fb.operand(a)
			if err != nil {
				return nil, err
			}
			args = append(args, o)
		}
		return &ir.CallInst{Res: fb.result(is, idx), Callee: c.Callee, Args: args, Intrinsic: c.Intrinsic}, nil

	case op.Cast != nil:
		c := op.Cast
		val, err := fb.operand(c.Val)
		if err != nil {
			return nil, err
		}
		from, err := buildType(c.From, fb.mod)
		if err != nil {
			return nil, err
		}
		to, err := buildType(c.To, fb.mod)
		if err != nil {
			return nil, err
		}
		return &ir.CastInst{Res: fb.result(is, idx), Kind: c.Kind, Value: val, FromType: from, ToType: to}, nil

	case op.Phi != nil:
		p := op.Phi
		var edges []ir.PhiEdge
		for _, e := range p.Edges {
			v, err := fb.operand(e.Value)
			if err != nil {
				return nil, err
			}
			blk, ok := fb.blocks[e.Block]
			if !ok {
				return nil, fmt.Errorf("phi references undefined block %%%s", e.Block)
			}
			edges = append(edges, ir.PhiEdge{Value: v, Block: blk})
		}
		return &ir.PhiInst{Res: fb.result(is, idx), Incoming: edges}, nil

	case op.GEP != nil:
		g := op.GEP
		base, err := fb.operand(g.Base)
		if err != nil {
			return nil, err
		}
		var indices []ir.Operand
		for _, a := range g.Indices {
			o, err := fb.operand(a)
			if err != nil {
				return nil, err
			}
			indices = append(indices, o)
		}
		return &ir.GetElementPtrInst{Res: fb.result(is, idx), Base: base, Indices: indices}, nil

	case op.Asm != nil:
		a := op.Asm
		var args []ir.Operand
		for _, o := range a.Args {
			ov, err := fb.operand(o)
			if err != nil {
				return nil, err
			}
			args = append(args, ov)
		}
		return &ir.InlineAsmInst{Res: fb.result(is, idx), AsmBody: unquote(a.Body), Args: args}, nil

	case op.Br != nil:
		b := op.Br
		trueBB, ok := fb.blocks[b.True]
		if !ok {
			return nil, fmt.Errorf("br references undefined block %%%s", b.True)
		}
		if b.False == nil {
			return &ir.BranchInst{Unconditional: true, TrueBB: trueBB}, nil
		}
		falseBB, ok := fb.blocks[*b.False]
		if !ok {
			return nil, fmt.Errorf("br references undefined block %%%s", *b.False)
		}
		cond, err := fb.operand(b.Cond)
		if err != nil {
			return nil, err
		}
		return &ir.BranchInst{Cond: cond, TrueBB: trueBB, FalseBB: falseBB}, nil

	case op.Switch != nil:
		s := op.Switch
		val, err := fb.operand(s.Value)
		if err != nil {
			return nil, err
		}
		def, ok := fb.blocks[s.Default]
		if !ok {
			return nil, fmt.Errorf("switch references undefined default block %%%s", s.Default)
		}
		var cases []ir.SwitchCase
		for _, c := range s.Cases {
			cv, err := fb.operand(c.Value)
			if err != nil {
				return nil, err
			}
			cb, ok := fb.blocks[c.Block]
			if !ok {
				return nil, fmt.Errorf("switch references undefined block %%%s", c.Block)
			}
			cases = append(cases, ir.SwitchCase{Value: cv, Block: cb})
		}
		return &ir.SwitchInst{Value: val, Default: def, Cases: cases}, nil

	case op.Ret != nil:
		r := op.Ret
		if r.Void != nil {
			return &ir.ReturnInst{}, nil
		}
		v, err := fb.operand(r.Typed.Value)
		if err != nil {
			return nil, err
		}
		return &ir.ReturnInst{Value: &v}, nil

	case op.Unreachable != nil:
		return &ir.UnreachableInst{}, nil

	default:
		return nil, fmt.Errorf("malformed instruction")
	}
}

// result returns the *ir.Value already assigned to this instruction's
// name in pass 1, or nil for an instruction with no "%name =" prefix.
func (fb *funcBuilder) result(is *instSyn, idx int) *ir.Value {
	if is.Result == nil {
		return nil
	}
	v := fb.values[*is.Result]
	if v == nil {
		return nil
	}
	v.ID = idx
	return v
}

// operand resolves an operandSyn against this function's value table
// (arguments and instruction results share one namespace), the module's
// globals, or builds a literal constant.
func (fb *funcBuilder) operand(o *operandSyn) (ir.Operand, error) {
	switch {
	case o == nil:
		return ir.Operand{}, nil
	case o.Str != nil:
		return ir.Operand{Kind: ir.OperandConst, ConstValue: unquote(*o.Str)}, nil
	case o.Int != nil:
		n, err := strconv.ParseInt(*o.Int, 10, 64)
		if err != nil {
			return ir.Operand{}, fmt.Errorf("invalid integer constant %q: %w", *o.Int, err)
		}
		return ir.Operand{Kind: ir.OperandConst, ConstValue: n}, nil
	case o.Bool != nil:
		return ir.Operand{Kind: ir.OperandConst, ConstValue: *o.Bool == "true"}, nil
	case o.Global != nil:
		g, ok := fb.mod.Globals[*o.Global]
		var t ir.Type
		if ok {
			t = g.Type
		}
		return ir.Operand{Kind: ir.OperandGlobal, GlobalName: *o.Global, GlobalType: t}, nil
	case o.Local != nil:
		if v, ok := fb.values[*o.Local]; ok {
			// A value defined by a function parameter is an OperandArg;
			// one defined by an instruction result is an OperandInstRef.
			// Both share fb.values, so the discrimination is by which
			// table produced it, tracked via fb.fn.Params membership.
			for _, p := range fb.fn.Params {
				if p.Val == v {
					return ir.Operand{Kind: ir.OperandArg, Arg: v}, nil
				}
			}
			return ir.Operand{Kind: ir.OperandInstRef, Inst: v}, nil
		}
		// Not a local: try the module-wide qualified table (e.g. a
		// pattern's mapping function writing "%new_Foo.0" to name a value
		// that belongs to a different function's body).
		qv, ok := fb.qualified[*o.Local]
		if !ok {
			return ir.Operand{}, fmt.Errorf("reference to undefined value %%%s", *o.Local)
		}
		if qv.isArg {
			return ir.Operand{Kind: ir.OperandArg, Arg: qv.val}, nil
		}
		return ir.Operand{Kind: ir.OperandInstRef, Inst: qv.val}, nil
	default:
		return ir.Operand{}, fmt.Errorf("malformed operand")
	}
}

// buildConstOperand resolves a global's initializer, which syntactically
// may only be a literal (no forward function-local references make sense
// at module scope).
func buildConstOperand(o *operandSyn) (*ir.Value, error) {
	switch {
	case o.Int != nil:
		return &ir.Value{Name: *o.Int}, nil
	case o.Str != nil:
		return &ir.Value{Name: unquote(*o.Str)}, nil
	case o.Bool != nil:
		return &ir.Value{Name: *o.Bool}, nil
	default:
		return nil, fmt.Errorf("global initializer must be a literal constant")
	}
}
