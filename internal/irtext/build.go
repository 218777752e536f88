package irtext

import (
	"fmt"
	"strconv"
	"strings"

	"kanso/internal/ir"
)

// build turns a parsed fileSyn into an *ir.Module: resolving named types,
// named values, and block labels, and attaching every meta annotation to
// the DebugIndex / SizeIndex / PatternMeta side tables the instructions
// themselves don't carry space for (spec.md §6's two collaborator indices,
// §4.4's pattern metadata).
func build(f *fileSyn) (*ir.Module, error) {
	ms := f.Module
	mod := ir.NewModule(ms.Name)
	if ms.Pattern {
		mod.Pattern = ir.NewPatternMeta()
	}

	// Structs are registered before functions so a function signature or
	// field type referencing "%Name" resolves immediately.
	for _, s := range ms.Structs {
		st := &ir.StructType{Name: s.Name}
		for _, fld := range s.Fields {
			t, err := buildType(fld.Type, mod)
			if err != nil {
				return nil, fmt.Errorf("struct %s field %s: %w", s.Name, fld.Name, err)
			}
			st.Fields = append(st.Fields, t)
		}
		mod.Structs[s.Name] = st
		if s.Size != nil {
			mod.Sizes.Set(s.Name, *s.Size)
		}
		var loc ir.SourceLoc
		for _, m := range s.Metas {
			switch m.Name {
			case "file":
				loc.File = unquote(derefStr(m.Eq))
			case "line":
				loc.Line = atoiOr(derefStr(m.Eq), 0)
			}
		}
		if loc.File != "" || loc.Line != 0 {
			mod.Debug.SetTypeLoc(s.Name, loc)
		}
	}

	for _, g := range ms.Globals {
		t, err := buildType(g.Type, mod)
		if err != nil {
			return nil, fmt.Errorf("global @%s: %w", g.Name, err)
		}
		global := &ir.Global{Name: g.Name, Type: t}
		if g.Init != nil {
			v, err := buildConstOperand(g.Init)
			if err != nil {
				return nil, fmt.Errorf("global @%s initializer: %w", g.Name, err)
			}
			global.Init = v
		}
		mod.Globals[g.Name] = global
	}

	qualified := make(map[string]qualifiedValue)
	for _, fn := range ms.Funcs {
		built, err := buildFunc(fn, mod, qualified)
		if err != nil {
			return nil, fmt.Errorf("function @%s: %w", fn.Name, err)
		}
		mod.AddFunction(built)
	}

	return mod, nil
}

func buildType(t *typeSyn, mod *ir.Module) (ir.Type, error) {
	switch {
	case t.Void:
		return &ir.VoidType{}, nil
	case t.Int != nil:
		bits, err := strconv.Atoi(strings.TrimPrefix(*t.Int, "i"))
		if err != nil {
			return nil, fmt.Errorf("invalid integer width %q: %w", *t.Int, err)
		}
		return &ir.IntType{Bits: bits}, nil
	case t.Ptr:
		return &ir.PointerType{Elem: &ir.VoidType{}}, nil
	case t.Array != nil:
		elem, err := buildType(t.Array.Elem, mod)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(t.Array.Len)
		if err != nil {
			return nil, fmt.Errorf("invalid array length %q: %w", t.Array.Len, err)
		}
		return &ir.ArrayType{Elem: elem, Len: n}, nil
	case t.Struct != nil:
		if st, ok := mod.Structs[*t.Struct]; ok {
			return st, nil
		}
		// Forward reference to a struct not yet registered: a bare named
		// placeholder, resolved structurally later by internal/correspond
		// since RelateTypes compares StructType by Name/Fields, not
		// pointer identity.
		return &ir.StructType{Name: *t.Struct}, nil
	default:
		return nil, fmt.Errorf("malformed type")
	}
}

// funcBuilder carries the per-function resolution state: named values
// (arguments and instruction results) and named blocks, both of which may
// be referenced before their textual definition (a phi's incoming edge
// naming a block that appears later, a back-branch to an earlier block).
//
// qualified is shared across every function in the module: a pattern's
// "mapping" function (spec.md §4.4) declares its new<->old value pairs by
// referencing values that belong to the new_/old_ functions, not its own
// body, so an operand written "%new_Foo.0" resolves through this table
// instead of fb's own (empty, for mapping) local value map.
type funcBuilder struct {
	mod       *ir.Module
	fn        *ir.Function
	values    map[string]*ir.Value
	blocks    map[string]*ir.BasicBlock
	qualified map[string]qualifiedValue
}

// qualifiedValue remembers whether a cross-function-referenceable value
// came from a parameter (OperandArg) or an instruction result
// (OperandInstRef), since the qualified table flattens both namespaces.
type qualifiedValue struct {
	val   *ir.Value
	isArg bool
}

func buildFunc(fs *funcSyn, mod *ir.Module, qualified map[string]qualifiedValue) (*ir.Function, error) {
	ret, err := buildType(fs.Ret, mod)
	if err != nil {
		return nil, fmt.Errorf("return type: %w", err)
	}

	f := &ir.Function{
		Name:     fs.Name,
		Decl:     fs.Body == nil,
		RetType:  ret,
		Vararg:   fs.Vararg,
		CallConv: "",
	}

	for _, m := range fs.Metas {
		switch m.Name {
		case "file":
			f.File = unquote(derefStr(m.Eq))
		case "line":
			f.Line = atoiOr(derefStr(m.Eq), 0)
		}
	}

	for i, p := range fs.Params {
		t, err := buildType(p.Type, mod)
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		name := ""
		if p.Name != nil {
			name = *p.Name
		}
		f.Params = append(f.Params, &ir.Param{
			Name: name,
			Type: t,
			Val:  &ir.Value{ID: i, Name: name, Type: t},
		})
	}

	if fs.Body == nil {
		return f, nil
	}

	fb := &funcBuilder{
		mod:       mod,
		fn:        f,
		values:    make(map[string]*ir.Value),
		blocks:    make(map[string]*ir.BasicBlock),
		qualified: qualified,
	}
	for _, p := range f.Params {
		if p.Name != "" {
			fb.values[p.Name] = p.Val
		}
	}

	for _, bs := range fs.Body.Blocks {
		bb := &ir.BasicBlock{Label: bs.Label}
		fb.blocks[bs.Label] = bb
		f.Blocks = append(f.Blocks, bb)
	}

	// Pass 1: assign every instruction result a *ir.Value up front so a
	// forward reference from an earlier block (a phi incoming from a loop
	// latch, e.g.) resolves without a second grammar pass.
	for bi, bs := range fs.Body.Blocks {
		bb := f.Blocks[bi]
		for idx, is := range bs.Insts {
			if is.Result == nil {
				continue
			}
			t, err := resultType(is.Op, mod)
			if err != nil {
				return nil, fmt.Errorf("block %s instruction %d: %w", bs.Label, idx, err)
			}
			v := &ir.Value{ID: idx, Name: *is.Result, Type: t}
			fb.values[*is.Result] = v
			qualified[f.Name+"."+*is.Result] = qualifiedValue{val: v}
		}
		_ = bb
	}
	for _, p := range f.Params {
		if p.Name != "" {
			qualified[f.Name+"."+p.Name] = qualifiedValue{val: p.Val, isArg: true}
		}
	}

	// Pass 2: build the real instructions, resolving operands against the
	// now-complete value/block tables.
	for bi, bs := range fs.Body.Blocks {
		bb := f.Blocks[bi]
		for idx, is := range bs.Insts {
			inst, err := fb.buildInst(is, idx)
			if err != nil {
				return nil, fmt.Errorf("block %s instruction %d: %w", bs.Label, idx, err)
			}
			bb.Insts = append(bb.Insts, inst)
			for _, m := range is.Metas {
				fb.applyMeta(inst, m)
			}
		}
	}

	return f, nil
}

func (fb *funcBuilder) applyMeta(inst ir.Instruction, m *metaSyn) {
	mod := fb.mod
	switch m.Name {
	case "pattern-start":
		if mod.Pattern != nil {
			mod.Pattern.MarkStart(inst)
		}
	case "pattern-end":
		if mod.Pattern != nil {
			mod.Pattern.MarkEnd(inst)
		}
	case "bb-limit-end", "basic-block-limit-end":
		if mod.Pattern != nil {
			mod.Pattern.MarkBBLimitEnd(inst)
		}
	case "line":
		loc := ir.SourceLoc{File: fb.fn.File, Line: atoiOr(derefStr(m.Eq), 0)}
		mod.Debug.SetInstLoc(inst, loc)
	case "macro":
		if len(m.Args) == 0 || m.Eq == nil {
			return
		}
		opIdx, err := strconv.Atoi(m.Args[0])
		if err != nil {
			return
		}
		mod.Debug.SetMacroAt(inst, opIdx, *m.Eq)
	}
}

// resultType determines an instruction's result type directly from its
// syntax (every opcode spells its own type explicitly), without needing
// any other instruction already resolved — this is what lets pass 1 run
// before any instruction object exists.
func resultType(op *opSyn, mod *ir.Module) (ir.Type, error) {
	switch {
	case op.Binary != nil:
		return buildType(op.Binary.Type, mod)
	case op.ICmp != nil:
		return &ir.IntType{Bits: 1}, nil
	case op.Load != nil:
		return buildType(op.Load.Type, mod)
	case op.Alloca != nil:
		return &ir.PointerType{Elem: mustType(op.Alloca.Type, mod)}, nil
	case op.Call != nil:
		return buildType(op.Call.Type, mod)
	case op.Cast != nil:
		return buildType(op.Cast.To, mod)
	case op.Phi != nil:
		return buildType(op.Phi.Type, mod)
	case op.GEP != nil:
		return &ir.PointerType{Elem: mustType(op.GEP.Type, mod)}, nil
	case op.Asm != nil:
		return &ir.VoidType{}, nil
	default:
		return &ir.VoidType{}, nil
	}
}

func mustType(t *typeSyn, mod *ir.Module) ir.Type {
	ty, err := buildType(t, mod)
	if err != nil {
		return &ir.VoidType{}
	}
	return ty
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		unescaped := strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
		return unescaped
	}
	return s
}
