package ir

// Opcode enumerates the instruction kinds the comparator walks. Unlike the
// teacher's EVM-flavored instruction set (storage slots, ABI encoding,
// events), this set is the shape of ordinary compiled-C/LLVM-style IR,
// since that is what the comparator's benign-pattern catalogue (spec.md
// §4.3) is defined against: struct-alignment on loads/stores/allocas,
// inline-asm text, kernel print calls, numeric macros.
type Opcode int

const (
	OpBinary Opcode = iota
	OpICmp
	OpLoad
	OpStore
	OpAlloca
	OpCall
	OpCast
	OpPhi
	OpGetElementPtr
	OpInlineAsm
	OpBranch
	OpSwitch
	OpReturn
	OpUnreachable
)

func (op Opcode) String() string {
	switch op {
	case OpBinary:
		return "binary"
	case OpICmp:
		return "icmp"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpAlloca:
		return "alloca"
	case OpCall:
		return "call"
	case OpCast:
		return "cast"
	case OpPhi:
		return "phi"
	case OpGetElementPtr:
		return "getelementptr"
	case OpInlineAsm:
		return "asm"
	case OpBranch:
		return "br"
	case OpSwitch:
		return "switch"
	case OpReturn:
		return "ret"
	case OpUnreachable:
		return "unreachable"
	default:
		return "?"
	}
}

// InstAttrs carries the opcode-specific attributes spec.md §4.2 step 3
// requires comparing alongside opcode/operand-count/result-type: compare
// predicate, bitwidth, memory ordering, alignment, volatile flag.
type InstAttrs struct {
	Predicate string // icmp predicate: eq, ne, slt, sgt, sle, sge, ult, ugt, ule, uge
	Align     int    // load/store/alloca alignment in bytes (0 = unspecified)
	Volatile  bool   // load/store volatile flag
	Ordering  string // memory ordering: "", "acquire", "release", "seq_cst"
	BinOp     string // add, sub, mul, udiv, sdiv, and, or, xor, shl, lshr, ashr
}

// Instruction is the unit the comparator walks. Every concrete instruction
// kind below implements it.
type Instruction interface {
	ID() int
	Op() Opcode
	Result() *Value
	Operands() []Operand
	Attrs() InstAttrs
	IsTerminator() bool
	// DebugLine is the source line stored on the instruction itself (0 when
	// unset). Macro-sourced constants are recognized through
	// DebugIndex.MacroAt, not through this line.
	DebugLine() int
}

// instBase factors the identity/location fields every instruction carries.
type instBase struct {
	id   int
	line int
}

func (b instBase) ID() int        { return b.id }
func (b instBase) DebugLine() int { return b.line }

// BinaryInst: %r = <op> <ty> %a, %b
type BinaryInst struct {
	instBase
	Res         *Value
	Op_         string
	Left, Right Operand
}

func (i *BinaryInst) Op() Opcode           { return OpBinary }
func (i *BinaryInst) Result() *Value       { return i.Res }
func (i *BinaryInst) Operands() []Operand  { return []Operand{i.Left, i.Right} }
func (i *BinaryInst) Attrs() InstAttrs     { return InstAttrs{BinOp: i.Op_} }
func (i *BinaryInst) IsTerminator() bool   { return false }

// ICmpInst: %r = icmp <pred> <ty> %a, %b
type ICmpInst struct {
	instBase
	Res         *Value
	Predicate   string
	Left, Right Operand
}

func (i *ICmpInst) Op() Opcode          { return OpICmp }
func (i *ICmpInst) Result() *Value      { return i.Res }
func (i *ICmpInst) Operands() []Operand { return []Operand{i.Left, i.Right} }
func (i *ICmpInst) Attrs() InstAttrs    { return InstAttrs{Predicate: i.Predicate} }
func (i *ICmpInst) IsTerminator() bool  { return false }

// LoadInst: %r = load <ty>, ptr %addr [, align N] [, volatile]
type LoadInst struct {
	instBase
	Res      *Value
	Addr     Operand
	Align    int
	Volatile bool
}

func (i *LoadInst) Op() Opcode          { return OpLoad }
func (i *LoadInst) Result() *Value      { return i.Res }
func (i *LoadInst) Operands() []Operand { return []Operand{i.Addr} }
func (i *LoadInst) Attrs() InstAttrs    { return InstAttrs{Align: i.Align, Volatile: i.Volatile} }
func (i *LoadInst) IsTerminator() bool  { return false }

// StoreInst: store <ty> %val, ptr %addr [, align N] [, volatile]
type StoreInst struct {
	instBase
	Val, Addr Operand
	Align     int
	Volatile  bool
}

func (i *StoreInst) Op() Opcode          { return OpStore }
func (i *StoreInst) Result() *Value      { return nil }
func (i *StoreInst) Operands() []Operand { return []Operand{i.Val, i.Addr} }
func (i *StoreInst) Attrs() InstAttrs    { return InstAttrs{Align: i.Align, Volatile: i.Volatile} }
func (i *StoreInst) IsTerminator() bool  { return false }

// AllocaInst: %r = alloca <ty> [, align N]
type AllocaInst struct {
	instBase
	Res      *Value
	Align    int
}

func (i *AllocaInst) Op() Opcode          { return OpAlloca }
func (i *AllocaInst) Result() *Value      { return i.Res }
func (i *AllocaInst) Operands() []Operand { return nil }
func (i *AllocaInst) Attrs() InstAttrs    { return InstAttrs{Align: i.Align} }
func (i *AllocaInst) IsTerminator() bool  { return false }

// CallInst: %r = call <ty> @callee(args...), or a bare call with no result.
type CallInst struct {
	instBase
	Res      *Value
	Callee   string
	Args     []Operand
	Intrinsic bool
}

func (i *CallInst) Op() Opcode          { return OpCall }
func (i *CallInst) Result() *Value      { return i.Res }
func (i *CallInst) Operands() []Operand { return i.Args }
func (i *CallInst) Attrs() InstAttrs    { return InstAttrs{} }
func (i *CallInst) IsTerminator() bool  { return false }

// CastInst: %r = <kind> <ty> %v to <ty2>  (bitcast, trunc, zext, sext, ...)
type CastInst struct {
	instBase
	Res      *Value
	Kind     string // bitcast, trunc, zext, sext, ptrtoint, inttoptr
	Value    Operand
	FromType Type
	ToType   Type
}

func (i *CastInst) Op() Opcode          { return OpCast }
func (i *CastInst) Result() *Value      { return i.Res }
func (i *CastInst) Operands() []Operand { return []Operand{i.Value} }
func (i *CastInst) Attrs() InstAttrs    { return InstAttrs{} }
func (i *CastInst) IsTerminator() bool  { return false }

// PhiInst: %r = phi <ty> [ %v1, %bb1 ], [ %v2, %bb2 ], ...
// Incoming keeps the order in which the edges were built; it is not sorted,
// and the comparator matches two phis' edges pairwise in that order.
type PhiInst struct {
	instBase
	Res      *Value
	Incoming []PhiEdge
}

type PhiEdge struct {
	Value Operand
	Block *BasicBlock
}

func (i *PhiInst) Op() Opcode     { return OpPhi }
func (i *PhiInst) Result() *Value { return i.Res }
func (i *PhiInst) Operands() []Operand {
	ops := make([]Operand, len(i.Incoming))
	for idx, e := range i.Incoming {
		ops[idx] = e.Value
	}
	return ops
}
func (i *PhiInst) Attrs() InstAttrs   { return InstAttrs{} }
func (i *PhiInst) IsTerminator() bool { return false }

// GetElementPtrInst: %r = getelementptr <ty>, ptr %base, %idx...
type GetElementPtrInst struct {
	instBase
	Res     *Value
	Base    Operand
	Indices []Operand
}

func (i *GetElementPtrInst) Op() Opcode     { return OpGetElementPtr }
func (i *GetElementPtrInst) Result() *Value { return i.Res }
func (i *GetElementPtrInst) Operands() []Operand {
	return append([]Operand{i.Base}, i.Indices...)
}
func (i *GetElementPtrInst) Attrs() InstAttrs   { return InstAttrs{} }
func (i *GetElementPtrInst) IsTerminator() bool { return false }

// InlineAsmInst carries an opaque assembly text blob, never walked
// instruction-by-instruction. A differing AsmBody makes the two
// instructions unequal; no SyntaxDifference is recorded for it.
type InlineAsmInst struct {
	instBase
	Res     *Value
	AsmBody string
	Args    []Operand
}

func (i *InlineAsmInst) Op() Opcode          { return OpInlineAsm }
func (i *InlineAsmInst) Result() *Value      { return i.Res }
func (i *InlineAsmInst) Operands() []Operand { return i.Args }
func (i *InlineAsmInst) Attrs() InstAttrs    { return InstAttrs{} }
func (i *InlineAsmInst) IsTerminator() bool  { return false }

// Terminators

type BranchInst struct {
	instBase
	Cond             Operand // zero value (Kind == 0/OperandConst with nil) for unconditional
	Unconditional    bool
	TrueBB, FalseBB  *BasicBlock
}

func (i *BranchInst) Op() Opcode     { return OpBranch }
func (i *BranchInst) Result() *Value { return nil }
func (i *BranchInst) Operands() []Operand {
	if i.Unconditional {
		return nil
	}
	return []Operand{i.Cond}
}
func (i *BranchInst) Attrs() InstAttrs  { return InstAttrs{} }
func (i *BranchInst) IsTerminator() bool { return true }
func (i *BranchInst) Successors() []*BasicBlock {
	if i.Unconditional {
		return []*BasicBlock{i.TrueBB}
	}
	return []*BasicBlock{i.TrueBB, i.FalseBB}
}

type SwitchCase struct {
	Value Operand
	Block *BasicBlock
}

type SwitchInst struct {
	instBase
	Value   Operand
	Default *BasicBlock
	Cases   []SwitchCase
}

func (i *SwitchInst) Op() Opcode     { return OpSwitch }
func (i *SwitchInst) Result() *Value { return nil }
func (i *SwitchInst) Operands() []Operand {
	ops := []Operand{i.Value}
	for _, c := range i.Cases {
		ops = append(ops, c.Value)
	}
	return ops
}
func (i *SwitchInst) Attrs() InstAttrs  { return InstAttrs{} }
func (i *SwitchInst) IsTerminator() bool { return true }
func (i *SwitchInst) Successors() []*BasicBlock {
	succs := []*BasicBlock{i.Default}
	for _, c := range i.Cases {
		succs = append(succs, c.Block)
	}
	return succs
}

type ReturnInst struct {
	instBase
	Value   *Operand // nil for "ret void"
}

func (i *ReturnInst) Op() Opcode     { return OpReturn }
func (i *ReturnInst) Result() *Value { return nil }
func (i *ReturnInst) Operands() []Operand {
	if i.Value == nil {
		return nil
	}
	return []Operand{*i.Value}
}
func (i *ReturnInst) Attrs() InstAttrs      { return InstAttrs{} }
func (i *ReturnInst) IsTerminator() bool    { return true }
func (i *ReturnInst) Successors() []*BasicBlock { return nil }

type UnreachableInst struct {
	instBase
}

func (i *UnreachableInst) Op() Opcode          { return OpUnreachable }
func (i *UnreachableInst) Result() *Value      { return nil }
func (i *UnreachableInst) Operands() []Operand { return nil }
func (i *UnreachableInst) Attrs() InstAttrs    { return InstAttrs{} }
func (i *UnreachableInst) IsTerminator() bool  { return true }
func (i *UnreachableInst) Successors() []*BasicBlock { return nil }

// Terminator is the subset of Instruction that ends a basic block and
// enumerates its successors in source order (spec.md §4.2 step 3:
// "ordering is significant").
type Terminator interface {
	Instruction
	Successors() []*BasicBlock
}

var (
	_ Terminator = (*BranchInst)(nil)
	_ Terminator = (*SwitchInst)(nil)
	_ Terminator = (*ReturnInst)(nil)
	_ Terminator = (*UnreachableInst)(nil)
)

// assignIDs stamps each instruction's position in its own block so
// instBase.id matches the spec's "instruction stream index" identity.

func assignIDs(b *BasicBlock) {
	for idx, inst := range b.Insts {
		switch v := inst.(type) {
		case *BinaryInst:
			v.id = idx
		case *ICmpInst:
			v.id = idx
		case *LoadInst:
			v.id = idx
		case *StoreInst:
			v.id = idx
		case *AllocaInst:
			v.id = idx
		case *CallInst:
			v.id = idx
		case *CastInst:
			v.id = idx
		case *PhiInst:
			v.id = idx
		case *GetElementPtrInst:
			v.id = idx
		case *InlineAsmInst:
			v.id = idx
		case *BranchInst:
			v.id = idx
		case *SwitchInst:
			v.id = idx
		case *ReturnInst:
			v.id = idx
		case *UnreachableInst:
			v.id = idx
		}
	}
}
