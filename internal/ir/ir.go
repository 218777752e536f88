// Package ir is the concrete module representation the comparator core
// walks. The spec (spec.md §3 "Module") describes an opaque, host-owned IR;
// this package is the one concrete shape used throughout this repository,
// generalized from the teacher's contract-bytecode SSA IR (originally
// internal/ir/types.go) to a small generic instruction set resembling
// compiled-C intermediate form: the comparator's structural walk only needs
// instructions, typed operands, and basic blocks, and the teacher's shape
// (load/store/call/binary/branch/phi with an Instruction interface) already
// fits that directly.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Module is a borrowed, opaque (from the core's point of view) unit
// containing named functions, global variables, aggregate type
// definitions, and attached debug/macro metadata (spec.md §3 "Module").
type Module struct {
	Name      string
	Functions map[string]*Function
	// Order preserves textual/declaration order for deterministic
	// iteration; global symbol comparisons are by name, never by this
	// order (spec.md §4.1).
	Order   []string
	Globals map[string]*Global
	Structs map[string]*StructType

	Debug *DebugIndex
	Sizes *SizeIndex

	// Pattern is non-nil only for a module loaded as a pattern (spec.md
	// §4.4); ordinary compared modules leave it nil.
	Pattern *PatternMeta
}

func NewModule(name string) *Module {
	return &Module{
		Name:      name,
		Functions: make(map[string]*Function),
		Globals:   make(map[string]*Global),
		Structs:   make(map[string]*StructType),
		Debug:     NewDebugIndex(),
		Sizes:     NewSizeIndex(),
	}
}

func (m *Module) AddFunction(f *Function) {
	if _, exists := m.Functions[f.Name]; !exists {
		m.Order = append(m.Order, f.Name)
	}
	m.Functions[f.Name] = f
}

// Global is a module-level symbol: a variable or constant. Globals are
// compared by name across modules, never by declaration order (spec.md
// §4.1: "Global values are compared by name rather than index").
type Global struct {
	Name string
	Type Type
	Init *Value // optional compile-time initializer
}

// Function is either a declaration (Decl == true, no Blocks) or a
// definition (spec.md §3 "Function"). A numeric trailer introduced by
// transformations (e.g. "foo.42") stays part of Name; Base strips it off.
type Function struct {
	Name       string
	Decl       bool
	Params     []*Param
	RetType    Type
	Vararg     bool
	CallConv   string
	Blocks     []*BasicBlock // Blocks[0] is the entry block when len > 0
	File       string
	Line       int
}

type Param struct {
	Name string
	Type Type
	Val  *Value // the SSA value an argument reference resolves to
}

// Base returns the function's name with any trailing ".<digits>" suffix
// stripped, per spec.md §3: "Two functions may share a name base but differ
// by a numeric suffix ... introduced by transformations". This is heuristic
// by design (spec.md Design Notes, Open Question): a genuinely dotted
// source identifier is indistinguishable from a compiler-generated suffix,
// and this implementation treats both uniformly.
func (f *Function) Base() string {
	return BaseName(f.Name)
}

// BaseName strips a trailing ".<digits>" suffix from name, if present.
func BaseName(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return name
	}
	suffix := name[idx+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return name
		}
	}
	return name[:idx]
}

// Entry returns the function's entry block, or nil for a declaration.
func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// AbstractionPrefix marks a synthesized field-access helper, recognized
// during the inlining tie-break (spec.md §4.5). AsmWrapperPrefix marks a
// synthesized inline-asm outlining helper; it is treated exactly like
// AbstractionPrefix (see IsSynthesizedAbstraction), and no SyntaxDifference
// is recorded for such a helper's body.
const (
	AbstractionPrefix = "__abstraction_"
	AsmWrapperPrefix  = "__asm_"
)

// IsSynthesizedAbstraction reports whether name was produced by a
// field-access or inline-asm outlining pre-pass.
func IsSynthesizedAbstraction(name string) bool {
	return strings.HasPrefix(BaseName(name), AbstractionPrefix) ||
		strings.HasPrefix(BaseName(name), AsmWrapperPrefix)
}

// BasicBlock is a maximal straight-line sequence of instructions ending in
// exactly one Terminator.
type BasicBlock struct {
	Label string
	Insts []Instruction
}

// Terminator returns the block's final instruction, or nil if the block is
// malformed (no instructions).
func (b *BasicBlock) Terminator() Instruction {
	if len(b.Insts) == 0 {
		return nil
	}
	return b.Insts[len(b.Insts)-1]
}

// Value is an SSA definition. Local values (arguments, instruction
// results) are identified positionally per spec.md §4.1: ID is the
// argument index or the instruction's index within its defining block's
// instruction stream, not a cross-module identity.
type Value struct {
	ID   int
	Name string
	Type Type
}

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	if v.Name != "" {
		return "%" + v.Name
	}
	return "%" + strconv.Itoa(v.ID)
}

// OperandKind discriminates how an Operand should be compared (spec.md
// §4.2 step 3: "For each operand, compare by kind").
type OperandKind int

const (
	OperandConst OperandKind = iota
	OperandArg
	OperandInstRef
	OperandGlobal
	OperandBlock
	OperandMetadata
)

// Operand is a tagged reference used by an instruction. Exactly one of the
// fields matching Kind is populated.
type Operand struct {
	Kind OperandKind

	ConstValue interface{} // OperandConst
	ConstType  Type

	Arg *Value // OperandArg: refers to a Function.Params entry's Value

	Inst *Value // OperandInstRef: refers to another instruction's result

	GlobalName string // OperandGlobal
	GlobalType Type

	Block *BasicBlock // OperandBlock (branch/switch/phi targets)

	MetaName  string // OperandMetadata
	MetaValue string
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandConst:
		return fmt.Sprintf("%v", o.ConstValue)
	case OperandArg, OperandInstRef:
		if o.Arg != nil {
			return o.Arg.String()
		}
		return o.Inst.String()
	case OperandGlobal:
		return "@" + o.GlobalName
	case OperandBlock:
		if o.Block != nil {
			return "%" + o.Block.Label
		}
		return "<nil-block>"
	case OperandMetadata:
		return "!" + o.MetaName
	default:
		return "?"
	}
}
