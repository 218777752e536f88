package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Printer provides pretty-printing for a Module, in the same indent-tracking
// style as the teacher's IR printer (write/writeLine/writeIndent helpers).
// It renders a readable dump of a built module; neither cmd/semdiff nor
// the comparator packages call it.
type Printer struct {
	indent int
	output strings.Builder
}

func NewPrinter() *Printer {
	return &Printer{}
}

// Print returns the textual form of a module.
func Print(m *Module) string {
	p := NewPrinter()
	p.printModule(m)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printModule(m *Module) {
	p.writeLine("module %q {", m.Name)
	p.indent++

	if len(m.Structs) > 0 {
		names := sortedKeys(m.Structs)
		for _, name := range names {
			p.writeLine("%s", m.Structs[name].String())
		}
		p.writeLine("")
	}

	if len(m.Globals) > 0 {
		names := sortedKeys(m.Globals)
		for _, name := range names {
			g := m.Globals[name]
			p.writeLine("global @%s : %s", g.Name, g.Type.String())
		}
		p.writeLine("")
	}

	for _, name := range m.Order {
		p.printFunction(m.Functions[name])
	}

	p.indent--
	p.writeLine("}")
}

func (p *Printer) printFunction(f *Function) {
	params := make([]string, len(f.Params))
	for i, pm := range f.Params {
		params[i] = fmt.Sprintf("%s: %s", pm.Name, pm.Type.String())
	}

	sig := fmt.Sprintf("@%s(%s) -> %s", f.Name, strings.Join(params, ", "), f.RetType.String())

	if f.Decl {
		p.writeLine("decl %s", sig)
		return
	}

	p.writeLine("func %s {", sig)
	p.indent++
	for _, b := range f.Blocks {
		p.printBlock(b)
	}
	p.indent--
	p.writeLine("}")
	p.writeLine("")
}

func (p *Printer) printBlock(b *BasicBlock) {
	p.writeLine("%s:", b.Label)
	p.indent++
	for _, inst := range b.Insts {
		p.writeLine("%s", formatInst(inst))
	}
	p.indent--
}

func formatInst(inst Instruction) string {
	res := ""
	if r := inst.Result(); r != nil {
		res = r.String() + " = "
	}

	switch v := inst.(type) {
	case *BinaryInst:
		return fmt.Sprintf("%s%s %s, %s", res, v.Op_, v.Left, v.Right)
	case *ICmpInst:
		return fmt.Sprintf("%sicmp %s %s, %s", res, v.Predicate, v.Left, v.Right)
	case *LoadInst:
		return fmt.Sprintf("%sload %s, align %d", res, v.Addr, v.Align)
	case *StoreInst:
		return fmt.Sprintf("store %s, %s, align %d", v.Val, v.Addr, v.Align)
	case *AllocaInst:
		return fmt.Sprintf("%salloca, align %d", res, v.Align)
	case *CallInst:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("%scall @%s(%s)", res, v.Callee, strings.Join(args, ", "))
	case *CastInst:
		return fmt.Sprintf("%s%s %s to %s", res, v.Kind, v.Value, v.ToType.String())
	case *PhiInst:
		parts := make([]string, len(v.Incoming))
		for i, e := range v.Incoming {
			parts[i] = fmt.Sprintf("[%s, %%%s]", e.Value, e.Block.Label)
		}
		return fmt.Sprintf("%sphi %s", res, strings.Join(parts, ", "))
	case *GetElementPtrInst:
		return fmt.Sprintf("%sgetelementptr %s", res, v.Base)
	case *InlineAsmInst:
		return fmt.Sprintf("%sasm %q", res, v.AsmBody)
	case *BranchInst:
		if v.Unconditional {
			return fmt.Sprintf("br label %%%s", v.TrueBB.Label)
		}
		return fmt.Sprintf("br %s, label %%%s, label %%%s", v.Cond, v.TrueBB.Label, v.FalseBB.Label)
	case *SwitchInst:
		return fmt.Sprintf("switch %s, default %%%s", v.Value, v.Default.Label)
	case *ReturnInst:
		if v.Value == nil {
			return "ret void"
		}
		return fmt.Sprintf("ret %s", *v.Value)
	case *UnreachableInst:
		return "unreachable"
	default:
		return "<unknown instruction>"
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
