package compare

import (
	"fmt"

	"kanso/internal/correspond"
	"kanso/internal/ir"
	"kanso/internal/result"
)

// Flags selects which of spec.md §4.3's benign-pattern rules the
// Differential Function Comparator consults once the base structural
// comparison fails at a given instruction pair. Differential.Instruction
// tries them in a fixed order that differs from the field order below:
// ControlFlowOnly first, then StructAlignment, KernelPrints, DeadCode,
// NumericalMacros, TypeCasts and FunctionSplits. UnusedReturnTypes is not
// consulted per instruction.
type Flags struct {
	StructAlignment   bool
	FunctionSplits    bool
	UnusedReturnTypes bool
	KernelPrints      bool
	DeadCode          bool
	NumericalMacros   bool
	TypeCasts         bool
	ControlFlowOnly   bool
}

// DefaultFlags matches spec.md §4.3's "on by default" column; TypeCasts and
// ControlFlowOnly start off since both discard real information (a genuine
// representation change, or all data-flow fidelity) that most comparisons
// want reported rather than silently absorbed.
func DefaultFlags() Flags {
	return Flags{
		StructAlignment:   true,
		FunctionSplits:    true,
		UnusedReturnTypes: true,
		KernelPrints:      true,
		DeadCode:          true,
		NumericalMacros:   true,
		TypeCasts:         false,
		ControlFlowOnly:   false,
	}
}

// CallSitePair is one unresolved divergence between a direct call on one
// side and whatever sits at the corresponding cursor position on the
// other (spec.md §4.3 "function-splits": "one side inlines a helper the
// other still calls"). Either side may be nil when the divergence is a
// call against a non-call.
type CallSitePair struct {
	Left, Right *ir.CallInst
}

// Differential implements Hooks, layering spec.md §4.3's benign-pattern
// catalogue on top of the base Function Comparator (walker.go). It is the
// Hooks the Module Comparator (internal/modcompare) drives for ordinary
// function-pair comparisons; the Pattern Matcher (internal/patternmatch)
// instead wraps Differential for its own bounded sub-walks, reusing
// CompareInstructionDefault/CompareInstructionRelaxed directly.
type Differential struct {
	W     *Walker
	Flags Flags

	ModL, ModR *ir.Module

	// KernelPrintFns names callees treated as diagnostic/logging sinks for
	// the "kernel-prints" rule (spec.md §4.3, §6 "kernel-print-functions").
	KernelPrintFns map[string]bool

	// TryInline accumulates call-site pairs the "function-splits" rule
	// could not resolve on its own; the Module Comparator (internal/
	// modcompare) inspects this after a NotEqual verdict and decides
	// whether to inline the named callees and retry (spec.md §4.5).
	TryInline []CallSitePair

	// SameNameCalls accumulates every call-site pair whose callee names
	// matched on both sides and whose arguments matched structurally, so
	// the structural walk accepted them as equal without ever checking
	// whether the callees' own bodies still agree. A same-sounding callee
	// is not proof of equivalence: the Module Comparator resolves each
	// pair with its own recursive Compare(left.Callee, right.Callee) once
	// this walk finishes (spec.md §4.5 step 4's pending-Unknown cache
	// entry is what keeps (mutual) recursion through this list from
	// looping forever); a NotEqual verdict for a recorded pair means this
	// walk's optimistic acceptance of that call did not hold and the
	// enclosing verdict must be discarded (spec.md §7 "Optimistic-cycle
	// recovery", §9 Design Notes).
	SameNameCalls []CallSitePair

	// Diffs accumulates benign divergences worth surfacing even though
	// they did not change the verdict (spec.md §3 "NonFunctionDifference").
	Diffs []result.NonFunctionDifference

	// StackL/StackR are attached to every SyntaxDifference/TypeDifference emitted
	// during this comparison, set by the caller before Compare runs.
	StackL, StackR result.CallStack

	// Matcher is consulted (spec.md §4.4) once the benign-pattern
	// catalogue declines a divergence outright, i.e. every rule above
	// returned "doesn't apply" rather than "applies and fails". It is nil
	// until internal/modcompare wires a loaded PatternSet in; a
	// Differential with no Matcher simply skips this step.
	Matcher PatternMatcher

	usesL, usesR map[*ir.Function]*ir.UseSet
}

// PatternMatcher is the Hooks-side view of the Pattern Matcher (spec.md
// §4.4), implemented by internal/patternmatch. advanceL/advanceR are the
// numbers of instructions the match advanced on each side when it succeeds.
type PatternMatcher interface {
	TryMatch(w *Walker, bl, br *ir.BasicBlock, li, ri int) (matched bool, advanceL, advanceR int)
}

// NewDifferential builds a Differential and its underlying Walker.
func NewDifferential(flags Flags, modL, modR *ir.Module, kernelPrintFns []string) *Differential {
	d := &Differential{
		Flags:          flags,
		ModL:           modL,
		ModR:           modR,
		KernelPrintFns: make(map[string]bool, len(kernelPrintFns)),
		usesL:          make(map[*ir.Function]*ir.UseSet),
		usesR:          make(map[*ir.Function]*ir.UseSet),
	}
	for _, name := range kernelPrintFns {
		d.KernelPrintFns[name] = true
	}
	d.W = NewWalker(d)
	return d
}

// Compare runs the Function Comparator with this Differential's Hooks.
func (d *Differential) Compare(fl, fr *ir.Function) bool {
	return d.W.Compare(fl, fr)
}

// recordSameNameCall notes a call-instruction pair the structural default
// match just accepted as equal, so the Module Comparator can later confirm
// that the named callees' own bodies actually still agree (see
// SameNameCalls' doc comment). Intrinsics are exempt: they have no body for
// the core to compare.
func (d *Differential) recordSameNameCall(il, irr ir.Instruction) {
	cl, lok := il.(*ir.CallInst)
	cr, rok := irr.(*ir.CallInst)
	if !lok || !rok || cl.Intrinsic || cr.Intrinsic {
		return
	}
	d.SameNameCalls = append(d.SameNameCalls, CallSitePair{Left: cl, Right: cr})
}

func (d *Differential) usesOf(f *ir.Function, left bool) *ir.UseSet {
	cache := d.usesR
	if left {
		cache = d.usesL
	}
	if u, ok := cache[f]; ok {
		return u
	}
	u := ir.ComputeUses(f)
	cache[f] = u
	return u
}

// Block never overrides block pairing; control-flow-only is implemented
// per-instruction so ordinary non-divergent blocks are unaffected.
func (d *Differential) Block(*Walker, *ir.BasicBlock, *ir.BasicBlock) (bool, bool) {
	return false, false
}

// GlobalValue never overrides global-symbol comparison; spec.md §4.1
// already specifies "compared by name", which the base walker does.
func (d *Differential) GlobalValue(*Walker, string, string) (bool, bool) {
	return false, false
}

// Instruction is the Differential Function Comparator's core: try the
// default structural match first, and only on failure consult the
// benign-pattern catalogue in spec.md §4.3's fixed order, using a
// Correspondence snapshot so a rule that partially binds values before
// deciding it doesn't apply never pollutes the enclosing walk.
func (d *Differential) Instruction(w *Walker, bl, br *ir.BasicBlock, li, ri int) (handled, equal bool, advanceL, advanceR int) {
	il, irr := bl.Insts[li], br.Insts[ri]

	if d.Flags.ControlFlowOnly {
		if il.Op() == irr.Op() {
			return true, true, 1, 1
		}
		// fall through: even control-flow-only mode can't ignore an
		// opcode-shape divergence, so let the remaining rules (or the
		// eventual NotEqual) run their course.
	}

	snap := w.Corr.Snapshot()
	if w.CompareInstructionDefault(il, irr) {
		d.recordSameNameCall(il, irr)
		return true, true, 1, 1
	}
	w.Corr.Restore(snap)

	if d.Flags.StructAlignment {
		if handled, equal := d.tryStructAlignment(w, il, irr); handled {
			return handled, equal, 1, 1
		}
		w.Corr.Restore(snap)
	}

	if d.Flags.KernelPrints {
		if handled, equal := d.tryKernelPrint(w, il, irr); handled {
			return handled, equal, 1, 1
		}
		w.Corr.Restore(snap)
	}

	if d.Flags.DeadCode {
		if handled, equal, adv := d.tryDeadCode(bl, br, li, ri); handled {
			return handled, equal, adv[0], adv[1]
		}
	}

	if d.Flags.NumericalMacros {
		if handled, equal := d.tryNumericalMacro(w, il, irr); handled {
			return handled, equal, 1, 1
		}
		w.Corr.Restore(snap)
	}

	if d.Flags.TypeCasts {
		if handled, equal, adv := d.tryTypeCast(w, bl, br, li, ri); handled {
			return handled, equal, adv[0], adv[1]
		}
		w.Corr.Restore(snap)
	}

	if d.Flags.FunctionSplits {
		if handled, equal := d.tryFunctionSplit(il, irr); handled {
			return handled, equal, 1, 1
		}
	}

	if d.Matcher != nil {
		if matched, advL, advR := d.Matcher.TryMatch(w, bl, br, li, ri); matched {
			return true, true, advL, advR
		}
		w.Corr.Restore(snap)
	}

	return true, false, 1, 1
}

// tryStructAlignment treats two loads/stores/allocas that differ only in
// Align as equal (spec.md §4.3 "struct-alignment": "loads/stores/allocas
// that differ only in alignment, from struct-layout changes that don't
// affect semantics").
func (d *Differential) tryStructAlignment(w *Walker, il, irr ir.Instruction) (handled, equal bool) {
	switch il.Op() {
	case ir.OpLoad, ir.OpStore, ir.OpAlloca:
	default:
		return false, false
	}
	if irr.Op() != il.Op() {
		return false, false
	}

	la, ra := il.Attrs(), irr.Attrs()
	la.Align, ra.Align = 0, 0
	if la != ra {
		return false, false
	}
	return true, w.CompareInstructionRelaxed(il, irr, true)
}

// tryKernelPrint absorbs two calls to a recognized logging/diagnostic
// function that differ only in a macro-sourced string argument (spec.md
// §4.3 "kernel-prints"), recording the divergence as a SyntaxDifference
// (spec.md's example 4: "__LINE__"-expanded printk calls).
func (d *Differential) tryKernelPrint(w *Walker, il, irr ir.Instruction) (handled, equal bool) {
	cl, ok1 := il.(*ir.CallInst)
	cr, ok2 := irr.(*ir.CallInst)
	if !ok1 || !ok2 {
		return false, false
	}
	if cl.Callee != cr.Callee || !d.KernelPrintFns[cl.Callee] {
		return false, false
	}
	if len(cl.Args) != len(cr.Args) {
		return false, false
	}

	var macroName string
	for i := range cl.Args {
		if w.CompareOperand(cl.Args[i], cr.Args[i]) {
			continue
		}
		if cl.Args[i].Kind != ir.OperandConst || cr.Args[i].Kind != ir.OperandConst {
			return false, false
		}
		nameL, okL := d.ModL.Debug.MacroAt(cl, i)
		nameR, okR := d.ModR.Debug.MacroAt(cr, i)
		if !okL || !okR || nameL != nameR {
			return false, false
		}
		macroName = nameL
	}

	d.Diffs = append(d.Diffs, result.SyntaxDifference{
		Name:   stringOr(macroName, cl.Callee),
		BodyL:  formatCall(cl),
		BodyR:  formatCall(cr),
		StackL: d.StackL,
		StackR: d.StackR,
	})
	return true, true
}

// tryDeadCode skips an instruction present on only one side whose result
// is never read and which has no side effects (spec.md §4.3 "dead-code"),
// advancing only the side carrying the extra instruction.
func (d *Differential) tryDeadCode(bl, br *ir.BasicBlock, li, ri int) (handled, equal bool, adv [2]int) {
	if ir.HasSideEffects(bl.Insts[li]) || bl.Insts[li].IsTerminator() {
		// still worth checking the right side alone below
	} else if bl.Insts[li].Result() == nil || !d.currentUses(bl, true).IsUsed(bl.Insts[li].Result()) {
		return true, true, [2]int{1, 0}
	}

	if ir.HasSideEffects(br.Insts[ri]) || br.Insts[ri].IsTerminator() {
		return false, false, adv
	}
	if br.Insts[ri].Result() == nil || !d.currentUses(br, false).IsUsed(br.Insts[ri].Result()) {
		return true, true, [2]int{0, 1}
	}
	return false, false, adv
}

func (d *Differential) currentUses(b *ir.BasicBlock, left bool) *ir.UseSet {
	fn := d.functionOwning(b, left)
	if fn == nil {
		return &ir.UseSet{}
	}
	return d.usesOf(fn, left)
}

func (d *Differential) functionOwning(b *ir.BasicBlock, left bool) *ir.Function {
	mod := d.ModR
	if left {
		mod = d.ModL
	}
	if mod == nil {
		return nil
	}
	for _, f := range mod.Functions {
		for _, fb := range f.Blocks {
			if fb == b {
				return f
			}
		}
	}
	return nil
}

// tryNumericalMacro absorbs two instructions that differ only in the
// numeric value of a constant operand sourced from the same named macro
// on both sides (spec.md §4.3 "numerical-macros").
func (d *Differential) tryNumericalMacro(w *Walker, il, irr ir.Instruction) (handled, equal bool) {
	if il.Op() != irr.Op() || il.Attrs() != irr.Attrs() {
		return false, false
	}
	lres, rres := il.Result(), irr.Result()
	if (lres == nil) != (rres == nil) {
		return false, false
	}
	if lres != nil && !w.Corr.RelateTypes(lres.Type, rres.Type) {
		return false, false
	}

	lops, rops := il.Operands(), irr.Operands()
	if len(lops) != len(rops) {
		return false, false
	}
	sawMacro := false
	for i := range lops {
		if w.CompareOperand(lops[i], rops[i]) {
			continue
		}
		if lops[i].Kind != ir.OperandConst || rops[i].Kind != ir.OperandConst {
			return false, false
		}
		nameL, okL := d.ModL.Debug.MacroAt(il, i)
		nameR, okR := d.ModR.Debug.MacroAt(irr, i)
		if !okL || !okR || nameL != nameR {
			return false, false
		}
		sawMacro = true
	}
	if !sawMacro {
		return false, false
	}

	if lres != nil {
		if correspond.Conflict == w.Corr.Relate(lres, rres) {
			return false, false
		}
	}
	return true, compareOpSpecific(il, irr)
}

// tryTypeCast absorbs a redundant bitwidth-preserving cast present on only
// one side (spec.md §4.3 "type-casts", off by default: "too risky to
// enable blindly").
func (d *Differential) tryTypeCast(w *Walker, bl, br *ir.BasicBlock, li, ri int) (handled, equal bool, adv [2]int) {
	if cl, ok := bl.Insts[li].(*ir.CastInst); ok {
		if w.Corr.RelateTypes(cl.FromType, cl.ToType) && sameOperandIdentity(w, cl.Value, br.Insts[ri]) {
			if cl.Res != nil {
				w.Corr.Relate(cl.Res, operandResultValue(br.Insts[ri]))
			}
			return true, true, [2]int{1, 0}
		}
	}
	if cr, ok := br.Insts[ri].(*ir.CastInst); ok {
		if w.Corr.RelateTypes(cr.FromType, cr.ToType) && sameOperandIdentity(w, cr.Value, bl.Insts[li]) {
			if cr.Res != nil {
				w.Corr.Relate(operandResultValue(bl.Insts[li]), cr.Res)
			}
			return true, true, [2]int{0, 1}
		}
	}
	return false, false, adv
}

func sameOperandIdentity(w *Walker, op ir.Operand, other ir.Instruction) bool {
	v := operandValue(op)
	r := other.Result()
	if v == nil || r == nil {
		return false
	}
	return w.Corr.Relate(v, r) != correspond.Conflict
}

func operandResultValue(inst ir.Instruction) *ir.Value { return inst.Result() }

// tryFunctionSplit recognizes a divergence caused by a callee that was
// inlined on one side but still called directly on the other, or by two
// direct calls to differently-named callees (spec.md §4.3
// "function-splits"), and defers to the Module Comparator's inlining loop
// (spec.md §4.5) rather than deciding NotEqual outright.
func (d *Differential) tryFunctionSplit(il, irr ir.Instruction) (handled, equal bool) {
	cl, lok := il.(*ir.CallInst)
	cr, rok := irr.(*ir.CallInst)

	switch {
	case lok && rok:
		if cl.Callee == cr.Callee {
			return false, false
		}
		if cl.Intrinsic || cr.Intrinsic {
			return false, false
		}
		d.TryInline = append(d.TryInline, CallSitePair{Left: cl, Right: cr})
	case lok && !cl.Intrinsic:
		d.TryInline = append(d.TryInline, CallSitePair{Left: cl})
	case rok && !cr.Intrinsic:
		d.TryInline = append(d.TryInline, CallSitePair{Right: cr})
	default:
		return false, false
	}
	return true, false
}

func formatCall(c *ir.CallInst) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%v)", c.Callee, args)
}

func stringOr(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
