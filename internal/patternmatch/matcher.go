package patternmatch

import (
	"kanso/internal/compare"
	"kanso/internal/correspond"
	"kanso/internal/ir"
)

// Matcher implements compare.PatternMatcher, trying every loaded Pattern
// against a divergence the Differential Function Comparator's catalogue
// declined to resolve.
type Matcher struct {
	Set *PatternSet
}

func NewMatcher(set *PatternSet) *Matcher { return &Matcher{Set: set} }

// TryMatch attempts every pattern in order, returning on the first one
// whose sub-walk succeeds.
func (m *Matcher) TryMatch(w *compare.Walker, bl, br *ir.BasicBlock, li, ri int) (matched bool, advanceL, advanceR int) {
	il, irr := bl.Insts[li], br.Insts[ri]
	for _, p := range m.Set.Patterns() {
		if p.startOpNew() != il.Op() || p.startOpOld() != irr.Op() {
			continue
		}
		if ok, advL, advR := m.attempt(w, p, bl, br, li, ri); ok {
			return true, advL, advR
		}
	}
	return false, 0, 0
}

// attempt runs the pattern's two independent sub-walks (new-side-vs-left,
// old-side-vs-right), each with its own fresh per-match Correspondence
// (spec.md §4.4: "a per-match Value Correspondence"), and accepts the
// match only if every declared final-mapping pair resolves to the same
// left/right value pair the outer walker's Correspondence would assign —
// checked by relating them there and rejecting on conflict.
func (m *Matcher) attempt(w *compare.Walker, p *Pattern, bl, br *ir.BasicBlock, li, ri int) (ok bool, advanceL, advanceR int) {
	subL := compare.NewWalker(compare.DefaultHooks{})
	okL, _, consumedModuleL := subL.CompareSubWalk(p.StartBlockNew, bl, p.StartIdxNew, li, func(l, _ ir.Instruction) bool {
		return p.Module.Pattern.IsEnd(l)
	})
	if !okL {
		return false, 0, 0
	}

	subR := compare.NewWalker(compare.DefaultHooks{})
	okR, _, consumedModuleR := subR.CompareSubWalk(p.StartBlockOld, br, p.StartIdxOld, ri, func(l, _ ir.Instruction) bool {
		return p.Module.Pattern.IsEnd(l)
	})
	if !okR {
		return false, 0, 0
	}

	snap := w.Corr.Snapshot()
	for _, mp := range p.FinalMapping {
		moduleLeftVal, foundL := subL.Corr.LookupLeft(mp.NewVal)
		moduleRightVal, foundR := subR.Corr.LookupLeft(mp.OldVal)
		if !foundL || !foundR {
			w.Corr.Restore(snap)
			return false, 0, 0
		}
		if status := w.Corr.Relate(moduleLeftVal, moduleRightVal); status == correspond.Conflict {
			w.Corr.Restore(snap)
			return false, 0, 0
		}
	}

	return true, consumedModuleL, consumedModuleR
}
