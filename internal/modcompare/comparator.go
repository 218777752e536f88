// Package modcompare implements the Module Comparator (spec.md §4.5): the
// top-level driver that walks a list of seed symbol pairs, invokes the
// Differential Function Comparator for each, and runs the inlining
// feedback loop when a divergence pinpoints a resolvable call-site pair.
// It depends only on compare.Differential's public surface, patternmatch's
// PatternSet, and the simplify.Simplifier/Inliner interfaces — never on
// simplify's concrete types (spec.md §1's collaborator boundary).
package modcompare

import (
	"kanso/internal/compare"
	"kanso/internal/ir"
	"kanso/internal/patternmatch"
	"kanso/internal/result"
	"kanso/internal/simplify"
)

// SeedPair names one function pair the host wants compared (spec.md §4.5
// "a seed list of symbol-name pairs").
type SeedPair struct {
	Left, Right string
}

type pairKey struct {
	left, right string
}

// Comparator holds everything the Module Comparator needs across the
// whole run: the two modules, the active benign-pattern flags, the
// loaded pattern catalogue, and the simplification collaborators the
// inlining loop drives between iterations.
type Comparator struct {
	ModL, ModR     *ir.Module
	Flags          compare.Flags
	KernelPrintFns []string
	Patterns       *patternmatch.PatternSet
	Simplifier     simplify.Simplifier
	Inliner        simplify.Inliner

	// cache is the result cache spec.md §4.5 step 2/4/6 describes. An
	// entry holding result.Unknown while its own comparison is still in
	// flight is the cycle-breaking "pending" marker (step 4): a
	// recursive reentry for the same pair — verifyRecursiveCalls is what
	// drives this reentry, for a call whose callee name matched on both
	// sides — sees that Unknown and returns immediately instead of
	// looping forever, and the optimistic assumption is simply
	// overwritten once the real verdict lands (step 6) — or left in
	// place, discarded along with everything else on this path, if the
	// enclosing walk turns out NotEqual.
	cache map[pairKey]*result.Result
}

// New builds a Comparator with the default DefaultSimplifier/DefaultInliner
// collaborators (internal/simplify); callers needing a different
// simplification strategy can overwrite the Simplifier/Inliner fields
// before calling Compare.
//
// Runs the unused-return-value rewriter pre-pass (spec.md §6's last
// bullet) over both modules before any pair is compared, each module
// using the other as the "does the counterpart already return void"
// signal, exactly as spec.md §6 describes: "invoked once per module
// before comparison begins".
func New(modL, modR *ir.Module, flags compare.Flags, kernelPrintFns []string, patterns *patternmatch.PatternSet) *Comparator {
	simplify.RewriteUnusedReturns(modL, modR)
	simplify.RewriteUnusedReturns(modR, modL)

	return &Comparator{
		ModL:           modL,
		ModR:           modR,
		Flags:          flags,
		KernelPrintFns: kernelPrintFns,
		Patterns:       patterns,
		Simplifier:     simplify.DefaultSimplifier{},
		Inliner:        &simplify.DefaultInliner{},
		cache:          make(map[pairKey]*result.Result),
	}
}

// CompareAll runs Compare for every seed pair in order (spec.md §4.5 step
// 1: "for each seed pair, resolve to (FL, FR)").
func (c *Comparator) CompareAll(seeds []SeedPair) []*result.Result {
	out := make([]*result.Result, len(seeds))
	for i, s := range seeds {
		out[i] = c.Compare(s.Left, s.Right)
	}
	return out
}

// Compare runs spec.md §4.5's algorithm for one seed pair and returns its
// final Result, caching it under (nameL, nameR) for any later reentry.
func (c *Comparator) Compare(nameL, nameR string) *result.Result {
	key := pairKey{nameL, nameR}
	if cached, ok := c.cache[key]; ok {
		return cached
	}

	fl, lok := c.ModL.Functions[nameL]
	fr, rok := c.ModR.Functions[nameR]
	if !lok || !rok {
		res := &result.Result{Kind: result.NotEqual}
		c.cache[key] = res
		return res
	}

	if fl.Decl || fr.Decl {
		res := c.declarationFastPath(fl, fr)
		c.cache[key] = res
		return res
	}

	c.cache[key] = &result.Result{Kind: result.Unknown}

	res := c.fullCompare(key, fl, fr)
	c.cache[key] = res
	return res
}

// declarationFastPath implements spec.md §4.5 step 3.
func (c *Comparator) declarationFastPath(fl, fr *ir.Function) *result.Result {
	left, right := c.describeFunction(fl, true), c.describeFunction(fr, false)
	baseL, baseR := ir.BaseName(fl.Name), ir.BaseName(fr.Name)

	if c.Flags.ControlFlowOnly && baseL == baseR {
		return &result.Result{Kind: result.Equal, Left: left, Right: right}
	}

	switch {
	case fl.Decl && fr.Decl:
		kind := result.NotEqual
		if baseL == baseR {
			kind = result.Equal
		}
		return &result.Result{Kind: kind, Left: left, Right: right}
	case fl.Decl != fr.Decl:
		md := result.MissingDef{}
		if fl.Decl {
			md.Left = fl
		} else {
			md.Right = fr
		}
		return &result.Result{Kind: result.Unknown, Left: left, Right: right, Missing: []result.MissingDef{md}}
	default:
		return &result.Result{Kind: result.Equal, Left: left, Right: right}
	}
}

// fullCompare implements spec.md §4.5 steps 4-6: invoke the Differential
// Function Comparator, and while it reports a resolvable try_inline
// side-channel, force-inline the named callees, simplify, and retry.
func (c *Comparator) fullCompare(key pairKey, fl, fr *ir.Function) *result.Result {
	var preInline result.Kind
	first := true
	var invalidate []pairKey
	var missing []result.MissingDef

	for {
		d := compare.NewDifferential(c.Flags, c.ModL, c.ModR, c.KernelPrintFns)
		d.StackL = result.CallStack{{Callee: fl.Name, File: fl.File, Line: fl.Line}}
		d.StackR = result.CallStack{{Callee: fr.Name, File: fr.File, Line: fr.Line}}
		if c.Patterns != nil {
			d.Matcher = patternmatch.NewMatcher(c.Patterns)
		}

		equal := d.Compare(fl, fr)
		kind := result.NotEqual
		if equal {
			kind = result.Equal
		}
		if first {
			preInline = kind
			first = false
		}

		if equal {
			recursiveVerdict, assumed := c.verifyRecursiveCalls(d.SameNameCalls)
			if recursiveVerdict == result.NotEqual {
				// A same-named call the structural walk accepted on name
				// alone turned out to call a genuinely diverged body;
				// discard the optimistic acceptance (spec.md §9
				// "Optimistic-cycle recovery") rather than report Equal.
				for _, k := range invalidate {
					delete(c.cache, k)
				}
				return &result.Result{
					Kind:          result.NotEqual,
					Left:          c.describeFunction(fl, true),
					Right:         c.describeFunction(fr, false),
					Differences:   d.Diffs,
					Missing:       missing,
					PreInlineKind: preInline,
				}
			}

			for _, k := range invalidate {
				delete(c.cache, k)
			}
			kind := result.Equal
			if assumed {
				kind = result.AssumedEqual
			}
			return &result.Result{
				Kind:          kind,
				Left:          c.describeFunction(fl, true),
				Right:         c.describeFunction(fr, false),
				Differences:   d.Diffs,
				Missing:       missing,
				PreInlineKind: preInline,
			}
		}

		if len(d.TryInline) == 0 {
			return &result.Result{
				Kind:          result.NotEqual,
				Left:          c.describeFunction(fl, true),
				Right:         c.describeFunction(fr, false),
				Differences:   d.Diffs,
				Missing:       missing,
				PreInlineKind: preInline,
			}
		}

		inlinedAny, pairs, roundMissing := c.inlineCallSites(fl, fr, d.TryInline)
		missing = append(missing, roundMissing...)
		if !inlinedAny {
			return &result.Result{
				Kind:          result.NotEqual,
				Left:          c.describeFunction(fl, true),
				Right:         c.describeFunction(fr, false),
				Differences:   d.Diffs,
				Missing:       missing,
				PreInlineKind: preInline,
			}
		}
		invalidate = append(invalidate, pairs...)

		c.Simplifier.Simplify(fl)
		c.Simplifier.Simplify(fr)
		c.cache[key] = &result.Result{Kind: result.Unknown}
	}
}

// inlineCallSites implements spec.md §4.5 step 5's per-round body: for
// every unresolved call-site pair, apply the field-access-abstraction
// tie-break, then force-inline each side independently (recording a
// MissingDef for a declaration-only callee instead). It returns whether
// anything was inlined this round and the callee-name pairs to invalidate
// from the cache if the retry eventually succeeds.
func (c *Comparator) inlineCallSites(fl, fr *ir.Function, pairs []compare.CallSitePair) (inlinedAny bool, invalidate []pairKey, missing []result.MissingDef) {
	for _, p := range pairs {
		leftAbstraction := p.Left != nil && ir.IsSynthesizedAbstraction(p.Left.Callee)
		rightAbstraction := p.Right != nil && ir.IsSynthesizedAbstraction(p.Right.Callee)
		deferLeft := p.Right != nil && leftAbstraction && !rightAbstraction
		deferRight := p.Left != nil && rightAbstraction && !leftAbstraction

		var leftInlined, rightInlined string

		if p.Left != nil && !deferLeft {
			if name, ok := c.inlineOneSide(fl, p.Left, c.ModL, true, &missing); ok {
				inlinedAny = true
				leftInlined = name
			}
		}
		if p.Right != nil && !deferRight {
			if name, ok := c.inlineOneSide(fr, p.Right, c.ModR, false, &missing); ok {
				inlinedAny = true
				rightInlined = name
			}
		}
		if leftInlined != "" && rightInlined != "" {
			invalidate = append(invalidate, pairKey{leftInlined, rightInlined})
		}
	}
	return inlinedAny, invalidate, missing
}

// verifyRecursiveCalls re-enters Compare for every call-site pair the
// structural walk accepted as equal on callee-name identity alone
// (compare.Differential.SameNameCalls), per spec.md §4.5 step 4: a
// same-named callee is not itself proof of equivalence, so each pair must
// actually be compared. The pending-Unknown cache entry Compare installs
// before descending (this method's own caller already holds one for the
// pair currently being compared) is what keeps mutual or direct recursion
// through this list from looping forever: a pair that re-enters its own
// in-flight key gets back that pending Unknown immediately.
//
// Returns result.NotEqual the moment any pair's own verdict is NotEqual —
// the optimistic acceptance above did not hold, and per spec.md §9
// "Optimistic-cycle recovery" the assumption is discarded with no further
// action, which here means the enclosing pair's own Equal verdict cannot
// stand either. Otherwise returns result.Equal, with assumed=true if any
// pair was still Unknown (reached through a cycle, not yet itself proven)
// rather than a confirmed Equal/AssumedEqual.
func (c *Comparator) verifyRecursiveCalls(pairs []compare.CallSitePair) (verdict result.Kind, assumed bool) {
	for _, p := range pairs {
		if p.Left == nil || p.Right == nil {
			continue
		}
		sub := c.Compare(p.Left.Callee, p.Right.Callee)
		switch sub.Kind {
		case result.NotEqual:
			return result.NotEqual, false
		case result.Unknown:
			assumed = true
		}
	}
	return result.Equal, assumed
}

// inlineOneSide resolves call's callee in mod and either force-inlines it
// into caller or records it as a MissingDef, per spec.md §4.5 step 5's
// per-side rule. Intrinsic callees never reach here: tryFunctionSplit
// (internal/compare) excludes them from try_inline before this runs.
func (c *Comparator) inlineOneSide(caller *ir.Function, call *ir.CallInst, mod *ir.Module, left bool, missing *[]result.MissingDef) (calleeName string, ok bool) {
	callee, found := mod.Functions[call.Callee]
	if !found {
		return "", false
	}
	if callee.Decl && !ir.IsSynthesizedAbstraction(callee.Name) {
		md := result.MissingDef{}
		if left {
			md.Left = callee
		} else {
			md.Right = callee
		}
		*missing = append(*missing, md)
		return "", false
	}
	if !c.Inliner.Inline(caller, call, callee) {
		return "", false
	}
	return callee.Name, true
}

func (c *Comparator) describeFunction(f *ir.Function, left bool) result.FunctionInfo {
	mod := c.ModR
	if left {
		mod = c.ModL
	}
	info := result.FunctionInfo{Name: f.Name, File: f.File, Line: f.Line}
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			call, ok := inst.(*ir.CallInst)
			if !ok {
				continue
			}
			site := result.CallSite{Callee: call.Callee}
			if mod != nil {
				if loc, ok := mod.Debug.InstLoc(call); ok {
					site.File, site.Line = loc.File, loc.Line
				}
			}
			info.Calls = append(info.Calls, site)
		}
	}
	return info
}
