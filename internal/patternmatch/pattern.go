// Package patternmatch implements the Pattern Matcher (spec.md §4.4): a
// library of hand-authored "this divergence is benign" rewrite rules,
// each given as a pair of IR fragments (a new_<Name>/old_<Name> function
// pair) plus a final value mapping, matched against the module being
// compared whenever the Differential Function Comparator's catalogue
// (internal/compare) declines a divergence outright.
package patternmatch

import (
	"fmt"
	"strings"

	"kanso/internal/ir"
)

const (
	newPrefix     = "new_"
	oldPrefix     = "old_"
	mappingFnName = "mapping"
)

// MappingPair is one constraint from the pattern's final-mapping function:
// a new-side value must end up corresponding to a specific old-side value
// for the match to be accepted (spec.md §4.4).
type MappingPair struct {
	NewVal, OldVal *ir.Value
}

// Pattern is one loaded new_/old_ pair plus its final mapping.
type Pattern struct {
	Name string

	Module *ir.Module
	New    *ir.Function
	Old    *ir.Function

	StartBlockNew *ir.BasicBlock
	StartIdxNew   int
	StartBlockOld *ir.BasicBlock
	StartIdxOld   int

	BasicBlockLimit int
	FinalMapping    []MappingPair
}

// startOpNew/startOpOld report the opcode of each side's pattern-start
// instruction, used as a cheap compatibility pre-filter before attempting
// the (comparatively expensive) sub-walk.
func (p *Pattern) startOpNew() ir.Opcode {
	return p.StartBlockNew.Insts[p.StartIdxNew].Op()
}

func (p *Pattern) startOpOld() ir.Opcode {
	return p.StartBlockOld.Insts[p.StartIdxOld].Op()
}

// PatternSet is the loaded library consulted on every unresolved
// divergence.
type PatternSet struct {
	patterns []*Pattern
}

func NewPatternSet() *PatternSet { return &PatternSet{} }

func (s *PatternSet) Add(p *Pattern) { s.patterns = append(s.patterns, p) }

func (s *PatternSet) Patterns() []*Pattern { return s.patterns }

// LoadPattern extracts a Pattern from a parsed pattern module (spec.md
// §4.4 "Loading a pattern"): locate the new_<Name>/old_<Name> function
// pair, the single pattern-start instruction on each side, and the
// mapping function's final-mapping pairs.
//
// A module containing more than one new_/old_ base name is rejected
// outright — per-pattern-module loading (one pattern per file) keeps the
// "exactly one start pair" requirement simple to enforce.
func LoadPattern(mod *ir.Module, basicBlockLimit int) (*Pattern, error) {
	if mod.Pattern == nil {
		return nil, fmt.Errorf("patternmatch: module %q carries no pattern metadata", mod.Name)
	}

	var name string
	var newFn, oldFn *ir.Function
	for _, fname := range mod.Order {
		switch {
		case strings.HasPrefix(fname, newPrefix):
			if newFn != nil {
				return nil, fmt.Errorf("patternmatch: module %q defines more than one new_ function", mod.Name)
			}
			name = strings.TrimPrefix(fname, newPrefix)
			newFn = mod.Functions[fname]
		case strings.HasPrefix(fname, oldPrefix):
			if oldFn != nil {
				return nil, fmt.Errorf("patternmatch: module %q defines more than one old_ function", mod.Name)
			}
			oldFn = mod.Functions[fname]
		}
	}
	if newFn == nil || oldFn == nil {
		return nil, fmt.Errorf("patternmatch: module %q is missing its new_/old_ pair", mod.Name)
	}

	startBlockNew, startIdxNew, err := findStart(mod, newFn)
	if err != nil {
		return nil, fmt.Errorf("patternmatch: new_%s: %w", name, err)
	}
	startBlockOld, startIdxOld, err := findStart(mod, oldFn)
	if err != nil {
		return nil, fmt.Errorf("patternmatch: old_%s: %w", name, err)
	}

	mappingFn, ok := mod.Functions[mappingFnName]
	if !ok {
		return nil, fmt.Errorf("patternmatch: module %q has no %s function", mod.Name, mappingFnName)
	}
	pairs, err := extractMapping(mappingFn)
	if err != nil {
		return nil, fmt.Errorf("patternmatch: %s: %w", mappingFnName, err)
	}

	return &Pattern{
		Name:            name,
		Module:          mod,
		New:             newFn,
		Old:             oldFn,
		StartBlockNew:   startBlockNew,
		StartIdxNew:     startIdxNew,
		StartBlockOld:   startBlockOld,
		StartIdxOld:     startIdxOld,
		BasicBlockLimit: basicBlockLimit,
		FinalMapping:    pairs,
	}, nil
}

// findStart locates the single instruction marked pattern-start in f,
// rejecting a function with zero or more than one.
func findStart(mod *ir.Module, f *ir.Function) (*ir.BasicBlock, int, error) {
	var block *ir.BasicBlock
	idx := -1
	for _, b := range f.Blocks {
		for i, inst := range b.Insts {
			if mod.Pattern.IsStart(inst) {
				if block != nil {
					return nil, 0, fmt.Errorf("more than one pattern-start instruction")
				}
				block, idx = b, i
			}
		}
	}
	if block == nil {
		return nil, 0, fmt.Errorf("no pattern-start instruction")
	}
	return block, idx, nil
}

// extractMapping reads the mapping function's body as a sequence of
// 2-operand instructions, each pairing a new-side value with the
// old-side value it must correspond to (spec.md §4.4: "a distinguished
// mapping function ... encodes, via pairs of values, the final
// new<->old mapping constraint"). Every instruction in the function is
// read this way regardless of opcode; mapping bodies exist only to
// declare these pairs; they are never themselves compared structurally.
func extractMapping(f *ir.Function) ([]MappingPair, error) {
	var pairs []MappingPair
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			ops := inst.Operands()
			if len(ops) < 2 {
				continue
			}
			nv := operandValueOf(ops[0])
			ov := operandValueOf(ops[1])
			if nv == nil || ov == nil {
				continue
			}
			pairs = append(pairs, MappingPair{NewVal: nv, OldVal: ov})
		}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("declares no mapping pairs")
	}
	return pairs, nil
}

func operandValueOf(o ir.Operand) *ir.Value {
	if o.Arg != nil {
		return o.Arg
	}
	return o.Inst
}
