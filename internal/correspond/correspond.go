// Package correspond implements the Value/Type Correspondence described in
// spec.md §4.1: a bidirectional, incrementally built mapping between two
// modules' values, basic blocks, and types, maintained as a partial
// bijection for the lifetime of one top-level function-pair comparison.
package correspond

import "kanso/internal/ir"

// Status is the result of attempting to extend the correspondence.
type Status int

const (
	Consistent Status = iota
	Conflict
)

// Correspondence tracks left<->right associations for instruction results,
// function arguments, basic blocks, and aggregate types. One instance is
// created per top-level function-pair comparison and reset before each
// (spec.md §3 "Invariants": "The Value Correspondence is reset at the start
// of every top-level function-pair comparison").
type Correspondence struct {
	leftToRight map[*ir.Value]*ir.Value
	rightToLeft map[*ir.Value]*ir.Value

	blockLToR map[*ir.BasicBlock]*ir.BasicBlock
	blockRToL map[*ir.BasicBlock]*ir.BasicBlock

	typeLToR map[ir.Type]ir.Type
	typeRToL map[ir.Type]ir.Type
}

func New() *Correspondence {
	return &Correspondence{
		leftToRight: make(map[*ir.Value]*ir.Value),
		rightToLeft: make(map[*ir.Value]*ir.Value),
		blockLToR:   make(map[*ir.BasicBlock]*ir.BasicBlock),
		blockRToL:   make(map[*ir.BasicBlock]*ir.BasicBlock),
		typeLToR:    make(map[ir.Type]ir.Type),
		typeRToL:    make(map[ir.Type]ir.Type),
	}
}

// Relate attempts to bind l and r as corresponding values. If neither side
// is bound, it installs both directions and returns Consistent. If both
// are already bound to each other, it is a no-op and returns Consistent.
// Any other configuration is a Conflict: the relation would no longer be a
// partial bijection (spec.md §3 "Invariants").
func (c *Correspondence) Relate(l, r *ir.Value) Status {
	existingR, lBound := c.leftToRight[l]
	existingL, rBound := c.rightToLeft[r]

	switch {
	case !lBound && !rBound:
		c.leftToRight[l] = r
		c.rightToLeft[r] = l
		return Consistent
	case lBound && rBound:
		if existingR == r && existingL == l {
			return Consistent
		}
		return Conflict
	default:
		// One side already bound to something else: extending would
		// violate the bijection.
		return Conflict
	}
}

func (c *Correspondence) LookupLeft(l *ir.Value) (*ir.Value, bool) {
	r, ok := c.leftToRight[l]
	return r, ok
}

func (c *Correspondence) LookupRight(r *ir.Value) (*ir.Value, bool) {
	l, ok := c.rightToLeft[r]
	return l, ok
}

// RelateBlocks extends the correspondence with a basic-block pair, under
// the same bijection discipline as Relate.
func (c *Correspondence) RelateBlocks(l, r *ir.BasicBlock) Status {
	existingR, lBound := c.blockLToR[l]
	existingL, rBound := c.blockRToL[r]

	switch {
	case !lBound && !rBound:
		c.blockLToR[l] = r
		c.blockRToL[r] = l
		return Consistent
	case lBound && rBound:
		if existingR == r && existingL == l {
			return Consistent
		}
		return Conflict
	default:
		return Conflict
	}
}

func (c *Correspondence) LookupBlockLeft(l *ir.BasicBlock) (*ir.BasicBlock, bool) {
	r, ok := c.blockLToR[l]
	return r, ok
}

// Snapshot captures the current bijection so a tentative sub-walk (a
// Pattern Matcher attempt, or a benign-pattern rule probing whether it
// applies) can be rolled back on failure without polluting the enclosing
// walk's state.
type Snapshot struct {
	leftToRight map[*ir.Value]*ir.Value
	rightToLeft map[*ir.Value]*ir.Value
	blockLToR   map[*ir.BasicBlock]*ir.BasicBlock
	blockRToL   map[*ir.BasicBlock]*ir.BasicBlock
}

func (c *Correspondence) Snapshot() Snapshot {
	return Snapshot{
		leftToRight: cloneValueMap(c.leftToRight),
		rightToLeft: cloneValueMap(c.rightToLeft),
		blockLToR:   cloneBlockMap(c.blockLToR),
		blockRToL:   cloneBlockMap(c.blockRToL),
	}
}

func (c *Correspondence) Restore(s Snapshot) {
	c.leftToRight = s.leftToRight
	c.rightToLeft = s.rightToLeft
	c.blockLToR = s.blockLToR
	c.blockRToL = s.blockRToL
}

func cloneValueMap(m map[*ir.Value]*ir.Value) map[*ir.Value]*ir.Value {
	out := make(map[*ir.Value]*ir.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneBlockMap(m map[*ir.BasicBlock]*ir.BasicBlock) map[*ir.BasicBlock]*ir.BasicBlock {
	out := make(map[*ir.BasicBlock]*ir.BasicBlock, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RelateTypes performs the structural recursion over type constructors
// spec.md §4.1 describes, caching the result so repeated comparisons of
// the same type pair are O(1). Struct types with different names never
// relate; no layout match through Module.Sizes is attempted, here or in
// the caller.
func (c *Correspondence) RelateTypes(l, r ir.Type) bool {
	if cached, ok := c.typeLToR[l]; ok {
		return cached == r
	}
	if cached, ok := c.typeRToL[r]; ok {
		return cached == l
	}

	if !ir.SameConstructor(l, r) {
		return false
	}

	ok := relateTypeStructure(c, l, r)
	if ok {
		c.typeLToR[l] = r
		c.typeRToL[r] = l
	}
	return ok
}

func relateTypeStructure(c *Correspondence, l, r ir.Type) bool {
	switch lt := l.(type) {
	case *ir.VoidType:
		return true
	case *ir.IntType:
		rt := r.(*ir.IntType)
		return lt.Bits == rt.Bits
	case *ir.PointerType:
		rt := r.(*ir.PointerType)
		return c.RelateTypes(lt.Elem, rt.Elem)
	case *ir.ArrayType:
		rt := r.(*ir.ArrayType)
		return lt.Len == rt.Len && c.RelateTypes(lt.Elem, rt.Elem)
	case *ir.StructType:
		rt := r.(*ir.StructType)
		if lt.Name != rt.Name {
			return false
		}
		if len(lt.Fields) != len(rt.Fields) {
			return false
		}
		for i := range lt.Fields {
			if !c.RelateTypes(lt.Fields[i], rt.Fields[i]) {
				return false
			}
		}
		return true
	case *ir.FuncType:
		rt := r.(*ir.FuncType)
		if lt.Vararg != rt.Vararg || len(lt.Params) != len(rt.Params) {
			return false
		}
		for i := range lt.Params {
			if !c.RelateTypes(lt.Params[i], rt.Params[i]) {
				return false
			}
		}
		return c.RelateTypes(lt.Ret, rt.Ret)
	default:
		return false
	}
}
