package ir

import (
	"fmt"
	"strings"
)

// Type is the common interface for all IR types. Two Type values are never
// compared by pointer identity since the left and right modules are parsed
// independently; internal/correspond.RelateTypes does the structural
// recursion that decides whether two Type trees denote the same type.
type Type interface {
	String() string
}

type VoidType struct{}

func (t *VoidType) String() string { return "void" }

type IntType struct {
	Bits int
}

func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }

type PointerType struct {
	Elem Type
}

func (t *PointerType) String() string { return t.Elem.String() + "*" }

type ArrayType struct {
	Elem Type
	Len  int
}

func (t *ArrayType) String() string { return fmt.Sprintf("[%d x %s]", t.Len, t.Elem.String()) }

// StructType is an aggregate type. Two struct types relate across modules
// only when their names are equal and their fields relate pairwise; the
// SizeIndex (Module.Sizes) is not consulted, so equal-layout aggregates
// with different names never relate.
type StructType struct {
	Name   string
	Fields []Type
}

func (t *StructType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%%%s = { %s }", t.Name, strings.Join(parts, ", "))
}

type FuncType struct {
	Params []Type
	Ret    Type
	Vararg bool
}

func (t *FuncType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	va := ""
	if t.Vararg {
		va = ", ..."
	}
	return fmt.Sprintf("%s(%s%s)", t.Ret.String(), strings.Join(parts, ", "), va)
}

// SameConstructor reports whether two types are built from the same
// top-level constructor, ignoring nested structure. It is the first step of
// the structural recursion in internal/correspond.RelateTypes.
func SameConstructor(a, b Type) bool {
	switch a.(type) {
	case *VoidType:
		_, ok := b.(*VoidType)
		return ok
	case *IntType:
		_, ok := b.(*IntType)
		return ok
	case *PointerType:
		_, ok := b.(*PointerType)
		return ok
	case *ArrayType:
		_, ok := b.(*ArrayType)
		return ok
	case *StructType:
		_, ok := b.(*StructType)
		return ok
	case *FuncType:
		_, ok := b.(*FuncType)
		return ok
	default:
		return false
	}
}
