package correspond

import (
	"testing"

	"kanso/internal/ir"
)

func TestRelateIsReflexiveAndDetectsConflict(t *testing.T) {
	c := New()
	a := &ir.Value{ID: 0, Type: &ir.IntType{Bits: 32}}
	b := &ir.Value{ID: 0, Type: &ir.IntType{Bits: 32}}
	other := &ir.Value{ID: 1, Type: &ir.IntType{Bits: 32}}

	if status := c.Relate(a, b); status != Consistent {
		t.Fatalf("first binding should be consistent, got %v", status)
	}
	if status := c.Relate(a, b); status != Consistent {
		t.Fatalf("re-asserting the same pair should be consistent, got %v", status)
	}
	if status := c.Relate(a, other); status != Conflict {
		t.Fatalf("binding a to a second right value must conflict, got %v", status)
	}

	got, ok := c.LookupLeft(a)
	if !ok || got != b {
		t.Fatalf("LookupLeft(a) = %v, %v; want %v, true", got, ok, b)
	}
}

func TestRelateTypesStructural(t *testing.T) {
	c := New()
	l := &ir.PointerType{Elem: &ir.IntType{Bits: 64}}
	r := &ir.PointerType{Elem: &ir.IntType{Bits: 64}}
	if !c.RelateTypes(l, r) {
		t.Fatal("structurally identical pointer types should relate")
	}

	mismatched := &ir.PointerType{Elem: &ir.IntType{Bits: 32}}
	if c.RelateTypes(l, mismatched) {
		t.Fatal("pointer types over different bit widths must not relate")
	}
}

func TestRelateTypesStructFieldMismatch(t *testing.T) {
	c := New()
	l := &ir.StructType{Name: "pair", Fields: []ir.Type{&ir.IntType{Bits: 32}, &ir.IntType{Bits: 32}}}
	r := &ir.StructType{Name: "pair", Fields: []ir.Type{&ir.IntType{Bits: 32}, &ir.IntType{Bits: 64}}}
	if c.RelateTypes(l, r) {
		t.Fatal("structs with differing field types must not relate even when names match")
	}
}
