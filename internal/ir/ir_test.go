package ir

import "testing"

func TestBaseNameStripsNumericSuffix(t *testing.T) {
	cases := map[string]string{
		"foo":      "foo",
		"foo.17":   "foo",
		"foo.bar":  "foo.bar",
		"foo.":     "foo.",
		"a.b.42":   "a.b",
		"foo.17.3": "foo.17",
	}
	for in, want := range cases {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSynthesizedAbstraction(t *testing.T) {
	if !IsSynthesizedAbstraction("__abstraction_get_field.3") {
		t.Error("expected abstraction prefix to be recognized through a suffix")
	}
	if !IsSynthesizedAbstraction(AsmWrapperPrefix + "outline_asm") {
		t.Error("expected asm-wrapper prefix to be recognized")
	}
	if IsSynthesizedAbstraction("helper") {
		t.Error("plain helper name must not be treated as synthesized")
	}
}

func TestSameConstructor(t *testing.T) {
	if !SameConstructor(&IntType{Bits: 32}, &IntType{Bits: 64}) {
		t.Error("two IntTypes of different width are still the same constructor")
	}
	if SameConstructor(&IntType{Bits: 32}, &PointerType{Elem: &IntType{Bits: 32}}) {
		t.Error("IntType and PointerType must not be the same constructor")
	}
}

func TestHasSideEffects(t *testing.T) {
	load := &LoadInst{Res: &Value{ID: 0, Type: &IntType{Bits: 32}}}
	if HasSideEffects(load) {
		t.Error("a plain (non-volatile) load has no side effects")
	}

	volatileLoad := &LoadInst{Res: &Value{ID: 0, Type: &IntType{Bits: 32}}, Volatile: true}
	if !HasSideEffects(volatileLoad) {
		t.Error("a volatile load has side effects")
	}

	store := &StoreInst{}
	if !HasSideEffects(store) {
		t.Error("a store always has side effects")
	}

	call := &CallInst{Callee: "helper"}
	if !HasSideEffects(call) {
		t.Error("a call's effects are unknown to the comparator, so it is never dead-code eligible")
	}
}

func TestVerifyCatchesMissingTerminator(t *testing.T) {
	fn := &Function{
		Name: "broken",
		Blocks: []*BasicBlock{
			{Label: "entry", Insts: []Instruction{
				&AllocaInst{Res: &Value{ID: 0, Type: &IntType{Bits: 32}}},
			}},
		},
	}

	problems := Verify(fn, discard{})
	if len(problems) == 0 {
		t.Fatal("expected Verify to flag a block with no terminator")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
