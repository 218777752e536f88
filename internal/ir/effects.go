package ir

// Effects describe the side effects of an instruction, generalized from the
// teacher's storage/memory effect split for the "dead-code" benign pattern
// (spec.md §4.3): an instruction is dead-code-eligible only if its result is
// unused *and* HasSideEffects reports false for it.

// Effect is the common interface for per-instruction side-effect
// descriptions.
type Effect interface {
	EffectKind() string
}

type MemoryEffect struct {
	Write    bool
	Volatile bool
}

func (m *MemoryEffect) EffectKind() string { return "memory" }

type CallEffect struct {
	Callee string
}

func (c *CallEffect) EffectKind() string { return "call" }

type PureEffect struct{}

func (p *PureEffect) EffectKind() string { return "pure" }

// Effects returns the side effects carried by inst.
func Effects(inst Instruction) []Effect {
	switch v := inst.(type) {
	case *LoadInst:
		return []Effect{&MemoryEffect{Write: false, Volatile: v.Volatile}}
	case *StoreInst:
		return []Effect{&MemoryEffect{Write: true, Volatile: v.Volatile}}
	case *AllocaInst:
		return []Effect{&PureEffect{}} // local frame allocation, no observable effect
	case *CallInst:
		return []Effect{&CallEffect{Callee: v.Callee}}
	case *InlineAsmInst:
		return []Effect{&CallEffect{Callee: "asm"}}
	default:
		return []Effect{&PureEffect{}}
	}
}

// HasSideEffects reports whether an instruction may not be removed purely
// because its result is unused: volatile memory accesses, stores, and
// calls (the callee's own behavior is unknown to the comparator) all carry
// side effects; everything else is dead-code eligible when unused.
func HasSideEffects(inst Instruction) bool {
	for _, e := range Effects(inst) {
		switch eff := e.(type) {
		case *MemoryEffect:
			if eff.Write || eff.Volatile {
				return true
			}
		case *CallEffect:
			return true
		}
	}
	return false
}
