package ir

// PatternMeta carries the pattern-module-only metadata spec.md §4.4/§6
// names: pattern-start, pattern-end, basic-block-limit(-end). Ordinary
// modules never populate this; internal/irtext attaches it only while
// parsing a pattern module, and internal/patternmatch is the sole reader.
type PatternMeta struct {
	start      map[Instruction]bool
	end        map[Instruction]bool
	bbLimitEnd map[Instruction]bool
}

func NewPatternMeta() *PatternMeta {
	return &PatternMeta{
		start:      make(map[Instruction]bool),
		end:        make(map[Instruction]bool),
		bbLimitEnd: make(map[Instruction]bool),
	}
}

func (p *PatternMeta) MarkStart(i Instruction)      { p.start[i] = true }
func (p *PatternMeta) IsStart(i Instruction) bool   { return p.start[i] }
func (p *PatternMeta) MarkEnd(i Instruction)        { p.end[i] = true }
func (p *PatternMeta) IsEnd(i Instruction) bool     { return p.end[i] }
func (p *PatternMeta) MarkBBLimitEnd(i Instruction) { p.bbLimitEnd[i] = true }
func (p *PatternMeta) IsBBLimitEnd(i Instruction) bool {
	return p.bbLimitEnd[i]
}
