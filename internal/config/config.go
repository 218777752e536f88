// Package config loads the comparator's run configuration: which
// benign-pattern flags are active (internal/compare.Flags), which pattern
// files to load (internal/patternmatch), how to treat a pattern file that
// fails to parse, and the kernel-print function list the "kernel-prints"
// flag consults (spec.md §4.3/§6). Parsed with gopkg.in/yaml.v3, the
// teacher's own serialization library for everything structured it writes
// to disk or reads back (see grammar's own use of struct tags for a
// similar "declare the shape once" style).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"kanso/internal/compare"
	"kanso/internal/errcode"
	"kanso/internal/irtext"
	"kanso/internal/patternmatch"
)

// OnParseFailure selects what PatternSet loading does when one pattern
// file fails to parse: warn and skip it, or abort the whole load.
type OnParseFailure string

const (
	OnParseFailureWarn  OnParseFailure = "warn"
	OnParseFailureAbort OnParseFailure = "abort"
)

// Flags mirrors compare.Flags field-for-field in YAML's kebab-case
// convention, kept as a distinct type so config's on-disk shape doesn't
// couple directly to compare's Go identifiers.
type Flags struct {
	StructAlignment   bool `yaml:"struct-alignment"`
	FunctionSplits    bool `yaml:"function-splits"`
	UnusedReturnTypes bool `yaml:"unused-return-types"`
	KernelPrints      bool `yaml:"kernel-prints"`
	DeadCode          bool `yaml:"dead-code"`
	NumericalMacros   bool `yaml:"numerical-macros"`
	TypeCasts         bool `yaml:"type-casts"`
	ControlFlowOnly   bool `yaml:"control-flow-only"`
}

// ToCompareFlags converts to the type internal/compare actually consumes.
func (f Flags) ToCompareFlags() compare.Flags {
	return compare.Flags{
		StructAlignment:   f.StructAlignment,
		FunctionSplits:    f.FunctionSplits,
		UnusedReturnTypes: f.UnusedReturnTypes,
		KernelPrints:      f.KernelPrints,
		DeadCode:          f.DeadCode,
		NumericalMacros:   f.NumericalMacros,
		TypeCasts:         f.TypeCasts,
		ControlFlowOnly:   f.ControlFlowOnly,
	}
}

// defaultKernelPrintFns is DiffKemp's well-known diagnostic/print function
// list (SPEC_FULL.md SUPPLEMENTED FEATURES), used whenever a config file
// omits kernel-print-functions entirely.
var defaultKernelPrintFns = []string{"printk", "pr_warn", "pr_err", "pr_info", "WARN", "BUG_ON"}

// Config is the full on-disk shape (SPEC_FULL.md's internal/config
// example): which patterns to load, which flags are active, how strictly
// to treat a pattern parse failure, and the kernel-print function list.
type Config struct {
	OnParseFailure       OnParseFailure `yaml:"on-parse-failure"`
	Patterns             []string       `yaml:"patterns"`
	Flags                Flags          `yaml:"flags"`
	KernelPrintFunctions []string       `yaml:"kernel-print-functions"`
}

// Default returns the configuration a bare run uses absent a config.yaml:
// compare.DefaultFlags(), no patterns, warn-and-skip on a bad pattern
// file, and the default kernel-print function list.
func Default() *Config {
	return &Config{
		OnParseFailure:       OnParseFailureWarn,
		Flags:                fromCompareFlags(compare.DefaultFlags()),
		KernelPrintFunctions: append([]string(nil), defaultKernelPrintFns...),
	}
}

func fromCompareFlags(f compare.Flags) Flags {
	return Flags{
		StructAlignment:   f.StructAlignment,
		FunctionSplits:    f.FunctionSplits,
		UnusedReturnTypes: f.UnusedReturnTypes,
		KernelPrints:      f.KernelPrints,
		DeadCode:          f.DeadCode,
		NumericalMacros:   f.NumericalMacros,
		TypeCasts:         f.TypeCasts,
		ControlFlowOnly:   f.ControlFlowOnly,
	}
}

// Load reads and parses a config.yaml from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", errcode.ErrInvalidConfig, err)
	}
	if cfg.OnParseFailure == "" {
		cfg.OnParseFailure = OnParseFailureWarn
	}
	if len(cfg.KernelPrintFunctions) == 0 {
		cfg.KernelPrintFunctions = append([]string(nil), defaultKernelPrintFns...)
	}
	return cfg, nil
}

// LoadPatterns parses every pattern file cfg.Patterns names (resolved
// relative to baseDir, typically the config file's own directory) and
// returns the assembled PatternSet, honoring OnParseFailure for any file
// that fails to parse or fails patternmatch.LoadPattern's structural
// checks.
func (c *Config) LoadPatterns(baseDir string) (*patternmatch.PatternSet, error) {
	set := patternmatch.NewPatternSet()
	var sink errcode.Sink = errcode.WarnSink{}
	if c.OnParseFailure == OnParseFailureAbort {
		sink = errcode.AbortSink{}
	}

	for _, rel := range c.Patterns {
		path := rel
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, rel)
		}
		mod, err := irtext.ParseFile(path)
		if err != nil {
			if rerr := sink.Report(errcode.Diagnostic{
				Level: errcode.Warning,
				Code:  errcode.ErrMalformedModule,
				File:  path,
				Msg:   err.Error(),
			}); rerr != nil {
				return nil, rerr
			}
			continue
		}
		pat, err := patternmatch.LoadPattern(mod, 0)
		if err != nil {
			if rerr := sink.Report(errcode.Diagnostic{
				Level: errcode.Warning,
				Code:  errcode.ErrPatternFunctionPair,
				File:  path,
				Msg:   err.Error(),
			}); rerr != nil {
				return nil, rerr
			}
			continue
		}
		set.Add(pat)
	}
	return set, nil
}
