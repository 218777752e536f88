package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesCompareDefaultFlags(t *testing.T) {
	cfg := Default()
	assert.Equal(t, OnParseFailureWarn, cfg.OnParseFailure)
	assert.True(t, cfg.Flags.StructAlignment)
	assert.False(t, cfg.Flags.TypeCasts)
	assert.Equal(t, []string{"printk", "pr_warn", "pr_err", "pr_info", "WARN", "BUG_ON"}, cfg.KernelPrintFunctions)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	src := `
on-parse-failure: abort
patterns:
  - patterns/struct-pad.sdir
flags:
  struct-alignment: true
  function-splits: false
  unused-return-types: true
  kernel-prints: true
  dead-code: false
  numerical-macros: true
  type-casts: true
  control-flow-only: false
kernel-print-functions: [printk, pr_err]
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, OnParseFailureAbort, cfg.OnParseFailure)
	assert.Equal(t, []string{"patterns/struct-pad.sdir"}, cfg.Patterns)
	assert.True(t, cfg.Flags.TypeCasts)
	assert.False(t, cfg.Flags.FunctionSplits)
	assert.Equal(t, []string{"printk", "pr_err"}, cfg.KernelPrintFunctions)

	cf := cfg.Flags.ToCompareFlags()
	assert.True(t, cf.StructAlignment)
	assert.False(t, cf.FunctionSplits)
}

func TestLoadPatternsSkipsOnWarn(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sdir"), []byte("not valid ir text"), 0o644))

	cfg := Default()
	cfg.Patterns = []string{"bad.sdir"}

	set, err := cfg.LoadPatterns(dir)
	require.NoError(t, err)
	assert.Empty(t, set.Patterns())
}

func TestLoadPatternsAbortsOnAbort(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sdir"), []byte("not valid ir text"), 0o644))

	cfg := Default()
	cfg.OnParseFailure = OnParseFailureAbort
	cfg.Patterns = []string{"bad.sdir"}

	_, err := cfg.LoadPatterns(dir)
	assert.Error(t, err)
}
