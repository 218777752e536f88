package errcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	assert.Equal(t, "Input", Category(ErrUnresolvedSeedSymbol))
	assert.Equal(t, "Pattern Load", Category(ErrPatternFunctionPair))
	assert.Equal(t, "Missing Definition", Category(ErrMissingDefinition))
	assert.Equal(t, "Warning", Category(WarnPatternSkipped))
}

func TestIsWarning(t *testing.T) {
	assert.True(t, IsWarning(WarnPatternSkipped))
	assert.False(t, IsWarning(ErrMalformedModule))
}

func TestAbortSinkReturnsError(t *testing.T) {
	err := AbortSink{}.Report(Diagnostic{Level: Error, Code: ErrPatternMapping, File: "p.sdir", Msg: "no mapping function"})
	assert.Error(t, err)
}

func TestWarnSinkNeverFails(t *testing.T) {
	err := WarnSink{}.Report(Diagnostic{Level: Warning, Code: WarnPatternSkipped, File: "p.sdir", Msg: "skipped"})
	assert.NoError(t, err)
}
