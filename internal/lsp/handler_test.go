package lsp_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"kanso/internal/lsp"
	"kanso/internal/result"
)

const sdirLeft = `
module m {
define i32 @f() {
entry:
  ret i32 1
}
}
`

const sdirRight = `
module m {
define i32 @f() {
entry:
  ret i32 2
}
}
`

func writeModules(t *testing.T) (left, right string) {
	dir := t.TempDir()
	left = filepath.Join(dir, "left.sdir")
	right = filepath.Join(dir, "right.sdir")
	require.NoError(t, os.WriteFile(left, []byte(sdirLeft), 0o644))
	require.NoError(t, os.WriteFile(right, []byte(sdirRight), 0o644))
	return left, right
}

func TestInitializeDecodesOptionsAndAdvertisesSync(t *testing.T) {
	left, right := writeModules(t)
	h := lsp.NewDiffHandler()

	ctx := &glsp.Context{}
	params := &protocol.InitializeParams{
		InitializationOptions: map[string]any{
			"leftModule":  left,
			"rightModule": right,
			"seeds": []map[string]string{
				{"left": "f", "right": "f"},
			},
		},
	}

	res, err := h.Initialize(ctx, params)
	require.NoError(t, err)
	require.NotNil(t, res)

	result, ok := res.(*protocol.InitializeResult)
	require.True(t, ok)
	assert.NotNil(t, result.Capabilities.TextDocumentSync)
}

func TestRecompareFindsDivergence(t *testing.T) {
	left, right := writeModules(t)
	h := lsp.NewDiffHandler()

	ctx := &glsp.Context{}
	_, err := h.Initialize(ctx, &protocol.InitializeParams{
		InitializationOptions: map[string]any{
			"leftModule":  left,
			"rightModule": right,
			"seeds": []map[string]string{
				{"left": "f", "right": "f"},
			},
		},
	})
	require.NoError(t, err)

	results := h.Recompare()
	require.Len(t, results, 1)
	assert.Equal(t, result.NotEqual, results[0].Kind)
}
