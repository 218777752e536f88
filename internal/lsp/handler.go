// Package lsp is the editor-facing half of cmd/semdiff-watch: an LSP
// handler that, instead of diagnosing syntax/semantic errors in one
// source file (the teacher's original KansoHandler, parsing Kanso source
// into an *ast.Contract), runs the Module Comparator over two IR modules
// and republishes its NonFunctionDifference/MissingDef findings as
// textDocument/publishDiagnostics notifications keyed by file/line.
//
// Kept in the teacher's own shape (mutex-guarded per-URI state,
// Initialize/Initialized/Shutdown/SetTrace/TextDocumentDidSave
// handlers, uriToPath/
// sendDiagnosticNotification helpers) since that shape doesn't depend on
// what the handler is diagnosing; only the "what" (two modules' Module
// Comparator verdicts, not one file's AST) was replaced.
package lsp

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"kanso/internal/config"
	"kanso/internal/irtext"
	"kanso/internal/logging"
	"kanso/internal/modcompare"
	"kanso/internal/result"
)

var log = logging.New("semdiff-watch")

// InitOptions is the shape semdiff-watch expects under LSP
// initializationOptions: the two module files to keep comparing, an
// optional config.yaml, and the seed pairs to run (spec.md §4.5's "seed
// list of symbol-name pairs", here supplied by the editor instead of a
// CLI seed file).
type InitOptions struct {
	LeftModule  string     `json:"leftModule"`
	RightModule string     `json:"rightModule"`
	ConfigPath  string     `json:"configPath"`
	Seeds       []SeedSpec `json:"seeds"`
}

type SeedSpec struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// DiffHandler implements the LSP server handlers for a running
// left-module/right-module comparison.
type DiffHandler struct {
	mu sync.RWMutex

	leftPath, rightPath string
	cfg                 *config.Config
	configDir           string
	seeds               []modcompare.SeedPair

	results []*result.Result
}

// NewDiffHandler creates a handler with no module paths configured yet;
// Initialize fills them in from initializationOptions.
func NewDiffHandler() *DiffHandler {
	return &DiffHandler{cfg: config.Default()}
}

// Initialize responds to the LSP client's initialize request: reads
// initializationOptions (loading the config file they name) and advertises
// open/close and full-content change sync. It runs no comparison (the
// first one runs in Initialized), and it does not advertise the save
// capability.
func (h *DiffHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Infof("initialize")

	if opts, err := decodeInitOptions(params.InitializationOptions); err == nil && opts != nil {
		h.mu.Lock()
		h.leftPath = opts.LeftModule
		h.rightPath = opts.RightModule
		h.configDir = filepath.Dir(opts.ConfigPath)
		for _, s := range opts.Seeds {
			h.seeds = append(h.seeds, modcompare.SeedPair{Left: s.Left, Right: s.Right})
		}
		if opts.ConfigPath != "" {
			if cfg, cerr := config.Load(opts.ConfigPath); cerr == nil {
				h.cfg = cfg
			} else {
				log.Warnf("failed to load %s: %s", opts.ConfigPath, cerr)
			}
		}
		h.mu.Unlock()
	} else if err != nil {
		log.Warnf("failed to decode initializationOptions: %s", err)
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

func decodeInitOptions(raw any) (*InitOptions, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var opts InitOptions
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Initialized runs the first comparison once the client has finished
// handshaking, publishing whatever diagnostics it finds immediately
// rather than waiting for the first save.
func (h *DiffHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Infof("initialized")
	h.recompareAndPublish(ctx)
	return nil
}

// Shutdown handles the LSP shutdown request.
func (h *DiffHandler) Shutdown(ctx *glsp.Context) error {
	log.Infof("shutdown")
	return nil
}

// SetTrace is a no-op; semdiff-watch has no separate trace verbosity
// beyond internal/logging's own level.
func (h *DiffHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// TextDocumentDidSave reruns the comparison whenever either watched
// module file is saved, and republishes the resulting diagnostics.
func (h *DiffHandler) TextDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.RLock()
	watched := path == h.leftPath || path == h.rightPath
	h.mu.RUnlock()
	if !watched {
		return nil
	}

	h.recompareAndPublish(ctx)
	return nil
}

// Recompare reloads both modules from disk and reruns every seed pair
// through the Module Comparator, without touching the LSP connection —
// the part of recompareAndPublish that has a meaningful result on its
// own, split out so it can be exercised without a live glsp.Context.
func (h *DiffHandler) Recompare() []*result.Result {
	h.mu.Lock()
	leftPath, rightPath := h.leftPath, h.rightPath
	cfg := h.cfg
	configDir := h.configDir
	seeds := h.seeds
	h.mu.Unlock()

	if leftPath == "" || rightPath == "" {
		return nil
	}

	modL, err := irtext.ParseFile(leftPath)
	if err != nil {
		log.Warnf("%s", err)
		return nil
	}
	modR, err := irtext.ParseFile(rightPath)
	if err != nil {
		log.Warnf("%s", err)
		return nil
	}
	patterns, err := cfg.LoadPatterns(configDir)
	if err != nil {
		log.Warnf("%s", err)
		return nil
	}

	cmp := modcompare.New(modL, modR, cfg.Flags.ToCompareFlags(), cfg.KernelPrintFunctions, patterns)
	results := cmp.CompareAll(seeds)

	h.mu.Lock()
	h.results = results
	h.mu.Unlock()

	return results
}

// recompareAndPublish reruns Recompare and publishes one diagnostics set
// per distinct file referenced by the results.
func (h *DiffHandler) recompareAndPublish(ctx *glsp.Context) {
	results := h.Recompare()
	if results == nil {
		return
	}
	byFile := diagnosticsByFile(results)
	for file, diags := range byFile {
		sendDiagnosticNotification(ctx, pathToURI(file), diags)
	}
}

// diagnosticsByFile flattens every result's differences/missing-defs into
// one protocol.Diagnostic per finding, grouped by the file each finding's
// location names (a SyntaxDifference's two call-stacks may point at two
// different files, one per module).
func diagnosticsByFile(results []*result.Result) map[string][]protocol.Diagnostic {
	out := make(map[string][]protocol.Diagnostic)
	add := func(file string, line int, severity protocol.DiagnosticSeverity, msg string) {
		if file == "" {
			return
		}
		l := uint32(0)
		if line > 0 {
			l = uint32(line - 1)
		}
		out[file] = append(out[file], protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: l, Character: 0},
				End:   protocol.Position{Line: l, Character: 1 << 10},
			},
			Severity: &severity,
			Source:   strPtr("semdiff"),
			Message:  msg,
		})
	}

	for _, r := range results {
		if r.Kind != result.NotEqual && len(r.Differences) == 0 && len(r.Missing) == 0 {
			continue
		}
		for _, d := range r.Differences {
			switch diff := d.(type) {
			case result.SyntaxDifference:
				if frame, ok := lastFrame(diff.StackL); ok {
					add(frame.File, frame.Line, protocol.DiagnosticSeverityWarning,
						fmt.Sprintf("%s: differs from the right side", diff.Name))
				}
				if frame, ok := lastFrame(diff.StackR); ok {
					add(frame.File, frame.Line, protocol.DiagnosticSeverityWarning,
						fmt.Sprintf("%s: differs from the left side", diff.Name))
				}
			case result.TypeDifference:
				add(diff.LocL.File, diff.LocL.Line, protocol.DiagnosticSeverityWarning,
					fmt.Sprintf("%s: differs from the right side's definition", diff.Name))
				add(diff.LocR.File, diff.LocR.Line, protocol.DiagnosticSeverityWarning,
					fmt.Sprintf("%s: differs from the left side's definition", diff.Name))
			}
		}
		for _, m := range r.Missing {
			if m.Left != nil {
				add(m.Left.File, m.Left.Line, protocol.DiagnosticSeverityError,
					fmt.Sprintf("%s has no definition on the left side", m.Left.Name))
			}
			if m.Right != nil {
				add(m.Right.File, m.Right.Line, protocol.DiagnosticSeverityError,
					fmt.Sprintf("%s has no definition on the right side", m.Right.Name))
			}
		}
		if r.Kind == result.NotEqual && len(r.Differences) == 0 {
			add(r.Left.File, r.Left.Line, protocol.DiagnosticSeverityWarning,
				fmt.Sprintf("%s and %s diverge", r.Left.Name, r.Right.Name))
		}
	}
	return out
}

func lastFrame(stack result.CallStack) (result.Frame, bool) {
	if len(stack) == 0 {
		return result.Frame{}, false
	}
	return stack[len(stack)-1], true
}

// uriToPath converts a file:// URI to a platform-local path.
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

// pathToURI is uriToPath's inverse, used to key a publishDiagnostics
// notification by the file the finding's debug location names.
func pathToURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func sendDiagnosticNotification(ctx *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	log.Debugf("publishing %d diagnostics for %s", len(diagnostics), uri)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}

func strPtr(s string) *string {
	return &s
}
