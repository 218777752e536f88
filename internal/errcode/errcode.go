// Package errcode is the comparator's error-code taxonomy, generalizing
// internal/errors/codes.go's numbered E0xxx ranges to the D0xxx ranges
// spec.md §7 describes for a comparator rather than a compiler:
//
// D0001-D0099: Input errors (malformed module, unresolved seed symbol)
// D0100-D0199: Pattern-load errors
// D0200-D0299: Missing-definition diagnostics
// D0800-D0899: Warning codes
package errcode

const (
	// D0001: a seed pair names a symbol absent from one or both modules
	ErrUnresolvedSeedSymbol = "D0001"

	// D0002: a .sdir file failed to parse
	ErrMalformedModule = "D0002"

	// D0003: config.yaml could not be decoded into the config shape
	// (malformed YAML or a value of the wrong type); unknown keys are ignored
	ErrInvalidConfig = "D0003"

	// D0100: a pattern module's new_/old_ function pair is missing or
	// ambiguous (LoadPattern couldn't find exactly one of each)
	ErrPatternFunctionPair = "D0100"

	// D0101: a pattern module has no pattern-start marker on either side
	ErrPatternNoStart = "D0101"

	// D0102: a pattern module's mapping function is missing or malformed
	ErrPatternMapping = "D0102"

	// D0200: one side of a compared pair has a definition, the other only
	// a declaration (result.MissingDef)
	ErrMissingDefinition = "D0200"

	// D0800: on-parse-failure: warn was configured and a pattern file was
	// skipped rather than aborting the run
	WarnPatternSkipped = "D0800"
)

// Describe returns a human-readable description of a D0xxx code.
func Describe(code string) string {
	switch code {
	case ErrUnresolvedSeedSymbol:
		return "seed pair names a function absent from one or both modules"
	case ErrMalformedModule:
		return "module text failed to parse"
	case ErrInvalidConfig:
		return "configuration file could not be decoded"
	case ErrPatternFunctionPair:
		return "pattern module is missing its new_/old_ function pair"
	case ErrPatternNoStart:
		return "pattern module has no pattern-start marker"
	case ErrPatternMapping:
		return "pattern module's mapping function is missing or malformed"
	case ErrMissingDefinition:
		return "one side of the pair has only a declaration, not a definition"
	case WarnPatternSkipped:
		return "pattern file was skipped after a parse failure"
	default:
		return "unknown error code"
	}
}

// IsWarning reports whether code falls in the D08xx warning range.
func IsWarning(code string) bool {
	return code >= "D0800" && code < "D0900"
}

// Category names the range a code belongs to.
func Category(code string) string {
	switch {
	case code >= "D0001" && code < "D0100":
		return "Input"
	case code >= "D0100" && code < "D0200":
		return "Pattern Load"
	case code >= "D0200" && code < "D0300":
		return "Missing Definition"
	case code >= "D0800" && code < "D0900":
		return "Warning"
	default:
		return "Unknown"
	}
}
