// Package pathmatch turns path patterns into matchers and compilers.
//
// The router consumes patterns only through the Engine interface, so any
// implementation with the same contract is interchangeable. Two engines are
// provided:
//
//   - Tokens, the default, a regexp engine over the path-to-regexp
//     vocabulary: static text, named params (:id), modifiers (:id? :rest*
//     :rest+), custom patterns (:id(\d+)), typed params (:id:int, :id:uint,
//     :id:uuid) and catch-alls (*path).
//   - Chi, which matches on chi's routing tree. It accepts the same pattern
//     vocabulary and reports what chi cannot express as
//     ErrUnsupportedPattern.
//
// Matched values are percent-decoded. A single-segment param whose decoded
// value contains "/" does not match.
package pathmatch

// Params holds the values extracted by a match, keyed by param name.
// Repeated params (:rest* :rest+ *path) hold their segments joined by "/".
type Params map[string]string

// Clone returns a copy of p. A nil p stays nil.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Options configure a matcher.
type Options struct {
	// Sensitive makes static text match case-sensitively.
	Sensitive bool

	// Strict disallows an optional trailing slash.
	Strict bool

	// Prefix matches when the pattern matches a leading run of whole
	// segments instead of the entire path.
	Prefix bool
}

// CompileOptions configure a compiler.
type CompileOptions struct {
	// Encode escapes each segment value. Nil uses url.PathEscape.
	Encode func(string) string

	// SkipValidation disables checking values against their param patterns.
	SkipValidation bool
}

// MatchFunc reports the params extracted from path, or false when path does
// not match.
type MatchFunc func(path string) (Params, bool)

// CompileFunc builds a path from params.
type CompileFunc func(params Params) (string, error)

// Engine compiles patterns.
type Engine interface {
	Match(pattern string, opts Options) (MatchFunc, error)
	Compile(pattern string, opts CompileOptions) (CompileFunc, error)
}

// Default is the engine used when none is configured.
var Default Engine = Tokens{}
