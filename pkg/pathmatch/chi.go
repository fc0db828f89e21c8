package pathmatch

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Chi matches patterns on chi's radix tree. Patterns use the same vocabulary
// as Tokens and are translated to chi syntax:
//
//	/users/:id          -> /users/{id}
//	/users/:id:int      -> /users/{id:-?[0-9]+}
//	/files/*path        -> /files/*
//
// Optional single-segment params, repeated params that are not last or carry
// a custom pattern, and static text containing "{" or "*" are reported as
// ErrUnsupportedPattern. Chi always matches case-sensitively, so
// Options.Sensitive has no effect. Compilation is shared with Tokens.
type Chi struct{}

// chiWildcard is the key chi uses for the value captured by a trailing "*".
const chiWildcard = "*"

// Match compiles pattern into a chi-backed matcher.
func (Chi) Match(pattern string, opts Options) (MatchFunc, error) {
	tokens, err := parse(pattern)
	if err != nil {
		return nil, err
	}
	chiPattern, rest, err := translate(pattern, tokens)
	if err != nil {
		return nil, err
	}

	mux := chi.NewRouter()
	if err := register(mux, chiPattern); err != nil {
		return nil, invalid(pattern, "%v", err)
	}
	if rest != nil && rest.optional() {
		// chi's "/files/*" does not match "/files" itself.
		base := strings.TrimSuffix(chiPattern, rest.prefix+"*")
		if base == "" {
			base = "/"
		}
		if err := register(mux, base); err != nil {
			return nil, invalid(pattern, "%v", err)
		}
	}
	if opts.Prefix && rest == nil {
		wildcard := strings.TrimSuffix(chiPattern, "/") + "/*"
		if err := register(mux, wildcard); err != nil {
			return nil, invalid(pattern, "%v", err)
		}
	}

	params := make(map[string]token)
	for _, tok := range tokens {
		if tok.isParam() {
			params[tok.name] = tok
		}
	}

	return func(path string) (Params, bool) {
		if !opts.Strict && len(path) > 1 {
			path = strings.TrimSuffix(path, "/")
		}
		rctx := chi.NewRouteContext()
		if !mux.Match(rctx, http.MethodGet, path) {
			return nil, false
		}
		out := make(Params, len(rctx.URLParams.Keys))
		for i, key := range rctx.URLParams.Keys {
			raw := rctx.URLParams.Values[i]
			tok, ok := params[key]
			if key == chiWildcard {
				if rest == nil {
					continue
				}
				if raw == "" {
					if rest.modifier == '+' {
						return nil, false
					}
					continue
				}
				tok, ok = *rest, true
				key = rest.name
			}
			if !ok {
				continue
			}
			v, err := decodeValue(raw, tok)
			if err != nil {
				return nil, false
			}
			out[key] = v
		}
		return out, true
	}, nil
}

// Compile builds a path compiler for pattern.
func (Chi) Compile(pattern string, opts CompileOptions) (CompileFunc, error) {
	return Tokens{}.Compile(pattern, opts)
}

// Pattern returns the chi route pattern pattern translates to.
func (Chi) Pattern(pattern string) (string, error) {
	tokens, err := parse(pattern)
	if err != nil {
		return "", err
	}
	p, _, err := translate(pattern, tokens)
	return p, err
}

// translate renders tokens as a chi pattern. It returns the trailing
// repeated param, if any, which chi reports under the wildcard key.
func translate(pattern string, tokens []token) (string, *token, error) {
	var (
		b    strings.Builder
		rest *token
	)
	for i, tok := range tokens {
		if !tok.isParam() {
			if strings.ContainsAny(tok.static, "{}*") {
				return "", nil, unsupported(pattern, "static text %q", tok.static)
			}
			b.WriteString(tok.static)
			continue
		}
		b.WriteString(tok.prefix)
		switch {
		case tok.repeated():
			if i != len(tokens)-1 {
				return "", nil, unsupported(pattern, "repeated param %q must be last", tok.name)
			}
			if tok.custom {
				return "", nil, unsupported(pattern, "repeated param %q has a custom pattern", tok.name)
			}
			t := tok
			rest = &t
			b.WriteString("*")
		case tok.optional():
			return "", nil, unsupported(pattern, "optional param %q", tok.name)
		case tok.custom || tok.typ != "":
			fmt.Fprintf(&b, "{%s:%s}", tok.name, tok.pattern)
		default:
			fmt.Fprintf(&b, "{%s}", tok.name)
		}
	}
	out := b.String()
	if out == "" {
		out = "/"
	}
	return out, rest, nil
}

// register adds a route, turning chi's panics on bad patterns into errors.
func register(mux *chi.Mux, pattern string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	mux.Handle(pattern, http.NotFoundHandler())
	return nil
}
