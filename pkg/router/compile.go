package router

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vango-dev/waypoint/pkg/pathmatch"
)

// CompileConfig is the input to Route.Compile.
type CompileConfig struct {
	// Params fill the pattern. Bound params are passed through their
	// binding's format first.
	Params pathmatch.Params

	// Query is serialized with form encoding. Nil or empty emits no "?".
	Query QueryEncoder

	// Hash is emitted with exactly one "#".
	Hash string

	// Options override the compiler options for this call.
	Options pathmatch.CompileOptions
}

// QueryEncoder serializes a query without its "?".
type QueryEncoder interface {
	EncodeQuery() string
}

// EncodeQuery encodes q sorted by key.
func (q QueryParams) EncodeQuery() string {
	values := make(url.Values, len(q))
	for k, v := range q {
		values.Set(k, v)
	}
	return values.Encode()
}

// QueryValues is a multi-valued query, encoded sorted by key.
type QueryValues url.Values

// EncodeQuery implements QueryEncoder.
func (q QueryValues) EncodeQuery() string {
	return url.Values(q).Encode()
}

// QueryPair is one key/value pair of a QueryPairs.
type QueryPair struct {
	Key   string
	Value string
}

// QueryPairs is an ordered query. Pairs are encoded in order and may repeat
// keys.
type QueryPairs []QueryPair

// EncodeQuery implements QueryEncoder.
func (q QueryPairs) EncodeQuery() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// QueryString is a raw query string, with or without "?". It is reparsed
// and re-encoded, preserving pair order.
type QueryString string

// EncodeQuery implements QueryEncoder.
func (q QueryString) EncodeQuery() string {
	var pairs QueryPairs
	for _, part := range strings.Split(strings.TrimPrefix(string(q), "?"), "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		k, errK := url.QueryUnescape(k)
		v, errV := url.QueryUnescape(v)
		if errK != nil || errV != nil {
			continue
		}
		pairs = append(pairs, QueryPair{Key: k, Value: v})
	}
	return pairs.EncodeQuery()
}

// Compile builds "path?query#hash" for the route.
//
//	user.Compile(router.CompileConfig{
//	    Params: pathmatch.Params{"id": "7"},
//	    Query:  router.QueryParams{"tab": "info"},
//	    Hash:   "top",
//	}) // "/users/7?tab=info#top"
func (rt *Route) Compile(cfg CompileConfig) (string, error) {
	params := cfg.Params
	if len(rt.bindings) > 0 && params != nil {
		params = params.Clone()
		for name, b := range rt.bindings {
			if v, ok := params[name]; ok {
				params[name] = b.format(v)
			}
		}
	}

	compile := rt.compile
	if cfg.Options.Encode != nil || cfg.Options.SkipValidation {
		var err error
		compile, err = rt.router.engine.Compile(rt.config.Pattern, cfg.Options)
		if err != nil {
			return "", fmt.Errorf("router: compile %q: %w", rt.config.Pattern, err)
		}
	}
	path, err := compile(params)
	if err != nil {
		return "", fmt.Errorf("router: compile %q: %w", rt.config.Pattern, err)
	}

	var b strings.Builder
	b.WriteString(path)
	if cfg.Query != nil {
		if q := cfg.Query.EncodeQuery(); q != "" {
			b.WriteByte('?')
			b.WriteString(q)
		}
	}
	if h := strings.TrimPrefix(cfg.Hash, "#"); h != "" {
		b.WriteByte('#')
		b.WriteString(h)
	}
	return b.String(), nil
}

// compileRaw compiles params that are already in path form.
func (rt *Route) compileRaw(params pathmatch.Params) (string, error) {
	path, err := rt.compile(params)
	if err != nil {
		return "", fmt.Errorf("router: compile %q: %w", rt.config.Pattern, err)
	}
	return path, nil
}
