package pathmatch

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/vango-dev/waypoint/pkg/history"
)

// Tokens is the default regexp engine. The zero value is ready to use.
type Tokens struct{}

// Match compiles pattern into a matcher.
func (Tokens) Match(pattern string, opts Options) (MatchFunc, error) {
	tokens, err := parse(pattern)
	if err != nil {
		return nil, err
	}
	re, params, err := buildRegexp(pattern, tokens, opts)
	if err != nil {
		return nil, err
	}
	return func(path string) (Params, bool) {
		idx := re.FindStringSubmatchIndex(path)
		if idx == nil {
			return nil, false
		}
		out := make(Params, len(params))
		for i, tok := range params {
			start, end := idx[2*(i+1)], idx[2*(i+1)+1]
			if start < 0 {
				continue
			}
			v, err := decodeValue(path[start:end], tok)
			if err != nil {
				return nil, false
			}
			out[tok.name] = v
		}
		return out, true
	}, nil
}

// Compile builds a path compiler for pattern.
func (Tokens) Compile(pattern string, opts CompileOptions) (CompileFunc, error) {
	tokens, err := parse(pattern)
	if err != nil {
		return nil, err
	}
	return newCompiler(tokens, opts), nil
}

// Regexp returns the regular expression Match would use for pattern. It is
// exposed for diagnostics.
func (Tokens) Regexp(pattern string, opts Options) (*regexp.Regexp, error) {
	tokens, err := parse(pattern)
	if err != nil {
		return nil, err
	}
	re, _, err := buildRegexp(pattern, tokens, opts)
	return re, err
}

func buildRegexp(pattern string, tokens []token, opts Options) (*regexp.Regexp, []token, error) {
	var (
		b      strings.Builder
		params []token
	)
	if !opts.Sensitive {
		b.WriteString("(?i)")
	}
	b.WriteByte('^')
	for _, tok := range tokens {
		if !tok.isParam() {
			b.WriteString(regexp.QuoteMeta(tok.static))
			continue
		}
		params = append(params, tok)
		pre := regexp.QuoteMeta(tok.prefix)
		switch tok.modifier {
		case 0:
			fmt.Fprintf(&b, "%s(%s)", pre, tok.pattern)
		case '?':
			fmt.Fprintf(&b, "(?:%s(%s))?", pre, tok.pattern)
		case '+':
			fmt.Fprintf(&b, "%s((?:%s)(?:%s(?:%s))*)", pre, tok.pattern, pre, tok.pattern)
		case '*':
			fmt.Fprintf(&b, "(?:%s((?:%s)(?:%s(?:%s))*))?", pre, tok.pattern, pre, tok.pattern)
		}
	}

	endsWithSlash := false
	if n := len(tokens); n > 0 && !tokens[n-1].isParam() {
		endsWithSlash = strings.HasSuffix(tokens[n-1].static, "/")
	}
	switch {
	case opts.Prefix && !endsWithSlash:
		b.WriteString("(?:/|$)")
	case opts.Prefix:
	case !opts.Strict && !endsWithSlash:
		b.WriteString("/?$")
	default:
		b.WriteByte('$')
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, invalid(pattern, "%v", err)
	}
	return re, params, nil
}

// decodeValue percent-decodes a matched value segment by segment.
func decodeValue(raw string, tok token) (string, error) {
	if !tok.repeated() {
		v, err := history.DecodeSegment(raw, false)
		if err != nil {
			return "", err
		}
		// The typed regexps accept values that overflow.
		if err := ValidateParam(v, tok.typ); err != nil {
			return "", err
		}
		return v, nil
	}
	segs := strings.Split(raw, tok.prefix)
	for i, s := range segs {
		d, err := history.DecodeSegment(s, false)
		if err != nil {
			return "", err
		}
		segs[i] = d
	}
	return strings.Join(segs, "/"), nil
}

// newCompiler returns a CompileFunc over parsed tokens.
func newCompiler(tokens []token, opts CompileOptions) CompileFunc {
	encode := opts.Encode
	if encode == nil {
		encode = url.PathEscape
	}
	validators := make(map[string]*regexp.Regexp)
	if !opts.SkipValidation {
		for _, tok := range tokens {
			if tok.isParam() {
				// Param patterns were checked by parse, so this cannot fail.
				validators[tok.name] = regexp.MustCompile("^(?:" + tok.pattern + ")$")
			}
		}
	}
	check := func(tok token, v string) error {
		if re := validators[tok.name]; re != nil && !re.MatchString(v) {
			return fmt.Errorf("%w: %q does not match %s", ErrInvalidParam, tok.name, tok.pattern)
		}
		return nil
	}

	return func(params Params) (string, error) {
		var b strings.Builder
		for _, tok := range tokens {
			if !tok.isParam() {
				b.WriteString(tok.static)
				continue
			}
			v := params[tok.name]
			if v == "" {
				if tok.optional() {
					continue
				}
				return "", fmt.Errorf("%w: %q", ErrMissingParam, tok.name)
			}
			if !tok.repeated() {
				// The matcher rejects encoded slashes, so a value spanning
				// segments could never be matched back.
				if strings.Contains(v, "/") {
					return "", fmt.Errorf("%w: %q contains a slash", ErrInvalidParam, tok.name)
				}
				enc := encode(v)
				if err := check(tok, enc); err != nil {
					return "", err
				}
				b.WriteString(tok.prefix)
				b.WriteString(enc)
				continue
			}
			for _, seg := range strings.Split(v, "/") {
				if seg == "" {
					return "", fmt.Errorf("%w: %q has an empty segment", ErrInvalidParam, tok.name)
				}
				enc := encode(seg)
				if err := check(tok, enc); err != nil {
					return "", err
				}
				b.WriteString(tok.prefix)
				b.WriteString(enc)
			}
		}
		if b.Len() == 0 {
			return "/", nil
		}
		return b.String(), nil
	}
}
