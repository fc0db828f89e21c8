package pathmatch

import (
	"regexp"
	"strconv"
	"strings"
)

// defaultSegment matches one segment, shortest first so that adjacent
// params split on the static text between them.
const defaultSegment = `[^/#?]+?`

// typed param patterns.
var typePatterns = map[string]string{
	"int":  `-?[0-9]+`,
	"uint": `[0-9]+`,
	"uuid": `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
}

// token is either static text or a param.
type token struct {
	static string

	name     string
	prefix   string // "/" when the param follows a slash, which it then owns
	pattern  string
	modifier byte // 0, '?', '*' or '+'
	typ      string
	custom   bool
	catchAll bool
}

func (t token) isParam() bool  { return t.name != "" }
func (t token) optional() bool { return t.modifier == '?' || t.modifier == '*' }
func (t token) repeated() bool { return t.modifier == '*' || t.modifier == '+' }

func isNameChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parse splits a pattern into tokens.
func parse(pattern string) ([]token, error) {
	var (
		tokens  []token
		static  strings.Builder
		seen    = map[string]bool{}
		unnamed int
	)
	flush := func() {
		if static.Len() > 0 {
			tokens = append(tokens, token{static: static.String()})
			static.Reset()
		}
	}
	// takePrefix moves a trailing slash out of the pending static text.
	takePrefix := func() string {
		s := static.String()
		if !strings.HasSuffix(s, "/") {
			return ""
		}
		static.Reset()
		static.WriteString(s[:len(s)-1])
		return "/"
	}
	addParam := func(tok token) error {
		if seen[tok.name] {
			return invalid(pattern, "duplicate param %q", tok.name)
		}
		seen[tok.name] = true
		if tok.custom {
			re, err := regexp.Compile(tok.pattern)
			if err != nil {
				return invalid(pattern, "param %q: %v", tok.name, err)
			}
			if re.NumSubexp() > 0 {
				return invalid(pattern, "param %q: capturing groups are not allowed", tok.name)
			}
		}
		tok.prefix = takePrefix()
		if tok.repeated() && tok.prefix == "" {
			return invalid(pattern, "repeated param %q must follow a slash", tok.name)
		}
		flush()
		tokens = append(tokens, tok)
		return nil
	}

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '\\':
			if i+1 >= len(pattern) {
				return nil, invalid(pattern, "trailing escape")
			}
			static.WriteByte(pattern[i+1])
			i += 2

		case c == '*' && i+1 < len(pattern) && isNameChar(pattern[i+1]):
			j := i + 1
			for j < len(pattern) && isNameChar(pattern[j]) {
				j++
			}
			tok := token{name: pattern[i+1 : j], pattern: defaultSegment, modifier: '*', catchAll: true}
			if err := addParam(tok); err != nil {
				return nil, err
			}
			i = j

		case c == ':':
			j := i + 1
			for j < len(pattern) && isNameChar(pattern[j]) {
				j++
			}
			name := pattern[i+1 : j]
			if name == "" {
				return nil, invalid(pattern, "missing param name at offset %d", i)
			}
			tok := token{name: name, pattern: defaultSegment}
			if j < len(pattern) && pattern[j] == ':' {
				k := j + 1
				for k < len(pattern) && isNameChar(pattern[k]) {
					k++
				}
				typ := pattern[j+1 : k]
				p, ok := typePatterns[typ]
				if !ok {
					return nil, invalid(pattern, "param %q has unknown type %q", name, typ)
				}
				tok.typ, tok.pattern = typ, p
				j = k
			}
			if j < len(pattern) && pattern[j] == '(' {
				if tok.typ != "" {
					return nil, invalid(pattern, "param %q has both a type and a pattern", name)
				}
				re, end, err := readGroup(pattern, j)
				if err != nil {
					return nil, err
				}
				tok.pattern, tok.custom = re, true
				j = end
			}
			if j < len(pattern) && strings.IndexByte("?*+", pattern[j]) >= 0 {
				tok.modifier = pattern[j]
				j++
			}
			if err := addParam(tok); err != nil {
				return nil, err
			}
			i = j

		case c == '(':
			re, end, err := readGroup(pattern, i)
			if err != nil {
				return nil, err
			}
			tok := token{name: strconv.Itoa(unnamed), pattern: re, custom: true}
			unnamed++
			if end < len(pattern) && strings.IndexByte("?*+", pattern[end]) >= 0 {
				tok.modifier = pattern[end]
				end++
			}
			if err := addParam(tok); err != nil {
				return nil, err
			}
			i = end

		case c == '?' || c == '+' || c == '*' || c == ')':
			return nil, invalid(pattern, "unexpected %q at offset %d", c, i)

		default:
			static.WriteByte(c)
			i++
		}
	}
	flush()
	return tokens, nil
}

// readGroup reads a balanced "(...)" starting at open and returns its
// contents and the offset after the closing paren.
func readGroup(pattern string, open int) (string, int, error) {
	depth := 0
	for i := open; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				body := pattern[open+1 : i]
				if body == "" {
					return "", 0, invalid(pattern, "empty group at offset %d", open)
				}
				return body, i + 1, nil
			}
		}
	}
	return "", 0, invalid(pattern, "unbalanced group at offset %d", open)
}
