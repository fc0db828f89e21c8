package history

import "strings"

// Path is the path portion of a location. Empty fields are "not specified".
type Path struct {
	Path   string
	Search string
	Hash   string
}

// IsZero reports whether no field is set.
func (p Path) IsZero() bool {
	return p.Path == "" && p.Search == "" && p.Hash == ""
}

// ParsePath splits "path?search#hash" into its parts. The hash is taken
// first, so a "?" inside the fragment stays in the fragment. Search and Hash
// keep their prefixes.
func ParsePath(s string) Path {
	var p Path
	if s == "" {
		return p
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		p.Hash = s[i:]
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		p.Search = s[i:]
		s = s[:i]
	}
	p.Path = s
	return p
}

// CreatePath joins a Path back into a string. Search and Hash gain their
// prefixes when missing; a bare "?" or "#" is dropped.
func CreatePath(p Path) string {
	var b strings.Builder
	b.WriteString(p.Path)
	if s := strings.TrimPrefix(p.Search, "?"); s != "" {
		b.WriteByte('?')
		b.WriteString(s)
	}
	if h := strings.TrimPrefix(p.Hash, "#"); h != "" {
		b.WriteByte('#')
		b.WriteString(h)
	}
	return b.String()
}

// Normalize returns p with Search and Hash carrying exactly one prefix, or
// empty when they hold nothing.
func Normalize(p Path) Path {
	if s := strings.TrimPrefix(p.Search, "?"); s != "" {
		p.Search = "?" + s
	} else {
		p.Search = ""
	}
	if h := strings.TrimPrefix(p.Hash, "#"); h != "" {
		p.Hash = "#" + h
	} else {
		p.Hash = ""
	}
	return p
}
