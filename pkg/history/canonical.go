package history

import (
	"errors"
	"net/url"
	"strings"
)

// Canonicalization errors.
var (
	ErrInvalidPath           = errors.New("history: invalid path")
	ErrBackslashInPath       = errors.New("history: path contains backslash")
	ErrNullByteInPath        = errors.New("history: path contains null byte")
	ErrInvalidPercentEscape  = errors.New("history: invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("history: path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("history: encoded slash (%2F) in segment")
)

// Canonicalize cleans a path reported by an untrusted client before it
// becomes a Location. It collapses repeated slashes, resolves "." and ".."
// and drops a trailing slash (except for the root).
//
// Backslashes, NUL bytes, malformed percent escapes, ".." above the root and
// absolute or protocol-relative URLs are rejected.
func Canonicalize(path string) (string, error) {
	if path == "" {
		return "/", nil
	}
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") {
		return "", ErrInvalidPath
	}
	if strings.Contains(path, "\\") {
		return "", ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validateEscapes(path); err != nil {
			return "", err
		}
	}

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), nil
}

// CanonicalizePath canonicalizes p.Path and normalizes the prefixes of
// Search and Hash.
func CanonicalizePath(p Path) (Path, error) {
	clean, err := Canonicalize(p.Path)
	if err != nil {
		return Path{}, err
	}
	p.Path = clean
	return Normalize(p), nil
}

// DecodeSegment unescapes one path segment. Unless the segment may span
// several segments, a decoded "/" is rejected.
func DecodeSegment(segment string, multi bool) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !multi && strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}

func validateEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHex(path[i+1]) || !isHex(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
