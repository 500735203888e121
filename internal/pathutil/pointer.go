package pathutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Pointer renders value path segments as a JSON Pointer.
// The root (no segments) renders as "/".
func Pointer(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(EscapeSegment(seg))
	}
	return b.String()
}

// Fragment renders segments as a document fragment ("#/a/b").
// The root renders as "#".
func Fragment(segments []string) string {
	if len(segments) == 0 {
		return "#"
	}
	return "#" + Pointer(segments)
}

// EscapeSegment escapes a single pointer segment.
func EscapeSegment(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// UnescapeSegment reverses EscapeSegment.
func UnescapeSegment(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}

// ParsePointer splits a pointer or fragment ("#/a/b", "/a/b", "") into
// unescaped segments. Percent-encoding is decoded first, since fragments
// in $ref values are URI fragments.
func ParsePointer(p string) ([]string, error) {
	p = strings.TrimPrefix(p, "#")
	if p == "" || p == "/" {
		return nil, nil
	}
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("invalid JSON pointer %q: must start with '/'", p)
	}
	decoded, err := url.PathUnescape(p)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON pointer %q: %w", p, err)
	}
	parts := strings.Split(decoded[1:], "/")
	for i, part := range parts {
		parts[i] = UnescapeSegment(part)
	}
	return parts, nil
}

// Append returns path with segs appended. The result never shares its
// backing array with path, so sibling branches of a traversal cannot
// overwrite each other's segments.
func Append(path []string, segs ...string) []string {
	out := make([]string, len(path), len(path)+len(segs))
	copy(out, path)
	return append(out, segs...)
}

// Index renders an array index segment.
func Index(i int) string {
	return strconv.Itoa(i)
}
