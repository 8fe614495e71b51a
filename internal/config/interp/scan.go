package interp

import (
	"strings"

	"github.com/dshills/natan/internal/config/tree"
)

// Occurrence is one placeholder found in a string leaf.
type Occurrence struct {
	// Path locates the leaf holding the placeholder.
	Path tree.Path
	// Tag is the placeholder kind.
	Tag Tag
	// Body is the text between the braces, trimmed, with "\}" unescaped.
	Body string
	// Raw is the placeholder exactly as written.
	Raw string
	// Start and End are byte offsets of Raw within the leaf.
	Start, End int
}

// Scan returns every placeholder in root in depth-first order: map keys in
// insertion order, array elements by index, and left to right within a
// string. Map keys themselves are never scanned.
func Scan(root *tree.Map) []Occurrence {
	var out []Occurrence
	tree.Walk(root, func(p tree.Path, value any) bool {
		if s, ok := value.(string); ok {
			out = append(out, ScanString(p, s)...)
		}
		return true
	})
	return out
}

// ScanString returns the placeholders in s, attributed to path p.
func ScanString(p tree.Path, s string) []Occurrence {
	var out []Occurrence
	for i := 0; i+1 < len(s); i++ {
		tag, ok := tagForLetter(s[i])
		if !ok || s[i+1] != '{' {
			continue
		}

		body, end, ok := scanBody(s, i+2)
		if !ok {
			// Unterminated; nothing later can close either.
			break
		}
		out = append(out, Occurrence{
			Path:  p,
			Tag:   tag,
			Body:  strings.TrimSpace(body),
			Raw:   s[i:end],
			Start: i,
			End:   end,
		})
		i = end - 1
	}
	return out
}

// scanBody reads from start to the first unescaped '}'. It returns the body
// and the offset just past the closing brace.
func scanBody(s string, start int) (string, int, bool) {
	var b strings.Builder
	for j := start; j < len(s); j++ {
		switch {
		case s[j] == '\\' && j+1 < len(s) && s[j+1] == '}':
			b.WriteByte('}')
			j++
		case s[j] == '}':
			return b.String(), j + 1, true
		default:
			b.WriteByte(s[j])
		}
	}
	return "", 0, false
}
