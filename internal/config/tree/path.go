package tree

import (
	"strconv"
	"strings"
	"unicode"
)

// Path locates a node inside a tree. Each segment is a map key, or the
// decimal index of an array element.
type Path []string

// ParsePath splits s on dots and whitespace. Empty segments are dropped, so
// "a.b c", "a b c" and " a..b.c " all name the same node.
func ParsePath(s string) Path {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})
	return Path(fields)
}

// Child returns a new path with seg appended. The receiver is not modified.
func (p Path) Child(seg string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Index returns a new path with the array index i appended.
func (p Path) Index(i int) Path {
	return p.Child(strconv.Itoa(i))
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// HasPrefix reports whether q is a prefix of p.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Key returns a string usable as a map key that identifies the path exactly.
func (p Path) Key() string {
	return strings.Join(p, "\x1f")
}

// String returns the dotted form of the path. The root path is "<root>".
func (p Path) String() string {
	if len(p) == 0 {
		return "<root>"
	}
	return strings.Join(p, ".")
}

// Get looks up p starting at root.
func Get(root any, p Path) (any, bool) {
	current := root
	for _, seg := range p {
		next, ok := step(current, seg)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Set replaces the node at p. Intermediate nodes must already exist; Set
// reports false if they don't. Setting the root path is not supported.
func Set(root any, p Path, value any) bool {
	if len(p) == 0 {
		return false
	}
	parent, ok := Get(root, p.Parent())
	if !ok {
		return false
	}
	last := p[len(p)-1]
	switch node := parent.(type) {
	case *Map:
		node.Set(last, value)
		return true
	case []any:
		i, ok := arrayIndex(node, last)
		if !ok {
			return false
		}
		node[i] = value
		return true
	default:
		return false
	}
}

// step descends one segment from node.
func step(node any, seg string) (any, bool) {
	switch n := node.(type) {
	case *Map:
		return n.Get(seg)
	case []any:
		i, ok := arrayIndex(n, seg)
		if !ok {
			return nil, false
		}
		return n[i], true
	default:
		return nil, false
	}
}

func arrayIndex(arr []any, seg string) (int, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= len(arr) {
		return 0, false
	}
	return i, true
}
