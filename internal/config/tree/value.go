package tree

import (
	"math"
	"regexp"
	"sort"
)

// Clone returns a deep copy of a node. Maps and arrays are copied; scalars
// and compiled regular expressions are shared since they are immutable.
func Clone(v any) any {
	switch n := v.(type) {
	case *Map:
		return n.Clone()
	case []any:
		return cloneSlice(n)
	default:
		return v
	}
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	dst := NewMap()
	m.Each(func(key string, value any) bool {
		dst.Set(key, Clone(value))
		return true
	})
	return dst
}

func cloneSlice(src []any) []any {
	if src == nil {
		return nil
	}
	dst := make([]any, len(src))
	for i, val := range src {
		dst[i] = Clone(val)
	}
	return dst
}

// Equal reports whether two nodes are deeply equal. Map key order is not
// significant. Integral numbers compare equal across int64 and float64.
func Equal(a, b any) bool {
	switch va := a.(type) {
	case nil:
		return b == nil
	case *Map:
		vb, ok := b.(*Map)
		if !ok || va.Len() != vb.Len() {
			return false
		}
		equal := true
		va.Each(func(key string, value any) bool {
			other, ok := vb.Get(key)
			equal = ok && Equal(value, other)
			return equal
		})
		return equal
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}
		return true
	case *regexp.Regexp:
		vb, ok := b.(*regexp.Regexp)
		return ok && va.String() == vb.String()
	case int64:
		switch vb := b.(type) {
		case int64:
			return va == vb
		case float64:
			return float64(va) == vb
		}
		return false
	case float64:
		switch vb := b.(type) {
		case float64:
			return va == vb
		case int64:
			return va == float64(vb)
		}
		return false
	default:
		return a == b
	}
}

// FromPlain converts Go values produced by generic decoders into tree nodes.
// map[string]any becomes a *Map with keys in sorted order since Go maps
// carry no order. Integer kinds become int64, float32 becomes float64.
// Values of unknown types are returned unchanged.
func FromPlain(v any) any {
	switch n := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, FromPlain(n[k]))
		}
		return m
	case *Map:
		return n
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = FromPlain(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = FromPlain(e)
		}
		return out
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return uintToNode(uint64(n))
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return uintToNode(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func uintToNode(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

// ToPlain converts a tree node into map[string]any / []any form for
// consumers that don't understand *Map. Scalars are returned unchanged.
func ToPlain(v any) any {
	switch n := v.(type) {
	case *Map:
		out := make(map[string]any, n.Len())
		n.Each(func(key string, value any) bool {
			out[key] = ToPlain(value)
			return true
		})
		return out
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = ToPlain(e)
		}
		return out
	default:
		return v
	}
}

// Walk visits every node below root depth-first: map entries in insertion
// order, array elements by index. fn receives the path of each node. The
// root itself is not visited. Returning false from fn skips that node's
// children.
func Walk(root any, fn func(p Path, value any) bool) {
	walk(root, nil, fn)
}

func walk(node any, p Path, fn func(Path, any) bool) {
	switch n := node.(type) {
	case *Map:
		n.Each(func(key string, value any) bool {
			child := p.Child(key)
			if fn(child, value) {
				walk(value, child, fn)
			}
			return true
		})
	case []any:
		for i, value := range n {
			child := p.Index(i)
			if fn(child, value) {
				walk(value, child, fn)
			}
		}
	}
}
