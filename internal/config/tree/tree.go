// Package tree provides the configuration tree shared by every stage of the
// natan load pipeline.
//
// A tree node is one of:
//
//   - nil, bool, int64, float64, string (scalars)
//   - []any (ordered sequence of nodes)
//   - *Map (insertion-ordered mapping from string keys to nodes)
//
// Resolution may additionally place *regexp.Regexp values into leaves.
package tree

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is an insertion-ordered mapping from string keys to tree nodes.
// The zero value is not usable; create maps with NewMap.
type Map struct {
	om *orderedmap.OrderedMap[string, any]
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{om: orderedmap.New[string, any]()}
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	return m.om.Get(key)
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. A new key is appended after the existing keys;
// replacing an existing key keeps its position.
func (m *Map) Set(key string, value any) {
	m.om.Set(key, value)
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	_, ok := m.om.Delete(key)
	return ok
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return m.om.Len()
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Each(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Each calls fn for every entry in insertion order until fn returns false.
func (m *Map) Each(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}
