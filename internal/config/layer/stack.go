package layer

import (
	"fmt"
	"sort"

	"github.com/dshills/natan/internal/config/tree"
)

// Stack holds the parsed layers of one load, ordered by rank.
// A Stack belongs to a single load call and is not safe for concurrent use.
type Stack struct {
	layers []*Layer
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{layers: make([]*Layer, 0)}
}

// Add adds a layer. Layers are kept sorted by rank; two layers may not share
// a rank.
func (s *Stack) Add(l *Layer) error {
	for _, existing := range s.layers {
		if existing.Rank == l.Rank {
			return fmt.Errorf("layer %s: rank %d already taken by %s", l.Path, l.Rank, existing.Path)
		}
	}
	s.layers = append(s.layers, l)
	sort.Slice(s.layers, func(i, j int) bool {
		return s.layers[i].Rank < s.layers[j].Rank
	})
	return nil
}

// Layers returns a copy of all layers sorted by rank.
func (s *Stack) Layers() []*Layer {
	result := make([]*Layer, len(s.layers))
	copy(result, s.layers)
	return result
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	return len(s.layers)
}

// Merge combines all layers into a single tree, lowest rank first.
func (s *Stack) Merge() *tree.Map {
	trees := make([]*tree.Map, len(s.layers))
	for i, l := range s.layers {
		trees[i] = l.Data
	}
	return Merge(trees...)
}

// Which returns the highest ranked layer that defines path, or nil.
func (s *Stack) Which(p tree.Path) *Layer {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if _, ok := tree.Get(s.layers[i].Data, p); ok {
			return s.layers[i]
		}
	}
	return nil
}
