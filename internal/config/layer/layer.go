// Package layer provides configuration layer ranking and merging for natan.
//
// Every file that contributes to a load becomes a Layer. Layers are merged
// in ascending rank order; higher ranked layers override lower ranked ones.
package layer

import (
	"github.com/dshills/natan/internal/config/tree"
)

// Kind describes why a file was picked as a candidate.
type Kind uint8

const (
	// KindBase is a file with the same name as the target, in the target's
	// directory (the target itself) or in one of its ancestors.
	KindBase Kind = iota
	// KindConventionLocal is a "<stem>.local<ext>" or "<name>.local" sibling
	// of a base file.
	KindConventionLocal
	// KindDeclaredLocal is an override named by a directory settings file.
	KindDeclaredLocal
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindConventionLocal:
		return "convention-local"
	case KindDeclaredLocal:
		return "declared-local"
	default:
		return "unknown"
	}
}

// Candidate is a file that takes part in an overlapping load.
type Candidate struct {
	// Path is the absolute, cleaned file path.
	Path string

	// Rank orders candidates; a higher rank overrides a lower one.
	Rank int

	// Kind records which discovery rule produced the candidate.
	Kind Kind

	// Dir is the directory level the candidate was found at.
	Dir string
}

// Layer is a parsed candidate.
type Layer struct {
	Candidate

	// Data holds the parsed file content.
	Data *tree.Map
}

// NewLayer creates a layer for a candidate. A nil data map is replaced by
// an empty one.
func NewLayer(c Candidate, data *tree.Map) *Layer {
	if data == nil {
		data = tree.NewMap()
	}
	return &Layer{Candidate: c, Data: data}
}

// Clone creates a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{
		Candidate: l.Candidate,
		Data:      l.Data.Clone(),
	}
}
