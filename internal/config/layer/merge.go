package layer

import (
	"github.com/dshills/natan/internal/config/tree"
)

// Merge deep-merges trees given least specific first and returns a new tree.
// The inputs are neither modified nor aliased by the result.
func Merge(trees ...*tree.Map) *tree.Map {
	result := tree.NewMap()
	for _, t := range trees {
		MergeInto(result, t)
	}
	return result
}

// MergeInto recursively merges src into dst and returns dst.
// Values in src override values in dst.
// Maps are merged recursively; other types, arrays included, are replaced.
// Keys new to dst are appended in src order.
func MergeInto(dst, src *tree.Map) *tree.Map {
	if dst == nil {
		dst = tree.NewMap()
	}
	if src == nil {
		return dst
	}

	src.Each(func(key string, srcVal any) bool {
		dstVal, exists := dst.Get(key)
		if !exists {
			dst.Set(key, tree.Clone(srcVal))
			return true
		}

		// If both are maps, merge recursively
		srcMap, srcIsMap := srcVal.(*tree.Map)
		dstMap, dstIsMap := dstVal.(*tree.Map)
		if srcIsMap && dstIsMap {
			dst.Set(key, MergeInto(dstMap, srcMap))
		} else {
			// Otherwise, src replaces dst
			dst.Set(key, tree.Clone(srcVal))
		}
		return true
	})

	return dst
}
