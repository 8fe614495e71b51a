package loader

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/natan/internal/config/tree"
)

// YAMLParser parses YAML documents using gopkg.in/yaml.v3.
// Mapping key order is preserved; anchors and aliases are expanded.
type YAMLParser struct{}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// Parse implements Parser.
func (YAMLParser) Parse(name string, data []byte) (*tree.Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		pe := &ParseError{Path: name, Message: err.Error(), Err: err}
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
		}
		return nil, pe
	}

	// Empty document
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return tree.NewMap(), nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return tree.NewMap(), nil
	}

	value, err := convertYAML(root, 0)
	if err != nil {
		return nil, &ParseError{Path: name, Line: root.Line, Message: err.Error(), Err: err}
	}
	m, ok := value.(*tree.Map)
	if !ok {
		return nil, &ParseError{
			Path:    name,
			Line:    root.Line,
			Column:  root.Column,
			Message: fmt.Sprintf("top-level value must be a mapping, got %T", value),
			Err:     ErrParse,
		}
	}
	return m, nil
}

// maxYAMLDepth bounds alias expansion.
const maxYAMLDepth = 512

func convertYAML(n *yaml.Node, depth int) (any, error) {
	if depth > maxYAMLDepth {
		return nil, fmt.Errorf("line %d: document nested too deeply", n.Line)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return convertYAML(n.Content[0], depth+1)

	case yaml.AliasNode:
		return convertYAML(n.Alias, depth+1)

	case yaml.MappingNode:
		m := tree.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			value, err := convertYAML(valueNode, depth+1)
			if err != nil {
				return nil, err
			}
			if keyNode.Tag == "!!merge" {
				// "<<: *anchor" merges the referenced mapping(s) without
				// overriding keys set explicitly.
				mergeYAMLKeys(m, value)
				continue
			}
			m.Set(keyNode.Value, value)
		}
		return m, nil

	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			value, err := convertYAML(c, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		return arr, nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		switch s := v.(type) {
		case time.Time:
			return n.Value, nil
		default:
			return tree.FromPlain(s), nil
		}
	}

	return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func mergeYAMLKeys(dst *tree.Map, value any) {
	switch v := value.(type) {
	case *tree.Map:
		v.Each(func(key string, val any) bool {
			if !dst.Has(key) {
				dst.Set(key, tree.Clone(val))
			}
			return true
		})
	case []any:
		for _, item := range v {
			mergeYAMLKeys(dst, item)
		}
	}
}
