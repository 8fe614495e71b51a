package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes the map as a JSON object, keeping key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	m.Each(func(key string, value any) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		var kb, vb []byte
		if kb, err = json.Marshal(key); err != nil {
			return false
		}
		if vb, err = marshalNodeJSON(value); err != nil {
			err = fmt.Errorf("encoding key %q: %w", key, err)
			return false
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNodeJSON(v any) ([]byte, error) {
	if re, ok := v.(*regexp.Regexp); ok {
		return json.Marshal(re.String())
	}
	return json.Marshal(v)
}

// MarshalYAML encodes the map as a YAML mapping node, keeping key order.
func (m *Map) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	var err error
	m.Each(func(key string, value any) bool {
		valueNode := &yaml.Node{}
		if re, ok := value.(*regexp.Regexp); ok {
			value = re.String()
		}
		if err = valueNode.Encode(value); err != nil {
			err = fmt.Errorf("encoding key %q: %w", key, err)
			return false
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			valueNode,
		)
		return true
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Stringify renders a node the way it appears when spliced into a larger
// string: strings verbatim, numbers in shortest form, regular expressions as
// their pattern, null as "null", maps and arrays as compact JSON.
func Stringify(v any) (string, error) {
	switch n := v.(type) {
	case nil:
		return "null", nil
	case string:
		return n, nil
	case bool:
		return strconv.FormatBool(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	case *regexp.Regexp:
		return n.String(), nil
	default:
		b, err := marshalNodeJSON(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
