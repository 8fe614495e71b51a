package walker

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is the name of the per-directory settings file.
const DefaultSettingsFile = ".natan"

// dirSettings is the parsed content of a per-directory settings file.
//
//	root: true
//	local: named-local.config
//
// or, keyed by doublestar patterns matched against the target basename:
//
//	local:
//	  "test.config": named-local.config
//	  "*.yaml": overrides.yaml
type dirSettings struct {
	Root  bool
	local []localRule
}

type localRule struct {
	pattern string
	file    string
}

// LocalFor returns the declared local file name for the target basename,
// or "" when none applies. Rules are tried in document order.
func (s *dirSettings) LocalFor(basename string) string {
	if s == nil {
		return ""
	}
	for _, r := range s.local {
		if r.pattern == "" {
			return r.file
		}
		if ok, err := doublestar.Match(r.pattern, basename); err == nil && ok {
			return r.file
		}
	}
	return ""
}

func parseSettings(data []byte) (*dirSettings, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	s := &dirSettings{}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return s, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return s, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("settings must be a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "root":
			if err := value.Decode(&s.Root); err != nil {
				return nil, fmt.Errorf("root: %w", err)
			}
		case "local":
			rules, err := parseLocal(value)
			if err != nil {
				return nil, fmt.Errorf("local: %w", err)
			}
			s.local = rules
		}
	}
	return s, nil
}

func parseLocal(n *yaml.Node) ([]localRule, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			return nil, nil
		}
		if err := checkLocalName(n.Value); err != nil {
			return nil, err
		}
		return []localRule{{file: n.Value}}, nil

	case yaml.MappingNode:
		var rules []localRule
		for i := 0; i+1 < len(n.Content); i += 2 {
			pattern, file := n.Content[i].Value, n.Content[i+1]
			if file.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("entry %q must be a file name", pattern)
			}
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("invalid pattern %q", pattern)
			}
			if err := checkLocalName(file.Value); err != nil {
				return nil, err
			}
			rules = append(rules, localRule{pattern: pattern, file: file.Value})
		}
		return rules, nil
	}
	return nil, fmt.Errorf("expected a file name or a mapping, got line %d", n.Line)
}

// checkLocalName keeps declared locals inside the directory that declares them.
func checkLocalName(name string) error {
	if filepath.IsAbs(name) || filepath.Base(name) != name || name == "." || name == ".." {
		return fmt.Errorf("local file %q must be a plain file name", name)
	}
	return nil
}
