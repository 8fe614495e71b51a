package config

import (
	"math"
	"regexp"
	"time"

	"github.com/dshills/natan/internal/config/layer"
	"github.com/dshills/natan/internal/config/tree"
)

// Config is a loaded configuration: the resolved tree plus the layers it
// was merged from.
type Config struct {
	target   string
	settings Settings
	tree     *tree.Map
	layers   *layer.Stack
}

// Target returns the absolute path of the loaded file.
func (c *Config) Target() string {
	return c.target
}

// Settings returns the settings the configuration was loaded with.
func (c *Config) Settings() Settings {
	return c.settings
}

// Tree returns the resolved tree. Callers own it.
func (c *Config) Tree() *tree.Map {
	return c.tree
}

// Files returns the files that contributed, least specific first.
func (c *Config) Files() []layer.Candidate {
	layers := c.layers.Layers()
	out := make([]layer.Candidate, len(layers))
	for i, l := range layers {
		out[i] = l.Candidate
	}
	return out
}

// Source returns the most specific file that defines path. Values
// produced by placeholders are attributed to the file holding the
// placeholder.
func (c *Config) Source(path string) (layer.Candidate, bool) {
	l := c.layers.Which(tree.ParsePath(path))
	if l == nil {
		return layer.Candidate{}, false
	}
	return l.Candidate, true
}

// Get returns the value at a dotted path.
func (c *Config) Get(path string) (any, bool) {
	return tree.Get(c.tree, tree.ParsePath(path))
}

// GetString returns a string value.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value. Whole floats are accepted.
func (c *Config) GetInt(path string) (int64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int64:
		return val, nil
	case float64:
		if math.Abs(val) < 1<<63 && val == math.Trunc(val) {
			return int64(val), nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
}

// GetBool returns a boolean value.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetFloat returns a numeric value as float64.
func (c *Config) GetFloat(path string) (float64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "float64", Actual: typeName(v)}
	}
}

// GetDuration returns a millisecond count, as produced by t{}, as a
// time.Duration.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	ms, err := c.GetInt(path)
	if err != nil {
		if te, ok := err.(*TypeError); ok {
			te.Expected = "duration"
		}
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// GetRegexp returns a compiled regular expression, as produced by r{}.
func (c *Config) GetRegexp(path string) (*regexp.Regexp, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}
	re, ok := v.(*regexp.Regexp)
	if !ok {
		return nil, &TypeError{Path: path, Expected: "regexp", Actual: typeName(v)}
	}
	return re, nil
}

// GetStringSlice returns an array of strings.
func (c *Config) GetStringSlice(path string) ([]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
	result := make([]string, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
		}
		result[i] = s
	}
	return result, nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []any:
		return "[]any"
	case *tree.Map:
		return "map"
	case *regexp.Regexp:
		return "regexp"
	default:
		return "unknown"
	}
}
