package loader

import (
	"errors"
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/natan/internal/config/tree"
)

// TOMLParser parses TOML documents using pelletier/go-toml/v2.
// go-toml decodes tables into Go maps, so keys come out in sorted order.
type TOMLParser struct{}

// Parse implements Parser.
func (TOMLParser) Parse(name string, data []byte) (*tree.Map, error) {
	var config map[string]any
	if err := toml.Unmarshal(data, &config); err != nil {
		pe := &ParseError{
			Path:    name,
			Message: err.Error(),
			Err:     err,
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			pe.Line, pe.Column = decodeErr.Position()
		}
		return nil, pe
	}
	if config == nil {
		return tree.NewMap(), nil
	}

	m, ok := tree.FromPlain(normalizeTOML(config)).(*tree.Map)
	if !ok {
		return nil, &ParseError{Path: name, Message: "top-level value must be a table", Err: ErrParse}
	}
	return m, nil
}

// normalizeTOML converts TOML date and time values into strings so the
// tree only ever holds the scalar kinds it knows about.
func normalizeTOML(v any) any {
	switch n := v.(type) {
	case map[string]any:
		for k, e := range n {
			n[k] = normalizeTOML(e)
		}
		return n
	case []any:
		for i, e := range n {
			n[i] = normalizeTOML(e)
		}
		return n
	case time.Time:
		return n.Format(time.RFC3339Nano)
	case toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
		return fmt.Sprint(n)
	default:
		return v
	}
}
