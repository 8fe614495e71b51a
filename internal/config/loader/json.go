package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"

	"github.com/dshills/natan/internal/config/tree"
)

// JSONParser parses JSON documents. Comments and trailing commas are
// accepted (JSONC) and stripped using tidwall/jsonc before decoding.
// Object key order is preserved.
type JSONParser struct{}

// Parse implements Parser.
func (JSONParser) Parse(name string, data []byte) (*tree.Map, error) {
	// Strip JSONC comments using tidwall/jsonc
	clean := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(clean)) == 0 {
		return tree.NewMap(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(clean))
	dec.UseNumber()

	value, err := decodeJSONValue(dec)
	if err != nil {
		return nil, jsonParseError(name, clean, dec, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, jsonParseError(name, clean, dec, errors.New("unexpected data after top-level value"))
	}

	m, ok := value.(*tree.Map)
	if !ok {
		return nil, &ParseError{
			Path:    name,
			Message: fmt.Sprintf("top-level value must be an object, got %T", value),
			Err:     ErrParse,
		}
	}
	return m, nil
}

func jsonParseError(name string, data []byte, dec *json.Decoder, err error) *ParseError {
	offset := dec.InputOffset()
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		offset = syntaxErr.Offset
	}
	line, col := position(data, offset)
	return &ParseError{
		Path:    name,
		Line:    line,
		Column:  col,
		Message: err.Error(),
		Err:     err,
	}
}

// decodeJSONValue reads one complete value from the token stream.
func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", t, err)
		}
		return f, nil
	default:
		// string, bool, nil
		return t, nil
	}
}

func decodeJSONObject(dec *json.Decoder) (*tree.Map, error) {
	m := tree.NewMap()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", keyTok)
		}
		value, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, value)
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeJSONArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for dec.More() {
		value, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
	}
	// closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}
