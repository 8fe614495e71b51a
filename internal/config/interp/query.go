package interp

import (
	"context"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/dshills/natan/internal/config/tree"
)

// Query runs a jq program over a resolved tree and returns every output.
// Regular expressions are seen as their pattern.
func Query(ctx context.Context, expr string, root *tree.Map) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parsing query: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compiling query: %w", err)
	}

	var input any
	if root != nil {
		input = toJQ(root)
	}

	var out []any
	iter := code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return out, fmt.Errorf("running query: %w", err)
		}
		out = append(out, fromJQ(v))
	}
	return out, nil
}
