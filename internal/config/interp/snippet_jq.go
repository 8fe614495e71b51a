package interp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/itchyny/gojq"

	"github.com/dshills/natan/internal/config/tree"
)

// jqEvaluator evaluates snippets as jq programs with null input. $ENV and
// env read the injected environment; hostname, uuid and key/1 are builtins.
type jqEvaluator struct {
	builtins Builtins
	timeout  time.Duration
	pending  error
}

func newJQEvaluator(b Builtins, timeout time.Duration) (Evaluator, error) {
	return &jqEvaluator{builtins: b, timeout: timeout}, nil
}

func (e *jqEvaluator) compile(expr string) (*gojq.Code, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, err
	}
	return gojq.Compile(query,
		gojq.WithEnvironLoader(e.builtins.Env.Environ),
		gojq.WithFunction("hostname", 0, 0, func(any, []any) any {
			name, err := e.builtins.Hostname()
			if err != nil {
				return err
			}
			return name
		}),
		gojq.WithFunction("uuid", 0, 0, func(any, []any) any {
			return uuid.NewString()
		}),
		gojq.WithFunction("key", 1, 1, func(_ any, args []any) any {
			path, ok := args[0].(string)
			if !ok {
				return fmt.Errorf("key: path must be a string, got %T", args[0])
			}
			v, err := e.builtins.Key(path)
			if err != nil {
				e.pending = err
				return err
			}
			return toJQ(v)
		}),
	)
}

// Eval implements Evaluator. Only the first output is used; a program with
// no output yields null.
func (e *jqEvaluator) Eval(ctx context.Context, expr string) (any, error) {
	fail := func(cause error) (any, error) {
		return nil, &EvaluationError{Engine: "jq", Expr: expr, Err: cause}
	}

	code, err := e.compile(expr)
	if err != nil {
		return fail(err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	saved := e.pending
	e.pending = nil
	defer func() { e.pending = saved }()

	iter := code.RunWithContext(ctx, nil)
	v, ok := iter.Next()
	if !ok {
		return nil, nil
	}
	if err, isErr := v.(error); isErr {
		if e.pending != nil && errors.Is(err, e.pending) {
			return nil, e.pending
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fail(ErrEvaluationTimeout)
		}
		return fail(err)
	}
	return fromJQ(v), nil
}

// Close implements Evaluator.
func (e *jqEvaluator) Close() {}

// toJQ converts a tree value into the value kinds gojq accepts.
func toJQ(v any) any {
	switch n := v.(type) {
	case int64:
		if n >= math.MinInt && n <= math.MaxInt {
			return int(n)
		}
		return new(big.Int).SetInt64(n)
	case *regexp.Regexp:
		return n.String()
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = toJQ(e)
		}
		return out
	case *tree.Map:
		out := make(map[string]any, n.Len())
		n.Each(func(key string, value any) bool {
			out[key] = toJQ(value)
			return true
		})
		return out
	default:
		return v
	}
}

// fromJQ converts a gojq result into a tree value. Objects become maps with
// sorted keys.
func fromJQ(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case *big.Int:
		if n.IsInt64() {
			return n.Int64()
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = fromJQ(e)
		}
		return out
	case map[string]any:
		plain := make(map[string]any, len(n))
		for k, e := range n {
			plain[k] = fromJQ(e)
		}
		return tree.FromPlain(plain)
	default:
		return v
	}
}
