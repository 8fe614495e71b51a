package interp

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dshills/natan/internal/config/loader"
)

// DefaultEvaluator is the snippet engine used when none is configured.
const DefaultEvaluator = "lua"

// DefaultSnippetTimeout bounds the run time of a single snippet.
const DefaultSnippetTimeout = time.Second

// Builtins are the host functions every snippet engine exposes.
type Builtins struct {
	// Env backs the engine's environment view.
	Env loader.Env
	// Key resolves a key reference, with the same dependency tracking as
	// a k{} placeholder.
	Key func(path string) (any, error)
	// Hostname returns the machine name.
	Hostname func() (string, error)
}

func (b Builtins) withDefaults() Builtins {
	if b.Env == nil {
		b.Env = loader.OSEnv{}
	}
	if b.Hostname == nil {
		b.Hostname = os.Hostname
	}
	if b.Key == nil {
		b.Key = func(path string) (any, error) {
			return nil, &KeyNotFoundError{Key: path}
		}
	}
	return b
}

// Evaluator runs snippet bodies in a sandbox. An Evaluator is used by one
// load at a time and is not safe for concurrent use.
type Evaluator interface {
	// Eval evaluates expr and returns a tree value.
	Eval(ctx context.Context, expr string) (any, error)
	// Close releases the engine's resources.
	Close()
}

// EvaluatorFactory builds an Evaluator.
type EvaluatorFactory func(b Builtins, timeout time.Duration) (Evaluator, error)

var evaluators = map[string]EvaluatorFactory{
	"lua": newLuaEvaluator,
	"jq":  newJQEvaluator,
}

// Evaluators returns the names of the available snippet engines.
func Evaluators() []string {
	names := make([]string, 0, len(evaluators))
	for name := range evaluators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsEvaluator reports whether name is an available snippet engine.
func IsEvaluator(name string) bool {
	_, ok := evaluators[name]
	return ok
}

// NewEvaluator creates the named snippet engine.
func NewEvaluator(name string, b Builtins, timeout time.Duration) (Evaluator, error) {
	factory, ok := evaluators[name]
	if !ok {
		return nil, fmt.Errorf("unknown evaluator %q (available: %v)", name, Evaluators())
	}
	if timeout <= 0 {
		timeout = DefaultSnippetTimeout
	}
	return factory(b.withDefaults(), timeout)
}
