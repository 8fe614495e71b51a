// Package interp resolves tagged placeholders in a merged configuration
// tree.
//
// A placeholder is a tag letter followed by a braced body:
//
//	k{a.b}     value of another key
//	t{1 hour}  duration in milliseconds
//	p{./src}   absolute path
//	r{^\d+$}   compiled regular expression
//	f{1 + 1}   sandboxed snippet (Lua or jq)
//
// Scan finds the placeholders and a Resolver substitutes them in place.
// Leaves are resolved on demand, so a key reference to a leaf that has
// placeholders of its own sees the final value. Reference cycles are
// reported as CyclicReferenceError.
package interp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/natan/internal/config/loader"
	"github.com/dshills/natan/internal/config/tree"
)

type leafState int

const (
	leafPending leafState = iota
	leafResolving
	leafDone
)

// leaf is a string value holding at least one placeholder.
type leaf struct {
	path  tree.Path
	raw   string
	occs  []Occurrence
	state leafState
	value any
}

// Resolver substitutes placeholders in a tree. A Resolver serves a single
// Resolve call.
type Resolver struct {
	root      *tree.Map
	env       loader.Env
	workDir   string
	engine    string
	timeout   time.Duration
	evaluator Evaluator
	log       zerolog.Logger

	ctx    context.Context
	leaves map[string]*leaf
	order  []*leaf
	stack  []tree.Path
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEnv sets the environment seen by snippets.
func WithEnv(env loader.Env) Option {
	return func(r *Resolver) {
		if env != nil {
			r.env = env
		}
	}
}

// WithWorkDir sets the directory relative paths are resolved against.
func WithWorkDir(dir string) Option {
	return func(r *Resolver) {
		r.workDir = dir
	}
}

// WithEvaluator selects the snippet engine by name.
func WithEvaluator(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.engine = name
		}
	}
}

// WithSnippetTimeout bounds each snippet evaluation.
func WithSnippetTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithEvaluatorInstance uses e for snippets instead of building one.
// The Resolver does not close it.
func WithEvaluatorInstance(e Evaluator) Option {
	return func(r *Resolver) {
		r.evaluator = e
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// NewResolver creates a Resolver for root.
func NewResolver(root *tree.Map, opts ...Option) *Resolver {
	r := &Resolver{
		root:    root,
		env:     loader.OSEnv{},
		engine:  DefaultEvaluator,
		timeout: DefaultSnippetTimeout,
		log:     zerolog.Nop(),
		leaves:  make(map[string]*leaf),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve substitutes every occurrence into the tree. Occurrences must come
// from Scan on the same tree. Leaves are processed in scan order and the
// first error aborts.
func (r *Resolver) Resolve(ctx context.Context, occs []Occurrence) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.ctx = ctx

	for _, occ := range occs {
		key := occ.Path.Key()
		l, ok := r.leaves[key]
		if !ok {
			v, _ := tree.Get(r.root, occ.Path)
			raw, isString := v.(string)
			if !isString {
				return fmt.Errorf("no string leaf at %s", occ.Path)
			}
			l = &leaf{path: occ.Path, raw: raw}
			r.leaves[key] = l
			r.order = append(r.order, l)
		}
		l.occs = append(l.occs, occ)
	}

	if r.evaluator == nil {
		defer r.closeEvaluator()
	}

	for _, l := range r.order {
		if err := r.resolveLeaf(l); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) closeEvaluator() {
	if r.evaluator != nil {
		r.evaluator.Close()
		r.evaluator = nil
	}
}

func (r *Resolver) resolveLeaf(l *leaf) error {
	switch l.state {
	case leafDone:
		return nil
	case leafResolving:
		return r.cycleError(l.path)
	}

	l.state = leafResolving
	r.stack = append(r.stack, l.path)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	values := make([]any, len(l.occs))
	for i, occ := range l.occs {
		v, err := r.resolveOccurrence(occ)
		if err != nil {
			var re *ResolveError
			if errors.As(err, &re) {
				return err
			}
			return &ResolveError{Path: l.path.String(), Raw: occ.Raw, Err: err}
		}
		values[i] = v
	}

	value, err := substitute(l.raw, l.occs, values)
	if err != nil {
		return &ResolveError{Path: l.path.String(), Raw: l.raw, Err: err}
	}

	tree.Set(r.root, l.path, value)
	l.value = value
	l.state = leafDone
	r.log.Debug().Str("path", l.path.String()).Msg("resolved")
	return nil
}

// cycleError names the paths from the first visit of p back to p.
func (r *Resolver) cycleError(p tree.Path) error {
	start := 0
	for i, s := range r.stack {
		if s.Key() == p.Key() {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(r.stack)-start+1)
	for _, s := range r.stack[start:] {
		cycle = append(cycle, s.String())
	}
	cycle = append(cycle, p.String())
	return &CyclicReferenceError{Cycle: cycle}
}

// substitute builds the leaf value. A leaf that is exactly one placeholder
// takes the resolved value itself; otherwise every value is stringified
// and spliced into the text.
func substitute(raw string, occs []Occurrence, values []any) (any, error) {
	if len(occs) == 1 && occs[0].Start == 0 && occs[0].End == len(raw) {
		return values[0], nil
	}

	var b strings.Builder
	last := 0
	for i, occ := range occs {
		b.WriteString(raw[last:occ.Start])
		s, err := tree.Stringify(values[i])
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
		last = occ.End
	}
	b.WriteString(raw[last:])
	return b.String(), nil
}

func (r *Resolver) resolveOccurrence(occ Occurrence) (any, error) {
	switch occ.Tag {
	case TagKey:
		return r.resolveKey(occ.Body)
	case TagDuration:
		return ParseDuration(occ.Body)
	case TagPath:
		return r.resolvePath(occ.Body)
	case TagRegex:
		return resolveRegex(occ.Body)
	case TagSnippet:
		return r.resolveSnippet(occ.Body)
	default:
		return nil, fmt.Errorf("unknown tag %d", occ.Tag)
	}
}

// resolveKey returns a deep copy of the value at ref. Pending leaves on the
// way to the target, or below it, are resolved first.
func (r *Resolver) resolveKey(ref string) (any, error) {
	p := tree.ParsePath(ref)
	if len(p) == 0 {
		return nil, &KeyNotFoundError{Key: ref}
	}

	var node any = r.root
	for i := range p {
		prefix := p[:i+1]
		next, ok := tree.Get(node, p[i:i+1])
		if !ok {
			return nil, &KeyNotFoundError{Key: ref, Missing: prefix.String()}
		}
		if l, isLeaf := r.leaves[prefix.Key()]; isLeaf && l.state != leafDone {
			if err := r.resolveLeaf(l); err != nil {
				return nil, err
			}
			next, _ = tree.Get(node, p[i:i+1])
		}
		node = next
	}

	switch node.(type) {
	case *tree.Map, []any:
		if err := r.resolveBelow(p); err != nil {
			return nil, err
		}
		node, _ = tree.Get(r.root, p)
	}
	return tree.Clone(node), nil
}

// resolveBelow resolves every pending leaf under p in scan order.
func (r *Resolver) resolveBelow(p tree.Path) error {
	r.stack = append(r.stack, p)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	for _, l := range r.order {
		if l.state == leafDone || len(l.path) <= len(p) || !l.path.HasPrefix(p) {
			continue
		}
		if err := r.resolveLeaf(l); err != nil {
			return err
		}
	}
	return nil
}

// resolvePath makes body absolute against the working directory. A leading
// "~" expands to HOME from the injected environment.
func (r *Resolver) resolvePath(body string) (string, error) {
	if body == "~" || strings.HasPrefix(body, "~/") {
		home, ok := r.env.LookupEnv("HOME")
		if !ok || home == "" {
			return "", errors.New("cannot expand ~: HOME is not set")
		}
		body = filepath.Join(home, strings.TrimPrefix(body, "~"))
	}
	if filepath.IsAbs(body) {
		return filepath.Clean(body), nil
	}

	base := r.workDir
	if base == "" {
		var err error
		if base, err = filepath.Abs("."); err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
	}
	return filepath.Join(base, body), nil
}

func resolveRegex(body string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(body)
	if err != nil {
		return nil, &RegexSyntaxError{Pattern: body, Err: err}
	}
	return re, nil
}

func (r *Resolver) resolveSnippet(body string) (any, error) {
	if r.evaluator == nil {
		e, err := NewEvaluator(r.engine, Builtins{
			Env: r.env,
			Key: r.resolveKey,
		}, r.timeout)
		if err != nil {
			return nil, err
		}
		r.evaluator = e
	}
	return r.evaluator.Eval(r.ctx, body)
}
