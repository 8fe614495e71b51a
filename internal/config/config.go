package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/dshills/natan/internal/config/interp"
	"github.com/dshills/natan/internal/config/layer"
	"github.com/dshills/natan/internal/config/loader"
	"github.com/dshills/natan/internal/config/tree"
	"github.com/dshills/natan/internal/config/walker"
	"github.com/dshills/natan/internal/logging"
)

// Loader loads a configuration file together with the files that overlap
// it. A Loader holds no per-load state and may be used concurrently.
type Loader struct {
	fs             afero.Fs
	env            loader.Env
	parsers        *loader.Registry
	workDir        string
	overlapping    *bool
	interpolation  *bool
	evaluator      string
	snippetTimeout time.Duration
	stopDir        string
	markers        []string
	settingsFile   string
	log            zerolog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithOverlapping enables or disables overlapping discovery. It takes
// precedence over NATAN_OVERLAPPING.
func WithOverlapping(enabled bool) Option {
	return func(l *Loader) {
		l.overlapping = &enabled
	}
}

// WithInterpolation enables or disables placeholder resolution. It takes
// precedence over NATAN_INTERPOLATION.
func WithInterpolation(enabled bool) Option {
	return func(l *Loader) {
		l.interpolation = &enabled
	}
}

// WithEvaluator selects the snippet engine. It takes precedence over
// NATAN_EVALUATOR.
func WithEvaluator(name string) Option {
	return func(l *Loader) {
		l.evaluator = name
	}
}

// WithSnippetTimeout bounds each snippet evaluation.
func WithSnippetTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.snippetTimeout = d
	}
}

// WithEnv sets the environment used for settings and snippets.
func WithEnv(env loader.Env) Option {
	return func(l *Loader) {
		if env != nil {
			l.env = env
		}
	}
}

// WithFS sets the file system configuration files are read from.
func WithFS(fsys afero.Fs) Option {
	return func(l *Loader) {
		if fsys != nil {
			l.fs = fsys
		}
	}
}

// WithWorkDir sets the directory relative targets and p{} paths are
// resolved against. Defaults to the process working directory.
func WithWorkDir(dir string) Option {
	return func(l *Loader) {
		l.workDir = dir
	}
}

// WithStopDir stops the upward walk at dir (inclusive).
func WithStopDir(dir string) Option {
	return func(l *Loader) {
		l.stopDir = dir
	}
}

// WithRootMarkers stops the upward walk at the first directory containing
// one of names.
func WithRootMarkers(names ...string) Option {
	return func(l *Loader) {
		l.markers = append(l.markers, names...)
	}
}

// WithSettingsFile sets the per-directory settings file name.
func WithSettingsFile(name string) Option {
	return func(l *Loader) {
		l.settingsFile = name
	}
}

// WithParser registers a parser for a file extension.
func WithParser(ext string, p loader.Parser) Option {
	return func(l *Loader) {
		l.parsers.Register(ext, p)
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Loader) {
		l.log = log
	}
}

// New creates a Loader reading the OS file system and environment.
func New(opts ...Option) *Loader {
	l := &Loader{
		fs:      loader.DefaultFS(),
		env:     loader.OSEnv{},
		parsers: loader.NewRegistry(),
		log:     logging.Component("config"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Settings returns the effective settings: explicit options first, then
// the environment, then defaults.
func (l *Loader) Settings() (Settings, error) {
	return resolveSettings(l.env, l.overlapping, l.interpolation, l.evaluator)
}

// Discover returns the files that contribute to target, least specific
// first.
func (l *Loader) Discover(target string) ([]layer.Candidate, error) {
	settings, err := l.Settings()
	if err != nil {
		return nil, err
	}
	return l.discover(settings, l.absTarget(target))
}

// Load returns the merged and resolved tree for target.
func (l *Loader) Load(ctx context.Context, target string) (*tree.Map, error) {
	cfg, err := l.LoadConfig(ctx, target)
	if err != nil {
		return nil, err
	}
	return cfg.Tree(), nil
}

// LoadConfig is like Load but also keeps the layers the result was built
// from.
func (l *Loader) LoadConfig(ctx context.Context, target string) (*Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target = l.absTarget(target)

	settings, err := l.Settings()
	if err != nil {
		return nil, err
	}

	cands, err := l.discover(settings, target)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", target, err)
	}

	stack, err := l.readLayers(target, cands)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", target, err)
	}

	merged := stack.Merge()
	if settings.UseInterpolation {
		if err := l.resolve(ctx, settings, merged); err != nil {
			return nil, fmt.Errorf("loading %s: %w", target, err)
		}
	}

	return &Config{target: target, settings: settings, tree: merged, layers: stack}, nil
}

func (l *Loader) absTarget(target string) string {
	if !filepath.IsAbs(target) && l.workDir != "" {
		target = filepath.Join(l.workDir, target)
	}
	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}
	return target
}

func (l *Loader) discover(settings Settings, target string) ([]layer.Candidate, error) {
	w := walker.New(
		walker.WithFS(l.fs),
		walker.WithOverlapping(settings.UseOverlapping),
		walker.WithStopDir(l.stopDir),
		walker.WithRootMarkers(l.markers...),
		walker.WithSettingsFile(l.settingsFile),
		walker.WithLogger(l.log),
	)
	return w.Discover(target)
}

func (l *Loader) readLayers(target string, cands []layer.Candidate) (*layer.Stack, error) {
	files := loader.NewFileLoaderWithFS(l.fs, l.parsers)
	stack := layer.NewStack()

	for _, c := range cands {
		data, err := files.LoadFrom(c.Path)
		if err != nil {
			return nil, err
		}
		if data == nil {
			// Removed between discovery and read.
			if c.Path == target {
				return nil, fmt.Errorf("%w: %s", walker.ErrTargetNotFound, target)
			}
			l.log.Debug().Str("file", c.Path).Msg("skipping vanished config file")
			continue
		}
		l.log.Debug().
			Str("file", c.Path).
			Str("kind", c.Kind.String()).
			Int("rank", c.Rank).
			Msg("parsed config file")
		if err := stack.Add(layer.NewLayer(c, data)); err != nil {
			return nil, err
		}
	}
	return stack, nil
}

func (l *Loader) resolve(ctx context.Context, settings Settings, merged *tree.Map) error {
	occs := interp.Scan(merged)
	if len(occs) == 0 {
		return nil
	}
	l.log.Debug().Int("placeholders", len(occs)).Msg("resolving placeholders")

	r := interp.NewResolver(merged,
		interp.WithEnv(l.env),
		interp.WithWorkDir(l.workDir),
		interp.WithEvaluator(settings.Evaluator),
		interp.WithSnippetTimeout(l.snippetTimeout),
		interp.WithLogger(l.log),
	)
	return r.Resolve(ctx, occs)
}

// IsNotFound reports whether err means the target file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, walker.ErrTargetNotFound)
}
