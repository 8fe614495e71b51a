package natan

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/dshills/natan/internal/config"
	"github.com/dshills/natan/internal/config/interp"
	"github.com/dshills/natan/internal/config/layer"
	"github.com/dshills/natan/internal/config/loader"
	"github.com/dshills/natan/internal/config/tree"
	"github.com/dshills/natan/internal/config/walker"
)

// Tree is an insertion-ordered configuration mapping.
type Tree = tree.Map

// Path addresses a node in a Tree.
type Path = tree.Path

// Candidate is a file taking part in an overlapping load.
type Candidate = layer.Candidate

// Kind records why a file was picked.
type Kind = layer.Kind

// Candidate kinds, least specific first within a directory.
const (
	KindBase            = layer.KindBase
	KindConventionLocal = layer.KindConventionLocal
	KindDeclaredLocal   = layer.KindDeclaredLocal
)

// Settings are the effective switches of a load.
type Settings = config.Settings

// Config is a loaded configuration with typed accessors and provenance.
type Config = config.Config

// Env reads environment variables.
type Env = loader.Env

// MapEnv is an Env backed by a map.
type MapEnv = loader.MapEnv

// OSEnv reads the process environment.
type OSEnv = loader.OSEnv

// Parser turns file content into a Tree.
type Parser = loader.Parser

// ParserFunc adapts a function to Parser.
type ParserFunc = loader.ParserFunc

// Error types. All match their sentinel below with errors.Is.
type (
	ParseError           = loader.ParseError
	ResolveError         = interp.ResolveError
	KeyNotFoundError     = interp.KeyNotFoundError
	CyclicReferenceError = interp.CyclicReferenceError
	DurationParseError   = interp.DurationParseError
	RegexSyntaxError     = interp.RegexSyntaxError
	EvaluationError      = interp.EvaluationError
	TypeError            = config.TypeError
)

// Sentinel errors.
var (
	ErrParse             = loader.ErrParse
	ErrNotFound          = walker.ErrTargetNotFound
	ErrKeyNotFound       = interp.ErrKeyNotFound
	ErrCyclicReference   = interp.ErrCyclicReference
	ErrDurationParse     = interp.ErrDurationParse
	ErrRegexSyntax       = interp.ErrRegexSyntax
	ErrEvaluation        = interp.ErrEvaluation
	ErrEvaluationTimeout = interp.ErrEvaluationTimeout
	ErrUnknownEvaluator  = config.ErrUnknownEvaluator
	ErrSettingNotFound   = config.ErrSettingNotFound
	ErrTypeMismatch      = config.ErrTypeMismatch
)

// Option configures a load.
type Option = config.Option

// WithOverlapping enables or disables discovery of overlapping files.
// It takes precedence over NATAN_OVERLAPPING.
func WithOverlapping(enabled bool) Option { return config.WithOverlapping(enabled) }

// WithInterpolation enables or disables placeholder resolution.
// It takes precedence over NATAN_INTERPOLATION.
func WithInterpolation(enabled bool) Option { return config.WithInterpolation(enabled) }

// WithEvaluator selects the snippet engine, "lua" or "jq".
// It takes precedence over NATAN_EVALUATOR.
func WithEvaluator(name string) Option { return config.WithEvaluator(name) }

// WithSnippetTimeout bounds each snippet evaluation. The default is one
// second.
func WithSnippetTimeout(d time.Duration) Option { return config.WithSnippetTimeout(d) }

// WithEnv replaces the process environment for settings and snippets.
func WithEnv(env Env) Option { return config.WithEnv(env) }

// WithFS reads configuration files from fsys instead of the OS.
func WithFS(fsys afero.Fs) Option { return config.WithFS(fsys) }

// WithWorkDir sets the directory relative targets and p{} paths resolve
// against.
func WithWorkDir(dir string) Option { return config.WithWorkDir(dir) }

// WithStopDir stops the upward walk at dir, which is still visited.
func WithStopDir(dir string) Option { return config.WithStopDir(dir) }

// WithRootMarkers stops the upward walk at the first directory holding
// one of names, for example ".git".
func WithRootMarkers(names ...string) Option { return config.WithRootMarkers(names...) }

// WithSettingsFile changes the per-directory settings file name from
// ".natan".
func WithSettingsFile(name string) Option { return config.WithSettingsFile(name) }

// WithParser registers a parser for a file extension.
func WithParser(ext string, p Parser) Option { return config.WithParser(ext, p) }

// WithLogger sets the logger used for debug output.
func WithLogger(log zerolog.Logger) Option { return config.WithLogger(log) }

// Load loads path together with its overlapping files and resolves every
// placeholder.
func Load(path string, opts ...Option) (*Tree, error) {
	return LoadContext(context.Background(), path, opts...)
}

// LoadContext is Load with a context that bounds snippet evaluation.
func LoadContext(ctx context.Context, path string, opts ...Option) (*Tree, error) {
	return config.New(opts...).Load(ctx, path)
}

// LoadConfig is like LoadContext but returns a Config with typed accessors
// and the list of contributing files.
func LoadConfig(ctx context.Context, path string, opts ...Option) (*Config, error) {
	return config.New(opts...).LoadConfig(ctx, path)
}

// Discover returns the files that would contribute to path, least
// specific first.
func Discover(path string, opts ...Option) ([]Candidate, error) {
	return config.New(opts...).Discover(path)
}

// ParseDuration converts a duration expression such as "1 hour and 30
// minutes" into milliseconds, as t{} does.
func ParseDuration(s string) (int64, error) {
	return interp.ParseDuration(s)
}
