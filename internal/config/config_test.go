package config

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/natan/internal/config/interp"
	"github.com/dshills/natan/internal/config/layer"
	"github.com/dshills/natan/internal/config/loader"
	"github.com/dshills/natan/internal/config/tree"
)

type files map[string]string

func memFS(t *testing.T, fs files) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	for path, content := range fs {
		require.NoError(t, afero.WriteFile(mem, path, []byte(content), 0o644))
	}
	return mem
}

func load(t *testing.T, fs files, target string, opts ...Option) (*tree.Map, error) {
	t.Helper()
	base := []Option{WithFS(memFS(t, fs)), WithEnv(loader.MapEnv{})}
	return New(append(base, opts...)...).Load(context.Background(), target)
}

func assertTree(t *testing.T, want map[string]any, got *tree.Map) {
	t.Helper()
	expected := tree.FromPlain(want)
	assert.True(t, tree.Equal(expected, got), "want %v\ngot  %v", want, tree.ToPlain(got))
}

func TestLoad_OverlappingEnabled(t *testing.T) {
	tests := []struct {
		name   string
		files  files
		target string
		want   map[string]any
	}{
		{
			name: "configuration default",
			files: files{
				"/t/.natan":       "{}",
				"/t/test.config":  `{"one": 1, "two": 2, "topTest": "test.config"}`,
				"/t/other.config": `{"three": 3}`,
			},
			target: "/t/test.config",
			want:   map[string]any{"one": 1, "two": 2, "topTest": "test.config"},
		},
		{
			name: "configuration local",
			files: files{
				"/t/.natan":             "local: named-local.config\n",
				"/t/test.config":        `{"one": 1, "two": 0, "topTest": "test.config"}`,
				"/t/named-local.config": `{"two": 2, "topTest": "named-local"}`,
			},
			target: "/t/test.config",
			want:   map[string]any{"one": 1, "two": 2, "topTest": "named-local"},
		},
		{
			name: "configuration parent",
			files: files{
				"/t/.natan":             "local: named-local.config\n",
				"/t/test.config":        `{"one": 1, "topTest": "test.config"}`,
				"/t/named-local.config": `{"two": 2, "topTest": "named-local"}`,
				"/t/app/test.config":    `{"topTest": "app/test.config"}`,
			},
			target: "/t/app/test.config",
			want:   map[string]any{"one": 1, "two": 2, "topTest": "app/test.config"},
		},
		{
			name: "convention default",
			files: files{
				"/t/test.config": `{"one": 1, "two": 2, "topTest": "test.config"}`,
			},
			target: "/t/test.config",
			want:   map[string]any{"one": 1, "two": 2, "topTest": "test.config"},
		},
		{
			name: "convention local",
			files: files{
				"/t/test.config":       `{"one": 1, "two": 0, "topTest": "test.config"}`,
				"/t/test.config.local": `{"two": 2, "topTest": "test.config.local"}`,
			},
			target: "/t/test.config",
			want:   map[string]any{"one": 1, "two": 2, "topTest": "test.config.local"},
		},
		{
			name: "convention parent",
			files: files{
				"/t/test.config":       `{"one": 1, "topTest": "test.config"}`,
				"/t/test.local.config": `{"two": 2, "topTest": "test.local.config"}`,
				"/t/app/test.config":   `{"topTest": "app/test.config"}`,
			},
			target: "/t/app/test.config",
			want:   map[string]any{"one": 1, "two": 2, "topTest": "app/test.config"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := load(t, tt.files, tt.target)
			require.NoError(t, err)
			assertTree(t, tt.want, got)
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	fs := files{
		"/p/.natan":            "local: declared.config\n",
		"/p/test.config":       `{"level": "base", "a": {"x": 1, "y": 1}, "list": [1, 2]}`,
		"/p/test.local.config": `{"level": "convention", "a": {"y": 2}}`,
		"/p/declared.config":   `{"level": "declared", "a": {"z": 3}}`,
		"/p/app/test.config":   `{"list": [3]}`,
	}

	got, err := load(t, fs, "/p/test.config")
	require.NoError(t, err)
	assertTree(t, map[string]any{
		"level": "declared",
		"a":     map[string]any{"x": 1, "y": 2, "z": 3},
		"list":  []any{1, 2},
	}, got)
	assert.Equal(t, []string{"level", "a", "list"}, got.Keys())

	got, err = load(t, fs, "/p/app/test.config")
	require.NoError(t, err)
	v, _ := got.Get("list")
	assert.Equal(t, []any{int64(3)}, v, "arrays are replaced, not merged")
}

func TestLoad_PrecedenceAcrossLevels(t *testing.T) {
	fs := files{
		"/r/.natan":                    "local: declared.config\n",
		"/r/test.config":               `{"a": "base", "b": "base", "c": "base", "d": "base"}`,
		"/r/declared.config":           `{"a": "declared", "b": "declared", "c": "declared"}`,
		"/r/mid/app/test.config":       `{"a": "target", "b": "target"}`,
		"/r/mid/app/test.local.config": `{"a": "local"}`,
	}

	got, err := load(t, fs, "/r/mid/app/test.config")
	require.NoError(t, err)
	assertTree(t, map[string]any{
		"a": "local",
		"b": "target",
		"c": "declared",
		"d": "base",
	}, got)
}

func TestLoad_OverlappingDisabled(t *testing.T) {
	fs := files{
		"/t/test.config":     `{"three": 3, "topTest": "test.config"}`,
		"/t/app/test.config": `{"one": 1, "two": 2, "topTest": "app/test.config"}`,
	}
	want := map[string]any{"one": 1, "two": 2, "topTest": "app/test.config"}

	t.Run("option", func(t *testing.T) {
		got, err := load(t, fs, "/t/app/test.config", WithOverlapping(false))
		require.NoError(t, err)
		assertTree(t, want, got)
	})

	t.Run("environment", func(t *testing.T) {
		got, err := load(t, fs, "/t/app/test.config",
			WithEnv(loader.MapEnv{EnvOverlapping: "false"}))
		require.NoError(t, err)
		assertTree(t, want, got)
	})

	t.Run("option beats environment", func(t *testing.T) {
		got, err := load(t, fs, "/t/app/test.config",
			WithEnv(loader.MapEnv{EnvOverlapping: "false"}),
			WithOverlapping(true))
		require.NoError(t, err)
		v, _ := got.Get("three")
		assert.Equal(t, int64(3), v)
	})

	t.Run("only exact false disables", func(t *testing.T) {
		got, err := load(t, fs, "/t/app/test.config",
			WithEnv(loader.MapEnv{EnvOverlapping: "0"}))
		require.NoError(t, err)
		assert.True(t, got.Has("three"))
	})
}

func TestLoad_InterpolationDisabled(t *testing.T) {
	fs := files{
		"/t/test.config": `{
			"key": "k{ time }",
			"time": "t{ one minute }",
			"path": "p{ . }",
			"regExp": "r{ \\d+ }",
			"func": "f{ 1+1 }"
		}`,
	}
	want := map[string]any{
		"key":    "k{ time }",
		"time":   "t{ one minute }",
		"path":   "p{ . }",
		"regExp": `r{ \d+ }`,
		"func":   "f{ 1+1 }",
	}

	got, err := load(t, fs, "/t/test.config", WithInterpolation(false))
	require.NoError(t, err)
	assertTree(t, want, got)

	got, err = load(t, fs, "/t/test.config",
		WithEnv(loader.MapEnv{EnvInterpolation: "false"}))
	require.NoError(t, err)
	assertTree(t, want, got)

	got, err = load(t, fs, "/t/test.config")
	require.NoError(t, err)
	v, _ := got.Get("key")
	assert.Equal(t, int64(60000), v)
}

func TestLoad_InterpolationEnabled(t *testing.T) {
	t.Run("keys", func(t *testing.T) {
		got, err := load(t, files{"/t/test.config": `{
			"object": { "foo": "bar" },
			"objectCopy": "k{ object }",
			"objectFieldCopy": "k{ object.foo }",
			"arrayElementFieldCopy": "k{ array.1.abc }",
			"array": [ { "foo": "bar" }, { "abc": "xyz" } ],
			"arrayCopy": "k{ array }"
		}`}, "/t/test.config")
		require.NoError(t, err)
		assertTree(t, map[string]any{
			"object":                map[string]any{"foo": "bar"},
			"objectCopy":            map[string]any{"foo": "bar"},
			"objectFieldCopy":       "bar",
			"arrayElementFieldCopy": "xyz",
			"array":                 []any{map[string]any{"foo": "bar"}, map[string]any{"abc": "xyz"}},
			"arrayCopy":             []any{map[string]any{"foo": "bar"}, map[string]any{"abc": "xyz"}},
		}, got)
	})

	t.Run("keys across files", func(t *testing.T) {
		got, err := load(t, files{
			"/t/test.config":     `{"port": 80, "url": "http://localhost:k{port}"}`,
			"/t/app/test.config": `{"port": 8080}`,
		}, "/t/app/test.config")
		require.NoError(t, err)
		v, _ := got.Get("url")
		assert.Equal(t, "http://localhost:8080", v)
	})

	t.Run("times", func(t *testing.T) {
		got, err := load(t, files{"/t/test.config": `{
			"foo1": "t{ one minute }",
			"foo2": "t{ 1.5 minutes }",
			"foo3": "t{ 3 days and 4 hours }",
			"foo4": "t{ 3 days, 4 hours and 36 seconds }"
		}`}, "/t/test.config")
		require.NoError(t, err)
		assertTree(t, map[string]any{
			"foo1": 60000, "foo2": 90000, "foo3": 273600000, "foo4": 273636000,
		}, got)
	})

	t.Run("paths", func(t *testing.T) {
		got, err := load(t, files{"/t/test.config": `{
			"foo1": "p{ . }",
			"foo2": "p{ .. }",
			"foo3": "p{ ./src }"
		}`}, "/t/test.config", WithWorkDir("/work/dir"))
		require.NoError(t, err)
		assertTree(t, map[string]any{
			"foo1": "/work/dir", "foo2": "/work", "foo3": "/work/dir/src",
		}, got)
	})

	t.Run("regexps", func(t *testing.T) {
		got, err := load(t, files{"/t/test.config": `{
			"foo1": "r{ \\d+ }",
			"foo2": "r{ ^\\((.+)\\)$ }",
			"foo3": "r{ [a-z0-9] }"
		}`}, "/t/test.config")
		require.NoError(t, err)
		assertTree(t, map[string]any{
			"foo1": regexp.MustCompile(`\d+`),
			"foo2": regexp.MustCompile(`^\((.+)\)$`),
			"foo3": regexp.MustCompile(`[a-z0-9]`),
		}, got)
	})

	t.Run("funcs", func(t *testing.T) {
		host, err := os.Hostname()
		require.NoError(t, err)

		got, err := load(t, files{"/t/test.config": `{
			"foo1": "f{ 1*2 + 4 }",
			"foo2": "f{ env.USER }",
			"foo3": "f{ hostname() }"
		}`}, "/t/test.config", WithEnv(loader.MapEnv{"USER": "tester"}))
		require.NoError(t, err)
		assertTree(t, map[string]any{"foo1": 6, "foo2": "tester", "foo3": host}, got)
	})

	t.Run("jq from environment", func(t *testing.T) {
		got, err := load(t, files{"/t/test.config": `{"user": "f{ $ENV.USER }"}`},
			"/t/test.config",
			WithEnv(loader.MapEnv{"USER": "tester", EnvEvaluator: "jq"}))
		require.NoError(t, err)
		v, _ := got.Get("user")
		assert.Equal(t, "tester", v)
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		files  files
		opts   []Option
		target error
	}{
		{
			name:   "missing key",
			files:  files{"/t/test.config": `{"a": "k{ nope }"}`},
			target: interp.ErrKeyNotFound,
		},
		{
			name:   "bad duration",
			files:  files{"/t/test.config": `{"a": "t{ one fortnight }"}`},
			target: interp.ErrDurationParse,
		},
		{
			name:   "bad regex",
			files:  files{"/t/test.config": `{"a": "r{ [ }"}`},
			target: interp.ErrRegexSyntax,
		},
		{
			name:   "bad snippet",
			files:  files{"/t/test.config": `{"a": "f{ 1 + }"}`},
			target: interp.ErrEvaluation,
		},
		{
			name:   "cycle",
			files:  files{"/t/test.config": `{"a": "k{b}", "b": "k{a}"}`},
			target: interp.ErrCyclicReference,
		},
		{
			name: "parse error in an ancestor",
			files: files{
				"/test.config":   `{"a": `,
				"/t/test.config": `{}`,
			},
			target: loader.ErrParse,
		},
		{
			name:   "unknown evaluator",
			files:  files{"/t/test.config": `{}`},
			opts:   []Option{WithEvaluator("cobol")},
			target: ErrUnknownEvaluator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.files, "/t/test.config", tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestLoad_ErrorNamesTarget(t *testing.T) {
	_, err := load(t, files{"/t/test.config": `{"a": {"b": "k{ nope }"}}`}, "/t/test.config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading /t/test.config")

	var re *interp.ResolveError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "a.b", re.Path)
	assert.Equal(t, "k{ nope }", re.Raw)
}

func TestLoad_TargetNotFound(t *testing.T) {
	_, err := load(t, files{"/t/other.config": `{}`}, "/t/test.config")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = load(t, files{}, "/t/test.config", WithOverlapping(false))
	assert.True(t, IsNotFound(err))
}

func TestLoad_RelativeTarget(t *testing.T) {
	got, err := load(t, files{"/work/test.config": `{"a": 1}`}, "test.config", WithWorkDir("/work"))
	require.NoError(t, err)
	v, _ := got.Get("a")
	assert.Equal(t, int64(1), v)
}

func TestLoad_StopConditions(t *testing.T) {
	fs := files{
		"/test.config":           `{"top": true}`,
		"/repo/.git/HEAD":        "ref: refs/heads/main\n",
		"/repo/test.config":      `{"repo": true}`,
		"/repo/svc/test.config":  `{"svc": true}`,
		"/repo/svc/.natan":       "",
		"/other/test.config":     `{"other": true}`,
		"/other/app/.natan":      "root: true\n",
		"/other/app/test.config": `{"app": true}`,
	}

	got, err := load(t, fs, "/repo/svc/test.config", WithRootMarkers(".git"))
	require.NoError(t, err)
	assert.Equal(t, []string{"repo", "svc"}, got.Keys())

	got, err = load(t, fs, "/repo/svc/test.config", WithStopDir("/repo/svc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"svc"}, got.Keys())

	got, err = load(t, fs, "/other/app/test.config")
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, got.Keys())
}

func TestLoad_MixedFormats(t *testing.T) {
	fs := files{
		"/t/app.yaml":           "server:\n  host: localhost\n  port: 80\nname: app\n",
		"/t/app.local.yaml":     "server:\n  port: 8080\n",
		"/t/svc/app.yaml":       "name: svc\ntimeout: t{ 30 seconds }\n",
		"/t/svc/.natan":         "local:\n  \"*.yaml\": overrides.toml\n",
		"/t/svc/overrides.toml": "[server]\nhost = \"example.com\"\n",
	}

	got, err := load(t, fs, "/t/svc/app.yaml", WithParser(".toml", loader.TOMLParser{}))
	require.NoError(t, err)
	assertTree(t, map[string]any{
		"server":  map[string]any{"host": "example.com", "port": 8080},
		"name":    "svc",
		"timeout": 30000,
	}, got)
}

func TestLoad_CustomParser(t *testing.T) {
	kv := loader.ParserFunc(func(name string, data []byte) (*tree.Map, error) {
		m := tree.NewMap()
		m.Set("raw", string(data))
		return m, nil
	})
	got, err := load(t, files{"/t/app.kv": "hello"}, "/t/app.kv", WithParser("kv", kv))
	require.NoError(t, err)
	v, _ := got.Get("raw")
	assert.Equal(t, "hello", v)
}

func TestLoad_Deterministic(t *testing.T) {
	fs := files{
		"/t/test.config":     `{"b": 1, "a": {"y": "k{c}", "x": 2}, "c": "t{ 1s }"}`,
		"/t/app/test.config": `{"d": "p{ /x }", "a": {"z": 3}}`,
	}
	first, err := load(t, fs, "/t/app/test.config")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := load(t, fs, "/t/app/test.config")
		require.NoError(t, err)
		assert.True(t, tree.Equal(first, again))
		assert.Equal(t, first.Keys(), again.Keys())
	}
}

func TestLoader_Settings(t *testing.T) {
	s, err := New(WithEnv(loader.MapEnv{})).Settings()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	s, err = New(WithEnv(loader.MapEnv{
		EnvOverlapping:   "false",
		EnvInterpolation: "false",
		EnvEvaluator:     "jq",
	})).Settings()
	require.NoError(t, err)
	assert.Equal(t, Settings{UseOverlapping: false, UseInterpolation: false, Evaluator: "jq"}, s)

	s, err = New(
		WithEnv(loader.MapEnv{EnvOverlapping: "false", EnvEvaluator: "jq"}),
		WithOverlapping(true),
		WithEvaluator("lua"),
	).Settings()
	require.NoError(t, err)
	assert.True(t, s.UseOverlapping)
	assert.Equal(t, "lua", s.Evaluator)

	_, err = New(WithEnv(loader.MapEnv{EnvEvaluator: "cobol"})).Settings()
	assert.ErrorIs(t, err, ErrUnknownEvaluator)
}

func TestLoader_Discover(t *testing.T) {
	l := New(WithFS(memFS(t, files{
		"/t/test.config":       `{}`,
		"/t/test.local.config": `{}`,
		"/t/app/test.config":   `{}`,
	})), WithEnv(loader.MapEnv{}))

	cands, err := l.Discover("/t/app/test.config")
	require.NoError(t, err)
	require.Len(t, cands, 3)
	assert.Equal(t, layer.KindConventionLocal, cands[1].Kind)
	assert.Equal(t, "/t/app/test.config", cands[2].Path)
}

func TestLoader_SnippetTimeout(t *testing.T) {
	start := time.Now()
	_, err := load(t, files{"/t/test.config": `{"a": "f{ while true do end }"}`},
		"/t/test.config", WithSnippetTimeout(20*time.Millisecond))
	require.Error(t, err)
	assert.ErrorIs(t, err, interp.ErrEvaluationTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}
