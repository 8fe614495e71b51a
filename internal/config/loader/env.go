package loader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// Env reads environment variables. Components receive an Env instead of
// reading the process environment so that loads can be tested, and run
// concurrently, without mutating global state.
type Env interface {
	// LookupEnv returns the value of name and whether it is set.
	LookupEnv(name string) (string, bool)
	// Environ returns "NAME=value" pairs for every variable.
	Environ() []string
}

// OSEnv reads the process environment.
type OSEnv struct{}

// LookupEnv implements Env.
func (OSEnv) LookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Environ implements Env.
func (OSEnv) Environ() []string {
	return os.Environ()
}

// MapEnv is an Env backed by a map.
type MapEnv map[string]string

// LookupEnv implements Env.
func (m MapEnv) LookupEnv(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Environ implements Env. Pairs are sorted by name.
func (m MapEnv) Environ() []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// layeredEnv consults primary first and falls back to secondary.
type layeredEnv struct {
	primary   Env
	secondary Env
}

func (l layeredEnv) LookupEnv(name string) (string, bool) {
	if v, ok := l.primary.LookupEnv(name); ok {
		return v, true
	}
	return l.secondary.LookupEnv(name)
}

func (l layeredEnv) Environ() []string {
	seen := make(map[string]bool)
	var out []string
	for _, kv := range l.primary.Environ() {
		seen[envName(kv)] = true
		out = append(out, kv)
	}
	for _, kv := range l.secondary.Environ() {
		if !seen[envName(kv)] {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

func envName(kv string) string {
	name, _, _ := strings.Cut(kv, "=")
	return name
}

// Layer returns an Env that reads primary first, then secondary.
func Layer(primary, secondary Env) Env {
	return layeredEnv{primary: primary, secondary: secondary}
}

// LoadDotenv parses the given .env files with joho/godotenv and returns an
// Env in which base takes precedence over the file values, matching the
// usual dotenv rule that real environment variables are never overridden.
// Later files do not override earlier ones.
func LoadDotenv(fsys afero.Fs, base Env, paths ...string) (Env, error) {
	if fsys == nil {
		fsys = DefaultFS()
	}
	if base == nil {
		base = OSEnv{}
	}

	values := MapEnv{}
	for _, path := range paths {
		f, err := fsys.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening env file %s: %w", path, err)
		}
		parsed, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
		}
		for k, v := range parsed {
			if _, exists := values[k]; !exists {
				values[k] = v
			}
		}
	}

	return Layer(base, values), nil
}

// Flag reads a boolean switch from env. An unset variable yields def. When
// def is true only the exact string "false" turns the switch off; when def
// is false only the exact string "true" turns it on.
func Flag(env Env, name string, def bool) bool {
	v, ok := env.LookupEnv(name)
	if !ok {
		return def
	}
	if def {
		return v != "false"
	}
	return v == "true"
}

// GetEnvOrDefault returns the environment variable value or a default.
func GetEnvOrDefault(env Env, key, defaultValue string) string {
	if val, ok := env.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultValue
}
