package loader

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapEnv(t *testing.T) {
	env := MapEnv{"B": "2", "A": "1"}

	v, ok := env.LookupEnv("A")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = env.LookupEnv("C")
	assert.False(t, ok)

	assert.Equal(t, []string{"A=1", "B=2"}, env.Environ())
}

func TestOSEnv(t *testing.T) {
	t.Setenv("NATAN_TEST_OSENV", "value")

	v, ok := OSEnv{}.LookupEnv("NATAN_TEST_OSENV")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	assert.Contains(t, OSEnv{}.Environ(), "NATAN_TEST_OSENV=value")
}

func TestLayer(t *testing.T) {
	env := Layer(MapEnv{"A": "primary"}, MapEnv{"A": "secondary", "B": "only-secondary"})

	v, _ := env.LookupEnv("A")
	assert.Equal(t, "primary", v)
	v, _ = env.LookupEnv("B")
	assert.Equal(t, "only-secondary", v)
	assert.Equal(t, []string{"A=primary", "B=only-secondary"}, env.Environ())
}

func TestLoadDotenv(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/.env", []byte("# comment\nUSER=dotenv-user\nREGION=eu-west-1\nQUOTED=\"a b\"\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/.env.extra", []byte("REGION=us-east-1\nEXTRA=1\n"), 0o644))

	env, err := LoadDotenv(fs, MapEnv{"USER": "real-user"}, "/proj/.env", "/proj/.env.extra")
	require.NoError(t, err)

	tests := []struct {
		name string
		want string
	}{
		{"USER", "real-user"},   // base environment wins
		{"REGION", "eu-west-1"}, // first file wins
		{"QUOTED", "a b"},
		{"EXTRA", "1"},
	}
	for _, tt := range tests {
		v, ok := env.LookupEnv(tt.name)
		assert.True(t, ok, tt.name)
		assert.Equal(t, tt.want, v, tt.name)
	}
}

func TestLoadDotenv_MissingFile(t *testing.T) {
	_, err := LoadDotenv(afero.NewMemMapFs(), MapEnv{}, "/nope/.env")
	assert.Error(t, err)
}

func TestFlag(t *testing.T) {
	tests := []struct {
		name string
		env  MapEnv
		def  bool
		want bool
	}{
		{"unset keeps default true", MapEnv{}, true, true},
		{"unset keeps default false", MapEnv{}, false, false},
		{"exact false disables", MapEnv{"X": "false"}, true, false},
		{"FALSE is not false", MapEnv{"X": "FALSE"}, true, true},
		{"zero is not false", MapEnv{"X": "0"}, true, true},
		{"empty is not false", MapEnv{"X": ""}, true, true},
		{"exact true enables", MapEnv{"X": "true"}, false, true},
		{"yes does not enable", MapEnv{"X": "yes"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Flag(tt.env, "X", tt.def))
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	env := MapEnv{"SET": "v", "EMPTY": ""}
	assert.Equal(t, "v", GetEnvOrDefault(env, "SET", "d"))
	assert.Equal(t, "d", GetEnvOrDefault(env, "EMPTY", "d"))
	assert.Equal(t, "d", GetEnvOrDefault(env, "UNSET", "d"))
}
