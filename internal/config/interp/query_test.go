package interp

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/natan/internal/config/tree"
)

func TestQuery(t *testing.T) {
	root := tree.NewMap()
	server := tree.NewMap()
	server.Set("port", int64(8080))
	server.Set("hosts", []any{"a", "b"})
	root.Set("server", server)
	root.Set("match", regexp.MustCompile(`^\d+$`))

	ctx := context.Background()

	got, err := Query(ctx, ".server.port", root)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(8080)}, got)

	got, err = Query(ctx, ".server.hosts[]", root)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got)

	got, err = Query(ctx, ".match", root)
	require.NoError(t, err)
	assert.Equal(t, []any{`^\d+$`}, got)

	got, err = Query(ctx, ".server | {port}", root)
	require.NoError(t, err)
	require.Len(t, got, 1)
	obj, ok := got[0].(*tree.Map)
	require.True(t, ok)
	port, _ := obj.Get("port")
	assert.Equal(t, int64(8080), port)

	_, err = Query(ctx, ".[", root)
	assert.Error(t, err)

	_, err = Query(ctx, `error("boom")`, root)
	assert.Error(t, err)
}
