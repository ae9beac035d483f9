package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tensorgridgo/internal/execctx"
)

func TestRegisterAndLookup(t *testing.T) {
	r := New()

	noop := func(ctx *execctx.Context) error { return nil }
	require.NoError(t, r.Register("noop", noop))

	k, ok := r.Lookup("noop")
	assert.True(t, ok)
	assert.NotNil(t, k)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := New()
	noop := func(ctx *execctx.Context) error { return nil }

	require.NoError(t, r.Register("noop", noop))
	err := r.Register("noop", noop)
	assert.ErrorContains(t, err, "already registered")
}

func TestNamesAreSorted(t *testing.T) {
	r := New()
	noop := func(ctx *execctx.Context) error { return nil }
	require.NoError(t, r.Register("b", noop))
	require.NoError(t, r.Register("a", noop))
	require.NoError(t, r.Register("c", noop))

	assert.Equal(t, []string{"a", "b", "c"}, r.Names())
}
