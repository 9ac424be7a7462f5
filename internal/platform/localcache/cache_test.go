package localcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name"`
	Count float64 `json:"count"`
}

func TestPutGetRoundTrip(t *testing.T) {
	cache, err := New(t.TempDir())
	require.NoError(t, err)

	in := []payload{{Name: "flour", Count: 2}, {Name: "sugar", Count: 0.5}}
	require.NoError(t, cache.Put("shoppingList", in))

	var out []payload
	require.NoError(t, cache.Get("shoppingList", &out))
	assert.Equal(t, in, out)
}

func TestGetMissingKey(t *testing.T) {
	cache, err := New(t.TempDir())
	require.NoError(t, err)

	var out []payload
	assert.ErrorIs(t, cache.Get("recipes", &out), ErrMiss)
}

func TestPutOverwrites(t *testing.T) {
	cache, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Put("recipes", []payload{{Name: "old"}}))
	require.NoError(t, cache.Put("recipes", []payload{{Name: "new"}}))

	var out []payload
	require.NoError(t, cache.Get("recipes", &out))
	require.Len(t, out, 1)
	assert.Equal(t, "new", out[0].Name)
}
