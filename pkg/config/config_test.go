package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigSetGet(t *testing.T) {
	c := NewEmptyConfig()
	require.True(t, c.IsEmpty())

	require.NoError(t, c.Set("auth.tenantResource", "management"))
	require.NoError(t, c.Set("environment.overrides.authorityHost", "https://example.com"))

	v, ok := c.GetString("auth.tenantResource")
	require.True(t, ok)
	require.Equal(t, "management", v)

	v, ok = c.GetString("environment.overrides.authorityHost")
	require.True(t, ok)
	require.Equal(t, "https://example.com", v)

	_, ok = c.Get("auth.missing")
	require.False(t, ok)
	require.False(t, c.IsEmpty())
}

func TestConfigSetOverwritesLeaf(t *testing.T) {
	c := NewEmptyConfig()
	require.NoError(t, c.Set("a.b", "one"))
	require.NoError(t, c.Set("a.b", "two"))

	v, ok := c.GetString("a.b")
	require.True(t, ok)
	require.Equal(t, "two", v)
}

func TestConfigUnset(t *testing.T) {
	c := NewConfig(map[string]any{
		"a": map[string]any{
			"b": "value",
			"c": "other",
		},
	})

	require.NoError(t, c.Unset("a.b"))
	_, ok := c.Get("a.b")
	require.False(t, ok)

	// Sibling keys survive.
	v, ok := c.GetString("a.c")
	require.True(t, ok)
	require.Equal(t, "other", v)

	// Unsetting a missing path is not an error.
	require.NoError(t, c.Unset("x.y.z"))
}

func TestConfigGetNonLeaf(t *testing.T) {
	c := NewConfig(map[string]any{
		"a": map[string]any{"b": "value"},
	})

	node, ok := c.Get("a")
	require.True(t, ok)
	require.IsType(t, map[string]any{}, node)

	// A non-string leaf is not a string.
	_, ok = c.GetString("a")
	require.False(t, ok)
}
