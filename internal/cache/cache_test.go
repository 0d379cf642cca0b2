package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New[string, int](time.Minute)

	_, ok := c.Get("missing")
	require.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	c.Delete("a")
	_, ok = c.Get("a")
	require.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New[string, string](time.Minute)
	c.SetUntil("k", "v", time.Now().Add(-time.Second))

	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestCacheOverwrite(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("a", 1)
	c.Set("a", 2)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, v)
}
