package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_GetSetExpire(t *testing.T) {
	c := NewMemoryClient()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.Equal(t, ErrCacheMiss, err)
}

func TestMemoryClient_Counters(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()

	_, err := c.GetInt(ctx, "n")
	assert.Equal(t, ErrCacheMiss, err)

	require.NoError(t, c.Set(ctx, "n", 1, time.Minute))
	n, err := c.Incr(ctx, "n")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := c.GetInt(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	require.NoError(t, c.Delete(ctx, "n"))
	_, err = c.GetInt(ctx, "n")
	assert.Equal(t, ErrCacheMiss, err)
}
