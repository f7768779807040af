package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T, expiration time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, "dash:", expiration), mr
}

func TestCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, 0)

	_, err := c.Get(ctx, "patientData")
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, c.Set(ctx, "patientData", `{"patients":[]}`))
	got, err := c.Get(ctx, "patientData")
	require.NoError(t, err)
	assert.Equal(t, `{"patients":[]}`, got)

	raw, err := mr.Get("dash:patientData")
	require.NoError(t, err)
	assert.Equal(t, `{"patients":[]}`, raw)
}

func TestCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, "k", "v"))
	assert.Equal(t, time.Minute, mr.TTL("dash:k"))

	mr.FastForward(2 * time.Minute)
	_, err := c.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestCacheSetAllAndRemove(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, 0)

	require.NoError(t, c.SetAll(ctx, map[string]string{"patientData": "a", "patientList": "b"}))
	assert.True(t, mr.Exists("dash:patientData"))
	assert.True(t, mr.Exists("dash:patientList"))

	require.NoError(t, c.Remove(ctx, "patientData", "patientList"))
	assert.False(t, mr.Exists("dash:patientData"))
	assert.False(t, mr.Exists("dash:patientList"))

	require.NoError(t, c.Remove(ctx))
}

func TestCacheUnavailable(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, 0)
	mr.Close()

	_, err := c.Get(ctx, "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMiss))
	assert.Error(t, c.Ping(ctx))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, m.SetAll(ctx, map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, m.Set(ctx, "c", "3"))
	v, err := m.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	require.NoError(t, m.Remove(ctx, "a", "missing"))
	_, err = m.Get(ctx, "a")
	assert.True(t, errors.Is(err, ErrMiss))

	v, err = m.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}
