package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-presence/internal/infrastructure/cache/port"
)

func newRedisForTest(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisAdapter(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func cachesUnderTest(t *testing.T) map[string]port.Cache {
	redisCache, _ := newRedisForTest(t)
	return map[string]port.Cache{
		"memory": NewMemoryCache(),
		"redis":  redisCache,
	}
}

func TestSetOperations(t *testing.T) {
	ctx := context.Background()
	for name, c := range cachesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			added, err := c.SAdd(ctx, "online", "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, added)

			added, err = c.SAdd(ctx, "online", "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 0, added, "adding a present member is a no-op")

			_, err = c.SAdd(ctx, "online", "u2")
			require.NoError(t, err)

			n, err := c.SCard(ctx, "online")
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)

			ok, err := c.SIsMember(ctx, "online", "u2")
			require.NoError(t, err)
			assert.True(t, ok)

			removed, err := c.SRem(ctx, "online", "nobody")
			require.NoError(t, err)
			assert.EqualValues(t, 0, removed, "removing an absent member is a no-op")

			removed, err = c.SRem(ctx, "online", "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, removed)

			members, err := c.SMembers(ctx, "online")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"u2"}, members)

			members, err = c.SMembers(ctx, "missing")
			require.NoError(t, err)
			assert.Empty(t, members)
		})
	}
}

func TestKeyValueAndHash(t *testing.T) {
	ctx := context.Background()
	for name, c := range cachesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.Get(ctx, "k")
			assert.ErrorIs(t, err, port.ErrMiss)

			require.NoError(t, c.Set(ctx, "k", "v", 0))
			v, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", v)

			n, err := c.Del(ctx, "k", "absent")
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)

			count, err := c.HIncrBy(ctx, "conns", "u1", 1)
			require.NoError(t, err)
			assert.EqualValues(t, 1, count)
			count, err = c.HIncrBy(ctx, "conns", "u1", 1)
			require.NoError(t, err)
			assert.EqualValues(t, 2, count)
			count, err = c.HIncrBy(ctx, "conns", "u1", -2)
			require.NoError(t, err)
			assert.EqualValues(t, 0, count)

			deleted, err := c.HDel(ctx, "conns", "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, deleted)

			require.NoError(t, c.Ping(ctx))
		})
	}
}

func TestMemberCounters(t *testing.T) {
	ctx := context.Background()
	for name, c := range cachesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			n, added, err := c.AcquireMember(ctx, "conns", "online", "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			assert.True(t, added)

			n, added, err = c.AcquireMember(ctx, "conns", "online", "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)
			assert.False(t, added)

			n, removed, err := c.ReleaseMember(ctx, "conns", "online", "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			assert.False(t, removed)
			member, err := c.SIsMember(ctx, "online", "u1")
			require.NoError(t, err)
			assert.True(t, member)

			n, removed, err = c.ReleaseMember(ctx, "conns", "online", "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 0, n)
			assert.True(t, removed)
			member, err = c.SIsMember(ctx, "online", "u1")
			require.NoError(t, err)
			assert.False(t, member)

			// the counter field is gone, so HDel finds nothing.
			deleted, err := c.HDel(ctx, "conns", "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 0, deleted)

			// a stray release on an absent counter clears the set member.
			_, err = c.SAdd(ctx, "online", "u2")
			require.NoError(t, err)
			n, removed, err = c.ReleaseMember(ctx, "conns", "online", "u2")
			require.NoError(t, err)
			assert.EqualValues(t, 0, n)
			assert.True(t, removed)
		})
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.nowFunc = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, port.ErrMiss)
}

func TestNewRedisAdapterErrors(t *testing.T) {
	_, err := NewRedisAdapter(context.Background(), "")
	assert.Error(t, err)

	_, err = NewRedisAdapter(context.Background(), "not a url")
	assert.Error(t, err)
}
