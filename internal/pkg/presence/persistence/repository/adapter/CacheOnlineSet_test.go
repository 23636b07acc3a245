package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheadapter "go-presence/internal/infrastructure/cache/adapter"
	cacheport "go-presence/internal/infrastructure/cache/port"
)

func backends(t *testing.T) map[string]cacheport.Cache {
	mr := miniredis.RunT(t)
	rc, err := cacheadapter.NewRedisAdapter(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return map[string]cacheport.Cache{
		"memory": cacheadapter.NewMemoryCache(),
		"redis":  rc,
	}
}

func TestCacheOnlineSet(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			set := NewCacheOnlineSet(c, "online_users")

			members, err := set.Members(ctx)
			require.NoError(t, err)
			assert.NotNil(t, members)
			assert.Empty(t, members)

			added, err := set.Add(ctx, "u1")
			require.NoError(t, err)
			assert.True(t, added)
			added, err = set.Add(ctx, "u1")
			require.NoError(t, err)
			assert.False(t, added)

			_, err = set.Add(ctx, "u2")
			require.NoError(t, err)

			n, err := set.Count(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)

			removed, err := set.Remove(ctx, "ghost")
			require.NoError(t, err)
			assert.False(t, removed)

			removed, err = set.Remove(ctx, "u2")
			require.NoError(t, err)
			assert.True(t, removed)

			members, err = set.Members(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"u1"}, members)

			ok, err := set.IsMember(ctx, "u1")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestCacheOnlineSetConnectionsAndLastSeen(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			set := NewCacheOnlineSet(c, "online_users")

			n, added, err := set.Acquire(ctx, "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			assert.True(t, added)
			n, added, err = set.Acquire(ctx, "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)
			assert.False(t, added)

			n, removed, err := set.Release(ctx, "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			assert.False(t, removed)
			online, err := set.IsMember(ctx, "u1")
			require.NoError(t, err)
			assert.True(t, online)

			n, removed, err = set.Release(ctx, "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 0, n)
			assert.True(t, removed)
			online, err = set.IsMember(ctx, "u1")
			require.NoError(t, err)
			assert.False(t, online)

			n, removed, err = set.Release(ctx, "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 0, n)
			assert.False(t, removed)

			n, added, err = set.Acquire(ctx, "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			assert.True(t, added)

			seen, err := set.LastSeen(ctx, "u1")
			require.NoError(t, err)
			assert.Nil(t, seen)

			at := time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)
			require.NoError(t, set.TouchLastSeen(ctx, "u1", at))
			seen, err = set.LastSeen(ctx, "u1")
			require.NoError(t, err)
			require.NotNil(t, seen)
			assert.True(t, at.Equal(*seen))
		})
	}
}
