package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheadapter "go-presence/internal/infrastructure/cache/adapter"
	"go-presence/internal/pkg/presence/persistence/repository/adapter"
	repository "go-presence/internal/pkg/presence/persistence/repository/port"
)

func newSet() *adapter.CacheOnlineSet {
	return adapter.NewCacheOnlineSet(cacheadapter.NewMemoryCache(), "online_users")
}

type failingSet struct {
	repository.OnlineSet
}

func (failingSet) Add(context.Context, string) (bool, error) {
	return false, errors.New("dial tcp: connection refused")
}

func (failingSet) Remove(context.Context, string) (bool, error) {
	return false, errors.New("dial tcp: connection refused")
}

func (failingSet) Members(context.Context) ([]string, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (failingSet) Acquire(context.Context, string) (int64, bool, error) {
	return 0, false, errors.New("dial tcp: connection refused")
}

func (failingSet) Release(context.Context, string) (int64, bool, error) {
	return 0, false, errors.New("dial tcp: connection refused")
}

func TestConnectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	set := newSet()
	uc := NewConnectUserUseCase(set, false)

	first, err := uc.Execute(ctx, ConnectUserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, first.Added)
	assert.True(t, first.Announce)

	second, err := uc.Execute(ctx, ConnectUserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, second.Added)
	assert.True(t, second.Announce)

	ids, err := NewGetOnlineUsersUseCase(set).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
}

func TestConnectIgnoresAnonymous(t *testing.T) {
	res, err := NewConnectUserUseCase(failingSet{}, false).Execute(context.Background(), ConnectUserInput{})
	require.NoError(t, err)
	assert.False(t, res.Announce)
}

func TestDisconnectAbsentUser(t *testing.T) {
	ctx := context.Background()
	set := newSet()
	_, err := set.Add(ctx, "other")
	require.NoError(t, err)

	res, err := NewDisconnectUserUseCase(set, false).Execute(ctx, DisconnectUserInput{UserID: "ghost"})
	require.NoError(t, err)
	assert.False(t, res.Removed)
	assert.True(t, res.Announce)

	ids, err := set.Members(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, ids)
}

func TestDisconnectWithoutTrackingDropsEverySession(t *testing.T) {
	ctx := context.Background()
	set := newSet()
	connect := NewConnectUserUseCase(set, false)
	_, err := connect.Execute(ctx, ConnectUserInput{UserID: "u1"})
	require.NoError(t, err)
	_, err = connect.Execute(ctx, ConnectUserInput{UserID: "u1"})
	require.NoError(t, err)

	res, err := NewDisconnectUserUseCase(set, false).Execute(ctx, DisconnectUserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.True(t, res.Announce)

	online, err := set.IsMember(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, online)
}

func TestTrackedConnectionsAnnounceOnce(t *testing.T) {
	ctx := context.Background()
	set := newSet()
	connect := NewConnectUserUseCase(set, true)
	disconnect := NewDisconnectUserUseCase(set, true)

	res, err := connect.Execute(ctx, ConnectUserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, res.Announce)
	res, err = connect.Execute(ctx, ConnectUserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, res.Announce)
	assert.EqualValues(t, 2, res.Connections)

	out, err := disconnect.Execute(ctx, DisconnectUserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, out.Announce)
	assert.EqualValues(t, 1, out.Remaining)

	online, err := set.IsMember(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, online)

	out, err = disconnect.Execute(ctx, DisconnectUserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, out.Announce)
	assert.True(t, out.Removed)
}

// racingSet runs hooks around the atomic Release, standing in for a
// second tab connecting on another process while the first one closes.
type racingSet struct {
	repository.OnlineSet
	before, after func()
}

func (s *racingSet) Release(ctx context.Context, userID string) (int64, bool, error) {
	if s.before != nil {
		s.before()
	}
	n, removed, err := s.OnlineSet.Release(ctx, userID)
	if s.after != nil {
		s.after()
	}
	return n, removed, err
}

func TestTrackedReconnectDuringDisconnectKeepsUserOnline(t *testing.T) {
	ctx := context.Background()

	t.Run("connect lands first", func(t *testing.T) {
		set := &racingSet{OnlineSet: newSet()}
		connect := NewConnectUserUseCase(set, true)
		_, err := connect.Execute(ctx, ConnectUserInput{UserID: "u1"})
		require.NoError(t, err)

		var second ConnectResult
		set.before = func() {
			second, err = connect.Execute(ctx, ConnectUserInput{UserID: "u1"})
			require.NoError(t, err)
		}
		out, err := NewDisconnectUserUseCase(set, true).Execute(ctx, DisconnectUserInput{UserID: "u1"})
		require.NoError(t, err)

		assert.False(t, second.Announce)
		assert.EqualValues(t, 2, second.Connections)
		assert.False(t, out.Announce)
		assert.False(t, out.Removed)
		assert.EqualValues(t, 1, out.Remaining)

		online, err := set.IsMember(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, online)
	})

	t.Run("disconnect lands first", func(t *testing.T) {
		set := &racingSet{OnlineSet: newSet()}
		connect := NewConnectUserUseCase(set, true)
		_, err := connect.Execute(ctx, ConnectUserInput{UserID: "u1"})
		require.NoError(t, err)

		var second ConnectResult
		set.after = func() {
			second, err = connect.Execute(ctx, ConnectUserInput{UserID: "u1"})
			require.NoError(t, err)
		}
		out, err := NewDisconnectUserUseCase(set, true).Execute(ctx, DisconnectUserInput{UserID: "u1"})
		require.NoError(t, err)

		// offline then online again, in that order, and the set ends with u1.
		assert.True(t, out.Announce)
		assert.True(t, out.Removed)
		assert.True(t, second.Announce)
		assert.True(t, second.Added)

		online, err := set.IsMember(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, online)
	})
}

func TestRosterAfterChurn(t *testing.T) {
	ctx := context.Background()
	set := newSet()
	connect := NewConnectUserUseCase(set, false)
	disconnect := NewDisconnectUserUseCase(set, false)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_, err := connect.Execute(ctx, ConnectUserInput{UserID: id})
		require.NoError(t, err)
	}
	for _, id := range []string{"b", "d"} {
		_, err := disconnect.Execute(ctx, DisconnectUserInput{UserID: id})
		require.NoError(t, err)
	}

	ids, err := NewGetOnlineUsersUseCase(set).Execute(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c", "e"}, ids)
}

func TestGetUserPresence(t *testing.T) {
	ctx := context.Background()
	set := newSet()
	at := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)

	_, err := NewConnectUserUseCase(set, false).Execute(ctx, ConnectUserInput{UserID: "u1"})
	require.NoError(t, err)

	status, err := NewGetUserPresenceUseCase(set).Execute(ctx, GetUserPresenceInput{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, status.Online)
	assert.Nil(t, status.LastSeen)

	disconnect := NewDisconnectUserUseCase(set, false)
	disconnect.Now = func() time.Time { return at }
	_, err = disconnect.Execute(ctx, DisconnectUserInput{UserID: "u1"})
	require.NoError(t, err)

	status, err = NewGetUserPresenceUseCase(set).Execute(ctx, GetUserPresenceInput{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, status.Online)
	require.NotNil(t, status.LastSeen)
	assert.True(t, at.Equal(*status.LastSeen))
}

func TestStoreFailuresAreWrapped(t *testing.T) {
	ctx := context.Background()

	_, err := NewConnectUserUseCase(failingSet{}, false).Execute(ctx, ConnectUserInput{UserID: "u1"})
	assert.ErrorIs(t, err, ErrPersistence)

	_, err = NewDisconnectUserUseCase(failingSet{}, false).Execute(ctx, DisconnectUserInput{UserID: "u1"})
	assert.ErrorIs(t, err, ErrPersistence)

	_, err = NewConnectUserUseCase(failingSet{}, true).Execute(ctx, ConnectUserInput{UserID: "u1"})
	assert.ErrorIs(t, err, ErrPersistence)

	_, err = NewDisconnectUserUseCase(failingSet{}, true).Execute(ctx, DisconnectUserInput{UserID: "u1"})
	assert.ErrorIs(t, err, ErrPersistence)

	_, err = NewGetOnlineUsersUseCase(failingSet{}).Execute(ctx)
	require.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "connection refused")
}
