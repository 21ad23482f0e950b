package proxy

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pacelog/backend/pkg/testutil"
	"github.com/pacelog/backend/pkg/xcontext"
	"github.com/pacelog/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRegistry_lease(t *testing.T) {
	ctx := testutil.MockContext()

	mr := miniredis.RunT(t)
	registry := NewRegistry(xredis.NewClientWith(redis.NewClient(&redis.Options{Addr: mr.Addr()})))

	require.NoError(t, registry.Register(ctx, "user1", "conn1"))
	require.NoError(t, registry.Register(ctx, "user1", "conn2"))
	require.NoError(t, registry.Register(ctx, "user2", "conn3"))

	count, err := registry.Count(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, registry.Unregister(ctx, "user1", "conn1"))
	count, err = registry.Count(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// An entry whose lease is never refreshed expires on its own, so a
	// crashed process cannot pin the connection limit.
	ttl := xcontext.Configs(ctx).Socket.RegistryTTL
	mr.FastForward(ttl / 2)
	require.NoError(t, registry.Refresh(ctx, "user1", "conn2"))

	mr.FastForward(ttl/2 + 1)
	count, err = registry.Count(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	mr.FastForward(ttl)
	count, err = registry.Count(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, 0, count)
}
