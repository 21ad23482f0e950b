package proxy

import (
	"context"

	"github.com/pacelog/backend/internal/common"
	"github.com/pacelog/backend/pkg/xcontext"
	"github.com/pacelog/backend/pkg/xredis"
)

// Registry tracks live connections across every process in redis. Each
// connection holds a key with a short lease; heartbeats refresh it, so a
// crashed process leaks nothing past the lease.
type Registry struct {
	redisClient xredis.Client
}

func NewRegistry(redisClient xredis.Client) *Registry {
	return &Registry{redisClient: redisClient}
}

func (r *Registry) Register(ctx context.Context, userID, connectionID string) error {
	ttl := xcontext.Configs(ctx).Socket.RegistryTTL
	return r.redisClient.Set(ctx, common.RedisKeyConnection(userID, connectionID), "1", ttl)
}

func (r *Registry) Refresh(ctx context.Context, userID, connectionID string) error {
	ttl := xcontext.Configs(ctx).Socket.RegistryTTL
	return r.redisClient.Expire(ctx, common.RedisKeyConnection(userID, connectionID), ttl)
}

func (r *Registry) Unregister(ctx context.Context, userID, connectionID string) error {
	return r.redisClient.Del(ctx, common.RedisKeyConnection(userID, connectionID))
}

func (r *Registry) Count(ctx context.Context, userID string) (int, error) {
	keys, err := r.redisClient.Keys(ctx, common.RedisKeyConnectionPattern(userID))
	if err != nil {
		return 0, err
	}

	return len(keys), nil
}
