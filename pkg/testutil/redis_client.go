package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pacelog/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient returns a client backed by an in-process miniredis
// instance, torn down with the test.
func NewRedisClient(t *testing.T) xredis.Client {
	mr := miniredis.RunT(t)
	return xredis.NewClientWith(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}
