//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// ownerLockPattern matches every key the Redis owner lock writes.
const ownerLockPattern = "famtree:ownerlock:*"

// RedisContainer backs the owner lock integration tests.
type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
	Client    *redis.Client
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "start redis container")

	abort := func(msg string, err error) {
		_ = container.Terminate(ctx)
		t.Fatalf("%s: %v", msg, err)
	}
	addr, err := container.ConnectionString(ctx)
	if err != nil {
		abort("redis connection string", err)
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		abort("parse redis URL", err)
	}
	opts.ClientName = "famtree-tests"
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		abort("ping redis", err)
	}

	// Shared across suites; Ryuk removes the container when the binary exits.
	return &RedisContainer{Container: container, Addr: addr, Client: client}
}

// FlushAll removes all keys; suites call it from SetupTest.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}

// LockKeys lists the owner lock keys currently held.
func (r *RedisContainer) LockKeys(t *testing.T) []string {
	t.Helper()
	var keys []string
	iter := r.Client.Scan(context.Background(), 0, ownerLockPattern, 100).Iterator()
	for iter.Next(context.Background()) {
		keys = append(keys, iter.Val())
	}
	require.NoError(t, iter.Err())
	return keys
}
