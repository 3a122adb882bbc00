package ownerlock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
	"famtree/pkg/platform/sentinel"
)

const (
	redisKeyPrefix   = "famtree:ownerlock:"
	redisRetryPeriod = 25 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was re-acquired by another writer is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every replica. The TTL bounds how long a
// crashed holder can block an owner.
type RedisLocker struct {
	client  redis.UniversalClient
	ttl     time.Duration
	timeout time.Duration
}

func NewRedis(client redis.UniversalClient, ttl, acquireTimeout time.Duration) *RedisLocker {
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	return &RedisLocker{client: client, ttl: ttl, timeout: acquireTimeout}
}

// RedisKey is the key holding owner's lock token.
func RedisKey(owner id.OwnerRef) string {
	return redisKeyPrefix + owner.String()
}

func (l *RedisLocker) Lock(ctx context.Context, owner id.OwnerRef) (func(), error) {
	key := RedisKey(owner)
	token := uuid.NewString()

	acquireCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(redisRetryPeriod)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(acquireCtx, key, token, l.ttl).Result()
		if err != nil && acquireCtx.Err() == nil {
			return nil, dErrors.Wrap(errors.Join(sentinel.ErrUnavailable, err), dErrors.CodeInternal, "owner lock unavailable")
		}
		if ok {
			break
		}
		select {
		case <-acquireCtx.Done():
			return nil, dErrors.Wrap(sentinel.ErrLockHeld, dErrors.CodeTimeout, "timed out waiting for owner lock")
		case <-ticker.C:
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Release on a fresh context: the request context may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}
