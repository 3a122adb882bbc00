package ownerlock

import (
	"context"
	"hash/fnv"
	"time"

	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

// numShards spreads owners across independent locks. Two owners may share a
// shard; that only costs contention, never correctness.
const numShards = 128

const defaultAcquireTimeout = 5 * time.Second

// ShardedLocker is the in-process Locker. Each shard is a one-slot channel
// so acquisition can give up when ctx ends.
type ShardedLocker struct {
	shards  [numShards]chan struct{}
	timeout time.Duration
}

func NewSharded(timeout time.Duration) *ShardedLocker {
	if timeout <= 0 {
		timeout = defaultAcquireTimeout
	}
	l := &ShardedLocker{timeout: timeout}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *ShardedLocker) Lock(ctx context.Context, owner id.OwnerRef) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "owner lock aborted: context cancelled")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	shard := l.shards[shardFor(owner)]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for owner lock")
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		<-shard
	}, nil
}

func shardFor(owner id.OwnerRef) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(owner.String()))
	return h.Sum32() % numShards
}
