// Package ownerlock serializes mutations per owner collection. The graph
// engine itself is last-writer-wins; callers take this lock around each
// load-mutate-save cycle.
package ownerlock

import (
	"context"

	id "famtree/pkg/domain"
)

// Locker acquires an exclusive lock on one owner's collection. The returned
// release function is safe to call once.
type Locker interface {
	Lock(ctx context.Context, owner id.OwnerRef) (release func(), err error)
}

// With runs fn while holding the owner lock.
func With(ctx context.Context, l Locker, owner id.OwnerRef, fn func(ctx context.Context) error) error {
	release, err := l.Lock(ctx, owner)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}
