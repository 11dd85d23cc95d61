package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed execution lock.
type UnlockFunc func(ctx context.Context) error

// ExecutionLocker serializes pipeline executions that share one pipeline ID
// across replicas. Within a single process the runner already executes
// operations sequentially; the locker extends that guarantee outward.
type ExecutionLocker interface {
	// Lock blocks until the lock for key is acquired, the context is
	// canceled, or the TTL expires (implementation specific). The returned
	// UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
