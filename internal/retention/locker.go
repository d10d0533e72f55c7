package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"casevault-platform/internal/resource"
	"casevault-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// resourceLockKey names the per-resource lock shared by the sweep's
// critical section and direct-scope hold creation.
func resourceLockKey(typ resource.Type, id string) string {
	return fmt.Sprintf("retention:lock:%s:%s", typ, id)
}

// RedisLocker implements Locker over the shared Redis lock scripts, so
// sweeps on different instances (and hold placement racing a sweep) contend
// on the same keys.
type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return utils.AcquireResourceLock(ctx, l.rdb, key, owner, ttl)
}

func (l *RedisLocker) Release(ctx context.Context, key, owner string) error {
	return utils.ReleaseResourceLock(ctx, l.rdb, key, owner)
}

// MemoryLocker is a single-process Locker for tests and local runs.
type MemoryLocker struct {
	mu     sync.Mutex
	owners map[string]string
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{owners: make(map[string]string)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if holder, ok := l.owners[key]; ok && holder != owner {
		return false, nil
	}
	l.owners[key] = owner
	return true, nil
}

func (l *MemoryLocker) Release(ctx context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owners[key] == owner {
		delete(l.owners, key)
	}
	return nil
}
