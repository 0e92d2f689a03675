package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RunLock implements ports.RunLocker with a SET NX lock. It keeps two
// concurrent disbursement runs for the same date from selecting the same
// pending records; the TTL bounds how long a crashed run can hold the lock.
type RunLock struct {
	client *goredis.Client
	prefix string
}

// NewRunLock creates a Redis-backed run lock.
func NewRunLock(client *goredis.Client) *RunLock {
	return &RunLock{
		client: client,
		prefix: "runlock:",
	}
}

// Acquire takes the named lock if free. Returns false when another run
// already holds it.
func (l *RunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis run lock acquire: %w", err)
	}
	return ok, nil
}

// Release frees the named lock.
func (l *RunLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis run lock release: %w", err)
	}
	return nil
}
