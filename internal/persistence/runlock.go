package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const runLockKey = "sla:run:lock"

// RunLock serializes pipeline runs across triggers and instances using a
// Redis SET NX lease. When Redis is not configured the lock degrades to a
// no-op so a single-instance deployment still works.
type RunLock struct {
	client *redis.Client
	ttl    time.Duration
	token  string
}

// NewRunLock builds a lock with the given lease duration.
func NewRunLock(r *Redis, ttl time.Duration) *RunLock {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &RunLock{client: client, ttl: ttl}
}

// Acquire attempts to take the lock. It returns false when another run holds
// it.
func (l *RunLock) Acquire(ctx context.Context) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	l.token = uuid.NewString()
	ok, err := l.client.SetNX(ctx, runLockKey, l.token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release drops the lock if this holder still owns it.
func (l *RunLock) Release(ctx context.Context) {
	if l == nil || l.client == nil || l.token == "" {
		return
	}
	// Only delete our own lease; an expired lock may have been re-acquired.
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	_ = l.client.Eval(ctx, script, []string{runLockKey}, l.token).Err()
}
