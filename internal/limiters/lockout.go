// Package limiters implements the generic brute-force lockout guard shared by
// the login and OTP flows. Each guard instance is parameterized by its key
// prefixes, failure threshold, and rolling window; independent instances never
// touch each other's keys.
package limiters

import (
	"context"
	"time"

	"github.com/bookline/authcore/internal/kvstore"
)

// LockoutGuard tracks failures per subject and trips a lock flag at the
// threshold. The guard is an interface so the Redis backing can be swapped
// without touching callers.
type LockoutGuard interface {
	// Locked reports whether the subject's lock flag is set.
	Locked(ctx context.Context, subject string) (bool, error)
	// RecordFailure counts one failure inside the rolling window and returns
	// true when this failure tripped the lock.
	RecordFailure(ctx context.Context, subject string) (bool, error)
	// Reset returns the subject to the clean state: no counter, no lock.
	Reset(ctx context.Context, subject string) error
}

// Config parameterizes one guard instance.
type Config struct {
	CounterPrefix string
	LockPrefix    string
	Threshold     int
	Window        time.Duration
}

// RedisLockoutGuard is the production LockoutGuard. State transitions:
// Clean -> Counting on first failure, Counting -> Locked when the counter
// reaches the threshold (counter cleared, lock flag set for one window),
// any state -> Clean on success or window expiry. Expiry is the only
// garbage collector; there is no background sweep.
type RedisLockoutGuard struct {
	kv     *kvstore.Client
	config Config
}

// NewRedisLockoutGuard creates a guard over kv.
func NewRedisLockoutGuard(kv *kvstore.Client, cfg Config) *RedisLockoutGuard {
	return &RedisLockoutGuard{kv: kv, config: cfg}
}

func (g *RedisLockoutGuard) counterKey(subject string) string {
	return g.config.CounterPrefix + ":" + subject
}

func (g *RedisLockoutGuard) lockKey(subject string) string {
	return g.config.LockPrefix + ":" + subject
}

// Locked implements LockoutGuard.
func (g *RedisLockoutGuard) Locked(ctx context.Context, subject string) (bool, error) {
	return g.kv.Exists(ctx, g.lockKey(subject))
}

// RecordFailure implements LockoutGuard. Each failure refreshes the counter's
// TTL to the full window. When the threshold is reached the counter is
// cleared and the lock flag takes over for one window, so the flag never
// outlives the window that produced it.
func (g *RedisLockoutGuard) RecordFailure(ctx context.Context, subject string) (bool, error) {
	count, err := g.kv.IncrWindow(ctx, g.counterKey(subject), g.config.Window)
	if err != nil {
		return false, err
	}
	if count < int64(g.config.Threshold) {
		return false, nil
	}

	if err := g.kv.Set(ctx, g.lockKey(subject), "true", g.config.Window); err != nil {
		return false, err
	}
	if err := g.kv.Delete(ctx, g.counterKey(subject)); err != nil {
		return false, err
	}
	return true, nil
}

// Reset implements LockoutGuard. Idempotent.
func (g *RedisLockoutGuard) Reset(ctx context.Context, subject string) error {
	return g.kv.Delete(ctx, g.counterKey(subject), g.lockKey(subject))
}
