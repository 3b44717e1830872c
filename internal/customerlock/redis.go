package customerlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyCustomerLock = "washcrm:customer:lock:%d"

	lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`
)

// RedisLocker holds a SETNX lease per customer so that several replicas
// serialize on the same customer.
type RedisLocker struct {
	client *redis.Client
	script *redis.Script
	log    *zap.Logger

	ttl         time.Duration
	wait        time.Duration
	retryPeriod time.Duration
}

func NewRedisLocker(client *redis.Client, log *zap.Logger) *RedisLocker {
	if client == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLocker{
		client:      client,
		script:      redis.NewScript(lockReleaseScript),
		log:         log,
		ttl:         10 * time.Second,
		wait:        5 * time.Second,
		retryPeriod: 25 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, customerIDs ...int64) (func(), error) {
	ids := normalizeIDs(customerIDs)
	releases := make([]func(), 0, len(ids))
	for _, id := range ids {
		release, err := l.acquire(ctx, id)
		if err != nil {
			releaseAll(releases)()
			return nil, err
		}
		releases = append(releases, release)
	}

	var once sync.Once
	unlock := releaseAll(releases)
	return func() { once.Do(unlock) }, nil
}

func (l *RedisLocker) acquire(ctx context.Context, id int64) (func(), error) {
	key := fmt.Sprintf(keyCustomerLock, id)
	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()

	for {
		token, ok, err := l.TryLock(ctx, key, l.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// the request context may already be cancelled
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := l.Release(releaseCtx, key, token); err != nil {
					l.log.Warn("release customer lock failed", zap.Int64("customer_id", id), zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrLockTimeout
		case <-time.After(l.retryPeriod):
		}
	}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("lock client not configured")
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}
