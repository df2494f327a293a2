package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/signupd/internal/logging"
)

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var errLockHeld = errors.New("lock held")

// RedisLocker implements Locker with SET NX PX. The key expires after ttl so
// a crashed holder cannot block others forever; release only deletes the key
// if it still carries our token.
type RedisLocker struct {
	client redis.UniversalClient
	script *redis.Script
	prefix string
	ttl    time.Duration
	poll   time.Duration
	logger logging.Logger
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, l logging.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: client,
		script: redis.NewScript(releaseScript),
		prefix: "signupd:lock:",
		ttl:    ttl,
		poll:   50 * time.Millisecond,
		logger: l.With("module", "lock_redis"),
	}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	k := r.prefix + key
	token := uuid.NewString()

	err := retry.Do(ctx, retry.NewConstant(r.poll), func(ctx context.Context) error {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return fmt.Errorf("redis setnx: %w", err)
		}
		if !ok {
			return retry.RetryableError(errLockHeld)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	return func() {
		// release must outlive a cancelled request context
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := r.script.Run(rctx, r.client, []string{k}, token).Err(); err != nil {
			r.logger.Warn(rctx, "lock release failed", "key", key, "error", err)
		}
	}, nil
}
