package lease

import (
	"context"
	"time"

	"inventory-ledger/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Compare-and-act scripts keep a holder from renewing or releasing a lease it already lost.
var (
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
)

type RedisLease struct {
	client redis.Cmdable
	owner  string
}

func NewRedisLease(client redis.Cmdable) *RedisLease {
	return &RedisLease{client: client, owner: uuid.NewString()}
}

func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		return false, errs.Wrapf(err, "acquire lease %s", key)
	}
	if ok {
		return true, nil
	}

	renewed, err := renewScript.Run(ctx, l.client, []string{key}, l.owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, errs.Wrapf(err, "renew lease %s", key)
	}
	return renewed == 1, nil
}

func (l *RedisLease) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key}, l.owner).Err(); err != nil {
		return errs.Wrapf(err, "release lease %s", key)
	}
	return nil
}
