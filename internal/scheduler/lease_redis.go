package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const leaseKeyPrefix = "onboarding:scheduler:lease:"

// releaseScript shortens or deletes the lease only while it still carries
// the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
local ms = tonumber(ARGV[2])
if ms > 0 then
	redis.call("PEXPIRE", KEYS[1], ms)
else
	redis.call("DEL", KEYS[1])
end
return 1
`)

// RedisLocker keeps leases as Redis keys holding the holder's token, set
// with NX and a PX expiry of the maximum hold.
type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, name, owner string, now time.Time, hold time.Duration) (Lease, bool, error) {
	token := newToken()
	ok, err := l.client.SetNX(ctx, leaseKeyPrefix+name, token, hold).Result()
	if err != nil {
		return Lease{}, false, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	if !ok {
		return Lease{}, false, nil
	}
	return Lease{
		Name:       name,
		Owner:      owner,
		Token:      token,
		AcquiredAt: now,
		Until:      now.Add(hold),
	}, true, nil
}

func (l *RedisLocker) Release(ctx context.Context, lease Lease, keepUntil, now time.Time) error {
	remaining := max(keepUntil.Sub(now).Milliseconds(), 0)
	if err := releaseScript.Run(ctx, l.client, []string{leaseKeyPrefix + lease.Name}, lease.Token, remaining).Err(); err != nil {
		return fmt.Errorf("release lease %s: %w", lease.Name, err)
	}
	return nil
}
