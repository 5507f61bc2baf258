package tx

import (
	"context"
	"database/sql"
	"hash/fnv"
	"sync"
	"time"

	dErrors "onboarding/pkg/domain-errors"
)

// Runner opens a unit of work. Stores reached through the context passed to
// fn take part in it.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner runs units of work in a database transaction.
type SQLRunner struct {
	db *sql.DB
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.db, fn)
}

// numLockShards spreads keys over independent mutexes.
const numLockShards = 128

const defaultLockTimeout = 5 * time.Second

// LockRunner serializes units of work that share a lock key for in-memory
// stores. A failed unit runs the compensations its stores registered with
// OnRollback; AfterCommit hooks run once the lock is released.
type LockRunner struct {
	shards  [numLockShards]sync.Mutex
	timeout time.Duration
}

// NewLockRunner creates a LockRunner. A zero timeout uses the default.
func NewLockRunner(timeout time.Duration) *LockRunner {
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	return &LockRunner{timeout: timeout}
}

func (r *LockRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if held, _ := ctx.Value(lockHeldKey{}).(bool); held {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	caller := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	unitCtx, u := beginUnit(context.WithValue(ctx, lockHeldKey{}, true))
	if err := r.locked(unitCtx, u, fn); err != nil {
		return err
	}
	u.commit(caller)
	return nil
}

// locked runs fn under the key's shard and undoes its writes, still under
// the shard, when it fails.
func (r *LockRunner) locked(ctx context.Context, u *unit, fn func(ctx context.Context) error) error {
	shard := r.selectShard(ctx)
	r.shards[shard].Lock()
	defer r.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if err := fn(ctx); err != nil {
		u.rollback()
		return err
	}
	return nil
}

func (r *LockRunner) selectShard(ctx context.Context) int {
	key, _ := ctx.Value(lockKey{}).(string)
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numLockShards)
}

type (
	lockKey     struct{}
	lockHeldKey struct{}
)

// WithLockKey names the aggregate a unit of work touches so that LockRunner
// serializes only work on the same key.
func WithLockKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, lockKey{}, key)
}
