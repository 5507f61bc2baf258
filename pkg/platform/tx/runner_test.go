package tx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "onboarding/pkg/domain-errors"
)

func TestLockRunner(t *testing.T) {
	t.Run("serializes work on the same key", func(t *testing.T) {
		r := NewLockRunner(time.Second)
		ctx := WithLockKey(context.Background(), "act-1")

		var mu sync.Mutex
		inside, maxInside := 0, 0
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = r.RunInTx(ctx, func(context.Context) error {
					mu.Lock()
					inside++
					maxInside = max(maxInside, inside)
					mu.Unlock()
					time.Sleep(time.Millisecond)
					mu.Lock()
					inside--
					mu.Unlock()
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxInside)
	})

	t.Run("nested units reuse the held lock", func(t *testing.T) {
		r := NewLockRunner(time.Second)
		ctx := WithLockKey(context.Background(), "act-1")

		err := r.RunInTx(ctx, func(ctx context.Context) error {
			return r.RunInTx(ctx, func(context.Context) error { return nil })
		})
		require.NoError(t, err)
	})

	t.Run("returns the error of fn", func(t *testing.T) {
		r := NewLockRunner(0)
		boom := errors.New("boom")
		assert.ErrorIs(t, r.RunInTx(context.Background(), func(context.Context) error { return boom }), boom)
	})

	t.Run("cancelled context is a timeout", func(t *testing.T) {
		r := NewLockRunner(time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := r.RunInTx(ctx, func(context.Context) error { return nil })
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func TestLockRunnerUnitOfWork(t *testing.T) {
	t.Run("failed unit runs compensations newest first and drops hooks", func(t *testing.T) {
		r := NewLockRunner(time.Second)
		var undone []string
		published := false

		err := r.RunInTx(context.Background(), func(ctx context.Context) error {
			OnRollback(ctx, func() { undone = append(undone, "first") })
			OnRollback(ctx, func() { undone = append(undone, "second") })
			AfterCommit(ctx, func(context.Context) { published = true })
			return errors.New("conflict")
		})

		require.Error(t, err)
		assert.Equal(t, []string{"second", "first"}, undone)
		assert.False(t, published)
	})

	t.Run("committed unit runs hooks once and no compensation", func(t *testing.T) {
		r := NewLockRunner(time.Second)
		undone := false
		var hooks []string

		err := r.RunInTx(WithLockKey(context.Background(), "act-1"), func(ctx context.Context) error {
			OnRollback(ctx, func() { undone = true })
			AfterCommit(ctx, func(context.Context) { hooks = append(hooks, "outer") })
			return r.RunInTx(ctx, func(ctx context.Context) error {
				AfterCommit(ctx, func(context.Context) { hooks = append(hooks, "nested") })
				assert.Empty(t, hooks, "hooks wait for the outer unit")
				return nil
			})
		})

		require.NoError(t, err)
		assert.False(t, undone)
		assert.Equal(t, []string{"outer", "nested"}, hooks)
	})

	t.Run("hooks can open a new unit on the same key", func(t *testing.T) {
		r := NewLockRunner(time.Second)
		ctx := WithLockKey(context.Background(), "act-1")
		ran := false

		err := r.RunInTx(ctx, func(ctx context.Context) error {
			AfterCommit(ctx, func(ctx context.Context) {
				require.NoError(t, r.RunInTx(ctx, func(context.Context) error {
					ran = true
					return nil
				}))
			})
			return nil
		})

		require.NoError(t, err)
		assert.True(t, ran)
	})
}

func TestAfterCommitWithoutUnit(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func(context.Context) { ran = true })
	assert.True(t, ran)

	assert.NotPanics(t, func() { OnRollback(context.Background(), func() { t.Fatal("no unit to roll back") }) })
}
