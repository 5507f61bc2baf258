package tx

import (
	"context"
	"sync"
)

// unit collects what a unit of work defers: hooks that run once it commits
// and compensations that undo in-memory writes when it fails.
type unit struct {
	mu        sync.Mutex
	committed []func(ctx context.Context)
	undo      []func()
}

type unitKey struct{}

func beginUnit(ctx context.Context) (context.Context, *unit) {
	u := &unit{}
	return context.WithValue(ctx, unitKey{}, u), u
}

func unitFrom(ctx context.Context) *unit {
	u, _ := ctx.Value(unitKey{}).(*unit)
	return u
}

// AfterCommit defers fn until the unit of work carried by ctx commits. A unit
// that fails drops fn. Without a unit of work fn runs at once.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	u := unitFrom(ctx)
	if u == nil {
		fn(ctx)
		return
	}
	u.mu.Lock()
	u.committed = append(u.committed, fn)
	u.mu.Unlock()
}

// OnRollback registers a compensation for a write no database transaction
// covers. Compensations run newest first when the unit of work fails. Without
// a unit of work the write stands and undo is discarded.
func OnRollback(ctx context.Context, undo func()) {
	u := unitFrom(ctx)
	if u == nil {
		return
	}
	u.mu.Lock()
	u.undo = append(u.undo, undo)
	u.mu.Unlock()
}

func (u *unit) commit(ctx context.Context) {
	u.mu.Lock()
	hooks := u.committed
	u.committed, u.undo = nil, nil
	u.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

func (u *unit) rollback() {
	u.mu.Lock()
	undo := u.undo
	u.committed, u.undo = nil, nil
	u.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}
