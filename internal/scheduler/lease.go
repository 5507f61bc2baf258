// Package scheduler runs the periodic batch jobs. Every tick of a job first
// takes a cluster-wide lease named after the job, so at most one instance in
// the deployment runs a given job at a time.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Lease is a held, time-bounded grant on a job name. Token identifies this
// holder; only the holder can shorten or free the lease.
type Lease struct {
	Name       string
	Owner      string
	Token      string
	AcquiredAt time.Time
	Until      time.Time
}

// Locker is a lease store shared by every instance of the deployment.
type Locker interface {
	// TryAcquire takes the named lease until now+hold. It returns false
	// without error while another holder's lease is live.
	TryAcquire(ctx context.Context, name, owner string, now time.Time, hold time.Duration) (Lease, bool, error)
	// Release keeps the lease until keepUntil and frees it after. A
	// keepUntil at or before now frees it immediately. Releasing a lease that
	// was already taken over is a no-op.
	Release(ctx context.Context, lease Lease, keepUntil, now time.Time) error
}

// MemoryLocker holds leases in process memory. It serves single-node
// deployments and tests.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]Lease
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{leases: make(map[string]Lease)}
}

func (l *MemoryLocker) TryAcquire(_ context.Context, name, owner string, now time.Time, hold time.Duration) (Lease, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if held, ok := l.leases[name]; ok && now.Before(held.Until) {
		return Lease{}, false, nil
	}
	lease := Lease{
		Name:       name,
		Owner:      owner,
		Token:      newToken(),
		AcquiredAt: now,
		Until:      now.Add(hold),
	}
	l.leases[name] = lease
	return lease, true, nil
}

func (l *MemoryLocker) Release(_ context.Context, lease Lease, keepUntil, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	held, ok := l.leases[lease.Name]
	if !ok || held.Token != lease.Token {
		return nil
	}
	if !keepUntil.After(now) {
		delete(l.leases, lease.Name)
		return nil
	}
	held.Until = keepUntil
	l.leases[lease.Name] = held
	return nil
}
