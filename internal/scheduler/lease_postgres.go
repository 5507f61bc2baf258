package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresLocker keeps leases as rows of scheduler_leases. A lease is taken
// by inserting the row or by overwriting one whose lock_until has passed.
type PostgresLocker struct {
	db *sql.DB
}

func NewPostgresLocker(db *sql.DB) *PostgresLocker {
	return &PostgresLocker{db: db}
}

func (l *PostgresLocker) TryAcquire(ctx context.Context, name, owner string, now time.Time, hold time.Duration) (Lease, bool, error) {
	lease := Lease{
		Name:       name,
		Owner:      owner,
		Token:      newToken(),
		AcquiredAt: now,
		Until:      now.Add(hold),
	}
	query := `
		INSERT INTO scheduler_leases (name, owner, token, locked_at, lock_until)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET owner = EXCLUDED.owner,
			token = EXCLUDED.token,
			locked_at = EXCLUDED.locked_at,
			lock_until = EXCLUDED.lock_until
		WHERE scheduler_leases.lock_until <= EXCLUDED.locked_at
	`
	res, err := l.db.ExecContext(ctx, query, lease.Name, lease.Owner, lease.Token, lease.AcquiredAt, lease.Until)
	if err != nil {
		return Lease{}, false, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Lease{}, false, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	if n == 0 {
		return Lease{}, false, nil
	}
	return lease, true, nil
}

func (l *PostgresLocker) Release(ctx context.Context, lease Lease, keepUntil, now time.Time) error {
	if keepUntil.Before(now) {
		keepUntil = now
	}
	query := `UPDATE scheduler_leases SET lock_until = $3 WHERE name = $1 AND token = $2`
	if _, err := l.db.ExecContext(ctx, query, lease.Name, lease.Token, keepUntil); err != nil {
		return fmt.Errorf("release lease %s: %w", lease.Name, err)
	}
	return nil
}
