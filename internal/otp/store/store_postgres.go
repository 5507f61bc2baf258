package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"onboarding/internal/otp/models"
	"onboarding/internal/platform/postgres"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
)

// PostgresStore persists codes in PostgreSQL. The partial unique index on
// (process_id, type) WHERE status = 'ACTIVE' backs the one-active-code rule.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const otpColumns = `id, process_id, type, code_hash, status, failed_attempts, max_attempts, created_at, expires_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, o *models.Otp) error {
	query := `INSERT INTO onboarding_otps (` + otpColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		o.ID, o.ProcessID, o.Type, o.CodeHash, o.Status,
		o.FailedAttempts, o.MaxAttempts, o.CreatedAt, o.ExpiresAt, o.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindActive(ctx context.Context, processID id.ProcessID, otpType models.Type) (*models.Otp, error) {
	query := `SELECT ` + otpColumns + ` FROM onboarding_otps WHERE process_id = $1 AND type = $2 AND status = 'ACTIVE'`
	o, err := scanOtp(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, processID, otpType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find active otp: %w", err)
	}
	return o, nil
}

// RecordFailedAttempt increments the attempt counter and fails the code once
// the last attempt is used, in one statement.
func (s *PostgresStore) RecordFailedAttempt(ctx context.Context, otpID id.OtpID, now time.Time) (*models.Otp, error) {
	query := `
		UPDATE onboarding_otps
		SET failed_attempts = failed_attempts + 1,
			status = CASE WHEN failed_attempts + 1 >= max_attempts THEN 'FAILED' ELSE status END,
			updated_at = $2
		WHERE id = $1 AND status = 'ACTIVE'
		RETURNING ` + otpColumns
	o, err := scanOtp(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, otpID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("record failed otp attempt: %w", err)
	}
	return o, nil
}

// Close moves an ACTIVE code to a final status. It reports false when the
// code was no longer active.
func (s *PostgresStore) Close(ctx context.Context, otpID id.OtpID, status models.Status, now time.Time) (bool, error) {
	result, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE onboarding_otps SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'ACTIVE'`,
		otpID, status, now)
	if err != nil {
		return false, fmt.Errorf("close otp: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close otp rows affected: %w", err)
	}
	return rows > 0, nil
}

// CancelActive cancels the active code of otpType, or of every type when
// otpType is empty.
func (s *PostgresStore) CancelActive(ctx context.Context, processID id.ProcessID, otpType models.Type, now time.Time) (int, error) {
	query := `
		UPDATE onboarding_otps
		SET status = 'CANCELED', updated_at = $3
		WHERE process_id = $1 AND status = 'ACTIVE' AND ($2::text = '' OR type = $2::text)
	`
	result, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, processID, string(otpType), now)
	if err != nil {
		return 0, fmt.Errorf("cancel active otps: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel active otps rows affected: %w", err)
	}
	return int(rows), nil
}

func (s *PostgresStore) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	result, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE onboarding_otps SET status = 'EXPIRED', updated_at = $1 WHERE status = 'ACTIVE' AND expires_at < $1`,
		now)
	if err != nil {
		return 0, fmt.Errorf("expire overdue otps: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire overdue otps rows affected: %w", err)
	}
	return int(rows), nil
}

func scanOtp(row interface{ Scan(dest ...any) error }) (*models.Otp, error) {
	var o models.Otp
	if err := row.Scan(&o.ID, &o.ProcessID, &o.Type, &o.CodeHash, &o.Status,
		&o.FailedAttempts, &o.MaxAttempts, &o.CreatedAt, &o.ExpiresAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
