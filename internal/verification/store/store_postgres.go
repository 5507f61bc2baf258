package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"onboarding/internal/platform/postgres"
	"onboarding/internal/verification/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
)

// PostgresStore persists verifications. The partial unique index on
// activation_id keeps one running verification per activation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const verificationColumns = `id, process_id, activation_id, user_id, phase, status, reject_reason, error_detail, session_info, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, v *models.Verification) error {
	query := `
		INSERT INTO identity_verifications (` + verificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, '')::jsonb, $10, $11)
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		v.ID, v.ProcessID, v.ActivationID, v.UserID, v.Phase, v.Status,
		v.RejectReason, v.ErrorDetail, v.SessionInfo, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM identity_verifications WHERE id = $1`
	return s.findOne(ctx, "find verification", query, verificationID)
}

func (s *PostgresStore) FindLatestByActivation(ctx context.Context, activationID id.ActivationID) (*models.Verification, error) {
	query := `
		SELECT ` + verificationColumns + `
		FROM identity_verifications
		WHERE activation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	return s.findOne(ctx, "find latest verification", query, activationID)
}

func (s *PostgresStore) FindRunningByProcess(ctx context.Context, processID id.ProcessID) (*models.Verification, error) {
	query := `
		SELECT ` + verificationColumns + `
		FROM identity_verifications
		WHERE process_id = $1 AND phase <> 'COMPLETED'
		LIMIT 1
	`
	return s.findOne(ctx, "find running verification", query, processID)
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, arg any) (*models.Verification, error) {
	v, err := scanVerification(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// UpdateState moves a verification out of from. It reports false when the
// row is no longer in from.
func (s *PostgresStore) UpdateState(ctx context.Context, verificationID id.VerificationID, from models.State, change models.StateChange, now time.Time) (bool, error) {
	var session any
	if change.SessionInfo != nil {
		session = *change.SessionInfo
	}
	query := `
		UPDATE identity_verifications
		SET phase = $4,
			status = $5,
			error_detail = COALESCE(NULLIF($6, ''), error_detail),
			reject_reason = COALESCE(NULLIF($7, ''), reject_reason),
			session_info = CASE WHEN $8::text IS NULL THEN session_info ELSE NULLIF($8::text, '')::jsonb END,
			updated_at = $9
		WHERE id = $1 AND phase = $2 AND status = $3
	`
	result, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		verificationID, from.Phase, from.Status, change.To.Phase, change.To.Status,
		change.ErrorDetail, change.RejectReason, session, now)
	if err != nil {
		return false, fmt.Errorf("update verification state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update verification state rows affected: %w", err)
	}
	return rows > 0, nil
}

// StreamByState yields verifications in state, oldest first.
func (s *PostgresStore) StreamByState(ctx context.Context, state models.State) iter.Seq2[*models.Verification, error] {
	return func(yield func(*models.Verification, error) bool) {
		query := `
			SELECT ` + verificationColumns + `
			FROM identity_verifications
			WHERE phase = $1 AND status = $2
			ORDER BY created_at, id
		`
		rows, err := s.db.QueryContext(ctx, query, state.Phase, state.Status)
		if err != nil {
			yield(nil, fmt.Errorf("stream verifications: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			v, err := scanVerification(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scan verification: %w", err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate verifications: %w", err))
		}
	}
}

// FailRunningCreatedBefore fails every running verification created at or
// before cutoff in one statement.
func (s *PostgresStore) FailRunningCreatedBefore(ctx context.Context, cutoff time.Time, detail string, now time.Time) ([]models.ExpiredRef, error) {
	query := `
		UPDATE identity_verifications
		SET phase = 'COMPLETED', status = 'FAILED', error_detail = $2, updated_at = $3
		WHERE phase <> 'COMPLETED' AND created_at <= $1
		RETURNING id, process_id, user_id, activation_id, session_info
	`
	return s.failRunning(ctx, query, cutoff, detail, now)
}

func (s *PostgresStore) FailRunningByProcess(ctx context.Context, processID id.ProcessID, detail string, now time.Time) ([]models.ExpiredRef, error) {
	query := `
		UPDATE identity_verifications
		SET phase = 'COMPLETED', status = 'FAILED', error_detail = $2, updated_at = $3
		WHERE phase <> 'COMPLETED' AND process_id = $1
		RETURNING id, process_id, user_id, activation_id, session_info
	`
	return s.failRunning(ctx, query, processID, detail, now)
}

func (s *PostgresStore) failRunning(ctx context.Context, query string, key any, detail string, now time.Time) ([]models.ExpiredRef, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, key, detail, now)
	if err != nil {
		return nil, fmt.Errorf("fail running verifications: %w", err)
	}
	defer rows.Close()
	var refs []models.ExpiredRef
	for rows.Next() {
		var (
			ref     models.ExpiredRef
			session sql.NullString
		)
		if err := rows.Scan(&ref.ID, &ref.ProcessID, &ref.UserID, &ref.ActivationID, &session); err != nil {
			return nil, fmt.Errorf("scan failed verification: %w", err)
		}
		ref.SessionInfo = session.String
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed verifications: %w", err)
	}
	return refs, nil
}

func scanVerification(row interface{ Scan(dest ...any) error }) (*models.Verification, error) {
	var (
		v            models.Verification
		rejectReason sql.NullString
		errorDetail  sql.NullString
		session      sql.NullString
	)
	if err := row.Scan(&v.ID, &v.ProcessID, &v.ActivationID, &v.UserID, &v.Phase, &v.Status,
		&rejectReason, &errorDetail, &session, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.RejectReason = rejectReason.String
	v.ErrorDetail = errorDetail.String
	v.SessionInfo = session.String
	return &v, nil
}
