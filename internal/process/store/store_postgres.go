package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"onboarding/internal/platform/postgres"
	"onboarding/internal/process/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
)

// PostgresStore persists processes in PostgreSQL. It joins a transaction
// carried in ctx when one is present.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const processColumns = `id, user_id, activation_id, status, error_score, error_detail, error_origin, correlation, created_at, updated_at, finished_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Process) error {
	correlation, err := json.Marshal(p.Correlation)
	if err != nil {
		return fmt.Errorf("marshal correlation: %w", err)
	}
	query := `
		INSERT INTO onboarding_processes (` + processColumns + `)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11)
	`
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, query,
		p.ID, p.UserID, p.ActivationID, p.Status, p.ErrorScore,
		p.ErrorDetail, p.ErrorOrigin, correlation, p.CreatedAt, p.UpdatedAt, p.FinishedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert process: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, processID id.ProcessID) (*models.Process, error) {
	query := `SELECT ` + processColumns + ` FROM onboarding_processes WHERE id = $1`
	p, err := scanProcess(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, processID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find process: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindRunningByUser(ctx context.Context, userID id.UserID) (*models.Process, error) {
	query := `
		SELECT ` + processColumns + `
		FROM onboarding_processes
		WHERE user_id = $1 AND status IN ('ACTIVATION_IN_PROGRESS', 'VERIFICATION_IN_PROGRESS')
	`
	p, err := scanProcess(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find running process: %w", err)
	}
	return p, nil
}

// Activate binds the activation and enters verification. It reports false when
// the process is no longer awaiting activation.
func (s *PostgresStore) Activate(ctx context.Context, processID id.ProcessID, activationID id.ActivationID, now time.Time) (bool, error) {
	query := `
		UPDATE onboarding_processes
		SET activation_id = $2, status = 'VERIFICATION_IN_PROGRESS', updated_at = $3
		WHERE id = $1 AND status = 'ACTIVATION_IN_PROGRESS'
	`
	return s.execConditional(ctx, "activate process", query, processID, activationID, now)
}

func (s *PostgresStore) Finish(ctx context.Context, processID id.ProcessID, now time.Time) (bool, error) {
	query := `
		UPDATE onboarding_processes
		SET status = 'FINISHED', updated_at = $2, finished_at = $2
		WHERE id = $1 AND status = 'VERIFICATION_IN_PROGRESS'
	`
	return s.execConditional(ctx, "finish process", query, processID, now)
}

func (s *PostgresStore) Fail(ctx context.Context, processID id.ProcessID, origin models.FailureOrigin, detail string, now time.Time) (bool, error) {
	query := `
		UPDATE onboarding_processes
		SET status = 'FAILED', error_origin = $2, error_detail = $3, updated_at = $4, finished_at = $4
		WHERE id = $1 AND status IN ('ACTIVATION_IN_PROGRESS', 'VERIFICATION_IN_PROGRESS')
	`
	return s.execConditional(ctx, "fail process", query, processID, origin, detail, now)
}

// AddErrorScore increments the score of a running process in a single
// statement so concurrent increments are never lost. The score of a final
// process is frozen and returned unchanged.
func (s *PostgresStore) AddErrorScore(ctx context.Context, processID id.ProcessID, weight int, now time.Time) (int, error) {
	query := `
		UPDATE onboarding_processes
		SET error_score = error_score + $2, updated_at = $3
		WHERE id = $1 AND status IN ('ACTIVATION_IN_PROGRESS', 'VERIFICATION_IN_PROGRESS')
		RETURNING error_score
	`
	var score int
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, query, processID, weight, now).Scan(&score)
	if err == nil {
		return score, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("add error score: %w", err)
	}
	err = tx.Exec(ctx, s.db).QueryRowContext(ctx, `SELECT error_score FROM onboarding_processes WHERE id = $1`, processID).Scan(&score)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("read error score: %w", err)
	}
	return score, nil
}

// StreamCreatedBefore yields processes in status created at or before cutoff,
// oldest first. Rows are read lazily; stopping the iteration closes the cursor.
func (s *PostgresStore) StreamCreatedBefore(ctx context.Context, status models.Status, cutoff time.Time) iter.Seq2[*models.Process, error] {
	return func(yield func(*models.Process, error) bool) {
		query := `
			SELECT ` + processColumns + `
			FROM onboarding_processes
			WHERE status = $1 AND created_at <= $2
			ORDER BY created_at
		`
		rows, err := s.db.QueryContext(ctx, query, status, cutoff)
		if err != nil {
			yield(nil, fmt.Errorf("stream processes: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProcess(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scan process: %w", err))
				return
			}
			if !yield(p, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate processes: %w", err))
		}
	}
}

func (s *PostgresStore) execConditional(ctx context.Context, op, query string, args ...any) (bool, error) {
	result, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcess(row rowScanner) (*models.Process, error) {
	var (
		p            models.Process
		activationID sql.NullString
		detail       sql.NullString
		origin       sql.NullString
		correlation  []byte
		finishedAt   sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.UserID, &activationID, &p.Status, &p.ErrorScore,
		&detail, &origin, &correlation, &p.CreatedAt, &p.UpdatedAt, &finishedAt); err != nil {
		return nil, err
	}
	p.ActivationID = id.ActivationID(activationID.String)
	p.ErrorDetail = detail.String
	p.ErrorOrigin = models.FailureOrigin(origin.String)
	if len(correlation) > 0 {
		if err := json.Unmarshal(correlation, &p.Correlation); err != nil {
			return nil, fmt.Errorf("unmarshal correlation: %w", err)
		}
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		p.FinishedAt = &t
	}
	return &p, nil
}
