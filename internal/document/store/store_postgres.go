package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"onboarding/internal/document/models"
	"onboarding/internal/platform/postgres"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
)

// PostgresStore persists documents and their append-only results.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const documentColumns = `id, verification_id, activation_id, type, side, other_side_id, status, provider_name,
	upload_id, provider_verification_id, filename, reject_reason, errors, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, d *models.Document) error {
	errs, err := marshalErrors(d.Errors)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO verification_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8,
			NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), $13, $14, $15)
	`
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, query,
		d.ID, d.VerificationID, d.ActivationID, d.Type, string(d.Side), string(d.OtherSideID), d.Status, d.ProviderName,
		d.UploadID, d.ProviderVerificationID, d.Filename, d.RejectReason, errs, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM verification_documents WHERE id = $1`
	d, err := scanDocument(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, docID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListByVerification(ctx context.Context, verificationID id.VerificationID) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM verification_documents WHERE verification_id = $1 ORDER BY created_at, id`
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, verificationID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var out []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// UpdateStatus moves a document out of from. Empty change fields leave the
// stored values untouched. It reports false when the document has moved on.
func (s *PostgresStore) UpdateStatus(ctx context.Context, docID id.DocumentID, from models.Status, change models.StatusChange, now time.Time) (bool, error) {
	var errs any
	if change.Errors != nil {
		b, err := marshalErrors(change.Errors)
		if err != nil {
			return false, err
		}
		errs = string(b)
	}
	query := `
		UPDATE verification_documents
		SET status = $3,
			reject_reason = COALESCE(NULLIF($4, ''), reject_reason),
			errors = COALESCE($5::jsonb, errors),
			provider_verification_id = COALESCE(NULLIF($6, ''), provider_verification_id),
			updated_at = $7
		WHERE id = $1 AND status = $2
	`
	result, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		docID, from, change.Status, change.RejectReason, errs, change.ProviderVerificationID, now)
	if err != nil {
		return false, fmt.Errorf("update document status: %w", err)
	}
	return rowsAffected(result, "update document status")
}

// SetOtherSide records one direction of a pairing. The link only moves when
// it still points at expected (empty for unpaired); it reports false when the
// link changed underneath or the document is disposed.
func (s *PostgresStore) SetOtherSide(ctx context.Context, docID, expected, otherID id.DocumentID, now time.Time) (bool, error) {
	query := `
		UPDATE verification_documents
		SET other_side_id = $3, updated_at = $4
		WHERE id = $1 AND other_side_id IS NOT DISTINCT FROM NULLIF($2, '') AND status <> 'DISPOSED'
	`
	result, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, docID, expected, otherID, now)
	if err != nil {
		return false, fmt.Errorf("set other side: %w", err)
	}
	return rowsAffected(result, "set other side")
}

func (s *PostgresStore) AddResult(ctx context.Context, r *models.Result) error {
	query := `
		INSERT INTO verification_document_results (id, document_id, phase, extracted_data, validation_payload, score, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		r.ID, r.DocumentID, r.Phase, r.ExtractedData, r.ValidationPayload, r.Score, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document result: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListResults(ctx context.Context, docID id.DocumentID) ([]*models.Result, error) {
	query := `
		SELECT id, document_id, phase, extracted_data, validation_payload, score, created_at
		FROM verification_document_results
		WHERE document_id = $1
		ORDER BY created_at
	`
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("list document results: %w", err)
	}
	defer rows.Close()
	var out []*models.Result
	for rows.Next() {
		var (
			r         models.Result
			extracted sql.NullString
			payload   sql.NullString
			score     sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Phase, &extracted, &payload, &score, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document result: %w", err)
		}
		r.ExtractedData = extracted.String
		r.ValidationPayload = payload.String
		r.Score = score.Float64
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document results: %w", err)
	}
	return out, nil
}

// StreamByProviderStatus yields documents of provider in status, oldest
// first, reading rows lazily.
func (s *PostgresStore) StreamByProviderStatus(ctx context.Context, provider string, status models.Status) iter.Seq2[*models.Document, error] {
	return func(yield func(*models.Document, error) bool) {
		query := `
			SELECT ` + documentColumns + `
			FROM verification_documents
			WHERE provider_name = $1 AND status = $2
			ORDER BY created_at, id
		`
		rows, err := s.db.QueryContext(ctx, query, provider, status)
		if err != nil {
			yield(nil, fmt.Errorf("stream documents: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanDocument(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scan document: %w", err))
				return
			}
			if !yield(d, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate documents: %w", err))
		}
	}
}

// StreamPendingVerifications yields each provider-side verification that
// still has documents in progress.
func (s *PostgresStore) StreamPendingVerifications(ctx context.Context, provider string) iter.Seq2[models.ProviderVerificationRef, error] {
	return func(yield func(models.ProviderVerificationRef, error) bool) {
		query := `
			SELECT verification_id, provider_verification_id
			FROM verification_documents
			WHERE provider_name = $1 AND status = 'VERIFICATION_IN_PROGRESS' AND provider_verification_id IS NOT NULL
			GROUP BY verification_id, provider_verification_id
			ORDER BY MIN(created_at)
		`
		rows, err := s.db.QueryContext(ctx, query, provider)
		if err != nil {
			yield(models.ProviderVerificationRef{}, fmt.Errorf("stream pending verifications: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var ref models.ProviderVerificationRef
			if err := rows.Scan(&ref.VerificationID, &ref.ProviderVerificationID); err != nil {
				yield(models.ProviderVerificationRef{}, fmt.Errorf("scan pending verification: %w", err))
				return
			}
			if !yield(ref, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.ProviderVerificationRef{}, fmt.Errorf("iterate pending verifications: %w", err))
		}
	}
}

func scanDocument(row interface{ Scan(dest ...any) error }) (*models.Document, error) {
	var (
		d             models.Document
		side          sql.NullString
		otherSide     sql.NullString
		uploadID      sql.NullString
		providerVerID sql.NullString
		filename      sql.NullString
		rejectReason  sql.NullString
		errs          []byte
	)
	if err := row.Scan(&d.ID, &d.VerificationID, &d.ActivationID, &d.Type, &side, &otherSide, &d.Status, &d.ProviderName,
		&uploadID, &providerVerID, &filename, &rejectReason, &errs, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Side = models.Side(side.String)
	d.OtherSideID = id.DocumentID(otherSide.String)
	d.UploadID = uploadID.String
	d.ProviderVerificationID = providerVerID.String
	d.Filename = filename.String
	d.RejectReason = rejectReason.String
	if len(errs) > 0 {
		if err := json.Unmarshal(errs, &d.Errors); err != nil {
			return nil, fmt.Errorf("unmarshal document errors: %w", err)
		}
	}
	return &d, nil
}

func marshalErrors(errs []string) ([]byte, error) {
	if errs == nil {
		errs = []string{}
	}
	b, err := json.Marshal(errs)
	if err != nil {
		return nil, fmt.Errorf("marshal document errors: %w", err)
	}
	return b, nil
}

func rowsAffected(result sql.Result, op string) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return rows > 0, nil
}
