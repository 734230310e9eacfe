package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/docgate/internal/core/domain"
)

const schemaLockID int64 = 2026101601

type ValidationRepository struct {
	db *sql.DB
}

func NewValidationRepository(db *sql.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

func (r *ValidationRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS validation_records (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	media_type TEXT NOT NULL,
	storage_path TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	score DOUBLE PRECISION NOT NULL DEFAULT 0,
	scores JSONB NOT NULL DEFAULT '[]'::jsonb,
	lexicon_version TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_records_status ON validation_records(status);
CREATE INDEX IF NOT EXISTS idx_validation_records_created_at ON validation_records(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ValidationRepository) Create(ctx context.Context, rec *domain.ValidationRecord) error {
	scoresJSON, err := marshalScores(rec.Scores)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO validation_records (
	id, filename, media_type, storage_path, status, reason, category, score, scores, lexicon_version, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		rec.ID, rec.Filename, rec.MediaType, rec.StoragePath, string(rec.Status), string(rec.Reason), string(rec.Category),
		rec.Score, scoresJSON, rec.LexiconVersion, rec.Error, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert validation record: %w", err)
	}
	return nil
}

func (r *ValidationRepository) GetByID(ctx context.Context, id string) (*domain.ValidationRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, media_type, storage_path, status, reason, category, score, scores, lexicon_version, error_message, created_at, updated_at
FROM validation_records
WHERE id = $1
`, id)

	var rec domain.ValidationRecord
	var status, reason, category string
	var scoresRaw []byte

	err := row.Scan(
		&rec.ID, &rec.Filename, &rec.MediaType, &rec.StoragePath, &status, &reason, &category,
		&rec.Score, &scoresRaw, &rec.LexiconVersion, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get validation record", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan validation record: %w", err)
	}

	if len(scoresRaw) > 0 {
		if err := json.Unmarshal(scoresRaw, &rec.Scores); err != nil {
			return nil, fmt.Errorf("unmarshal scores: %w", err)
		}
	}
	rec.Status = domain.ValidationStatus(status)
	rec.Reason = domain.ReasonCode(reason)
	rec.Category = domain.Category(category)
	return &rec, nil
}

func (r *ValidationRepository) UpdateStatus(ctx context.Context, id string, status domain.ValidationStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE validation_records
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update validation status: %w", err)
	}
	return requireRow(res, "update validation status", id)
}

// SaveOutcome persists the decision fields of a record.
func (r *ValidationRepository) SaveOutcome(ctx context.Context, rec *domain.ValidationRecord) error {
	scoresJSON, err := marshalScores(rec.Scores)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE validation_records
SET status = $2, reason = $3, category = $4, score = $5, scores = $6, lexicon_version = $7, error_message = $8, updated_at = $9
WHERE id = $1
`, rec.ID, string(rec.Status), string(rec.Reason), string(rec.Category), rec.Score, scoresJSON,
		rec.LexiconVersion, rec.Error, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save validation outcome: %w", err)
	}
	return requireRow(res, "save validation outcome", rec.ID)
}

func requireRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return domain.WrapError(domain.ErrNotFound, op, fmt.Errorf("id=%s", id))
	}
	return nil
}

func marshalScores(scores domain.ScoreVector) ([]byte, error) {
	if scores == nil {
		scores = domain.ScoreVector{}
	}
	raw, err := json.Marshal(scores)
	if err != nil {
		return nil, fmt.Errorf("marshal scores: %w", err)
	}
	return raw, nil
}
