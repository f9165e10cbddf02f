package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	domain "github.com/bryanwahyu/gradebench/internal/domain/verdicts"
)

const schema = `
CREATE TABLE IF NOT EXISTS verdict_records (
  id           UUID         PRIMARY KEY,
  batch_id     UUID         NOT NULL,
  directory    TEXT         NOT NULL,
  filename     TEXT         NOT NULL,
  verdict      TEXT         NOT NULL,
  collected_at TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verdict_records_dir ON verdict_records (directory, collected_at);
`

// VerdictRepository mirrors collected verdicts. Rows are only ever inserted.
type VerdictRepository struct {
	db *sql.DB
}

func NewVerdictRepository(db *sql.DB) *VerdictRepository {
	return &VerdictRepository{db: db}
}

func (r *VerdictRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Append inserts one batch with COPY inside a transaction.
func (r *VerdictRepository) Append(ctx context.Context, batchID string, records []domain.StoredRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("verdict_records",
		"id", "batch_id", "directory", "filename", "verdict", "collected_at"))
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, batchID, rec.Record.Directory, rec.Record.Filename, rec.Record.Verdict, rec.CollectedAt.UTC(),
		); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("copy verdict %s: %w", rec.Record.Filename, err)
		}
	}
	// flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// List returns the newest records collected from directory.
func (r *VerdictRepository) List(ctx context.Context, directory string, limit int) ([]*domain.StoredRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	const q = `
SELECT id, batch_id, directory, filename, verdict, collected_at
FROM verdict_records
WHERE directory=$1
ORDER BY collected_at DESC, id DESC
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, directory, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.StoredRecord
	for rows.Next() {
		var rec domain.StoredRecord
		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.Record.Directory, &rec.Record.Filename, &rec.Record.Verdict, &rec.CollectedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
