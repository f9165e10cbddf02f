package mysql

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/bryanwahyu/gradebench/internal/domain/verdicts"
)

const schema = `
CREATE TABLE IF NOT EXISTS verdict_records (
  id           CHAR(36)     NOT NULL PRIMARY KEY,
  batch_id     CHAR(36)     NOT NULL,
  directory    VARCHAR(255) NOT NULL,
  filename     VARCHAR(512) NOT NULL,
  verdict      VARCHAR(32)  NOT NULL,
  collected_at DATETIME(6)  NOT NULL,
  INDEX idx_verdict_records_dir (directory, collected_at),
  INDEX idx_verdict_records_batch (batch_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
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

// Append inserts one batch in a single transaction.
func (r *VerdictRepository) Append(ctx context.Context, batchID string, records []domain.StoredRecord) error {
	const q = `
INSERT INTO verdict_records
  (id, batch_id, directory, filename, verdict, collected_at)
VALUES (?,?,?,?,?,?)
`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, q,
			rec.ID, batchID, rec.Record.Directory, rec.Record.Filename, rec.Record.Verdict, rec.CollectedAt.UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert verdict %s: %w", rec.Record.Filename, err)
		}
	}
	return tx.Commit()
}

// List returns the newest records collected from directory.
func (r *VerdictRepository) List(ctx context.Context, directory string, limit int) ([]*domain.StoredRecord, error) {
	const q = `
SELECT id, batch_id, directory, filename, verdict, collected_at
FROM verdict_records
WHERE directory=?
ORDER BY collected_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, directory, clampLimit(limit))
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
