package verdicts

import "context"

// Repository mirrors the flat log into a database. It is insert-only: every
// collect run adds rows, nothing is updated or deleted.
type Repository interface {
	Append(ctx context.Context, batchID string, records []StoredRecord) error
	List(ctx context.Context, directory string, limit int) ([]*StoredRecord, error)
}

// ArtifactStore publishes log and report files.
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}
