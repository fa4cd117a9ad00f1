package video

import (
	"context"
	"database/sql"
)

type Repository interface {
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	Save(ctx context.Context, v *Video) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM videos WHERE external_id = $1 AND processed = true)`
	err := r.db.QueryRowContext(ctx, query, externalID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) Save(ctx context.Context, v *Video) error {
	query := `INSERT INTO videos (external_id, creator_id, processed) VALUES ($1, $2, $3)
ON CONFLICT (external_id) DO UPDATE SET processed = EXCLUDED.processed
RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, v.ExternalID, v.CreatorID, v.Processed).
		Scan(&v.ID, &v.CreatedAt)
}
