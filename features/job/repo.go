package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotClaimable is returned when a claim races a state change.
	ErrNotClaimable = errors.New("job is not pending")
)

type Repository interface {
	Create(ctx context.Context, j *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	// FetchOldestPending returns (nil, nil) when the queue is empty.
	FetchOldestPending(ctx context.Context) (*Job, error)
	MarkProcessing(ctx context.Context, id string) error
	// UpdateProgress persists progress, counters, metadata and the partial
	// result list while a job is processing. Progress never decreases.
	UpdateProgress(ctx context.Context, j *Job) error
	Complete(ctx context.Context, j *Job) error
	Fail(ctx context.Context, j *Job, errMsg string) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, j *Job) error {
	meta, err := json.Marshal(j.Metadata)
	if err != nil {
		return err
	}
	j.Status = StatusPending
	query := `INSERT INTO ingestion_jobs (creator_id, video_ids, status, metadata)
VALUES ($1, $2, 'pending', $3) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, j.CreatorID, pq.Array(j.VideoIDs), meta).
		Scan(&j.ID, &j.CreatedAt)
}

const selectColumns = `id, creator_id, video_ids, status, progress, videos_processed, videos_failed, metadata, result, error_message, created_at, started_at, completed_at`

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Job, error) {
	query := `SELECT ` + selectColumns + ` FROM ingestion_jobs WHERE id = $1`
	return r.scanJob(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepo) FetchOldestPending(ctx context.Context) (*Job, error) {
	query := `SELECT ` + selectColumns + ` FROM ingestion_jobs WHERE status = 'pending' ORDER BY created_at ASC LIMIT 1`
	j, err := r.scanJob(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

func (r *PostgresRepo) MarkProcessing(ctx context.Context, id string) error {
	// Conditional update doubles as the claim: a job that is no longer
	// pending cannot be picked up twice.
	query := `UPDATE ingestion_jobs SET status = 'processing', progress = 0, started_at = NOW() WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotClaimable
	}
	return nil
}

func (r *PostgresRepo) UpdateProgress(ctx context.Context, j *Job) error {
	meta, err := json.Marshal(j.Metadata)
	if err != nil {
		return err
	}
	result, err := json.Marshal(j.Result)
	if err != nil {
		return err
	}
	query := `UPDATE ingestion_jobs
SET progress = GREATEST(progress, $2), videos_processed = $3, videos_failed = $4, metadata = $5, result = $6
WHERE id = $1 AND status = 'processing'`
	_, err = r.db.ExecContext(ctx, query, j.ID, j.Progress, j.VideosProcessed, j.VideosFailed, meta, result)
	return err
}

func (r *PostgresRepo) Complete(ctx context.Context, j *Job) error {
	result, err := json.Marshal(j.Result)
	if err != nil {
		return err
	}
	query := `UPDATE ingestion_jobs
SET status = 'completed', progress = 100, videos_processed = $2, videos_failed = $3, result = $4, completed_at = NOW()
WHERE id = $1 AND status = 'processing'`
	_, err = r.db.ExecContext(ctx, query, j.ID, j.VideosProcessed, j.VideosFailed, result)
	return err
}

func (r *PostgresRepo) Fail(ctx context.Context, j *Job, errMsg string) error {
	result, err := json.Marshal(j.Result)
	if err != nil {
		return err
	}
	query := `UPDATE ingestion_jobs
SET status = 'failed', progress = 0, videos_processed = $2, videos_failed = $3, result = $4, error_message = $5, completed_at = NOW()
WHERE id = $1 AND status = 'processing'`
	_, err = r.db.ExecContext(ctx, query, j.ID, j.VideosProcessed, j.VideosFailed, result, errMsg)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresRepo) scanJob(row rowScanner) (*Job, error) {
	j := &Job{}
	var videoIDs pq.StringArray
	var meta, result []byte
	var errMsg sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&j.ID, &j.CreatorID, &videoIDs, &j.Status, &j.Progress,
		&j.VideosProcessed, &j.VideosFailed, &meta, &result, &errMsg,
		&j.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	j.VideoIDs = videoIDs
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &j.Metadata); err != nil {
			return nil, err
		}
	}
	if len(result) > 0 && string(result) != "null" {
		j.Result = &Result{}
		if err := json.Unmarshal(result, j.Result); err != nil {
			return nil, err
		}
	}
	if errMsg.Valid {
		j.ErrorMessage = errMsg.String
	}
	if startedAt.Valid {
		j.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		j.CompletedAt = &completedAt.Time
	}
	return j, nil
}
