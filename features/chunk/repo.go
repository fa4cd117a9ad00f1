package chunk

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

type Repository interface {
	Insert(ctx context.Context, c *Chunk) error
	InsertBatch(ctx context.Context, chunks []Chunk) error
	ListEmbeddedByCreator(ctx context.Context, creatorID string) ([]Chunk, error)
	CountByVideo(ctx context.Context, videoID string) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const insertQuery = `INSERT INTO content_chunks (creator_id, video_id, content, start_time, end_time, chunk_index, embedding, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

func (r *PostgresRepo) Insert(ctx context.Context, c *Chunk) error {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, insertQuery,
		c.CreatorID, c.VideoID, c.Content, c.StartTime, c.EndTime, c.ChunkIndex,
		pq.Array(toFloat64(c.Embedding)), meta,
	).Scan(&c.ID)
}

// InsertBatch writes all chunks in one transaction; on error nothing is
// persisted and the caller may retry chunks individually.
func (r *PostgresRepo) InsertBatch(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			tx.Rollback()
			return err
		}
		if err := stmt.QueryRowContext(ctx,
			c.CreatorID, c.VideoID, c.Content, c.StartTime, c.EndTime, c.ChunkIndex,
			pq.Array(toFloat64(c.Embedding)), meta,
		).Scan(&c.ID); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepo) ListEmbeddedByCreator(ctx context.Context, creatorID string) ([]Chunk, error) {
	query := `SELECT id, creator_id, video_id, content, start_time, end_time, chunk_index, embedding, metadata
FROM content_chunks WHERE creator_id = $1 AND embedding IS NOT NULL
ORDER BY video_id, chunk_index`

	rows, err := r.db.QueryContext(ctx, query, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var embedding pq.Float64Array
		var meta []byte
		if err := rows.Scan(&c.ID, &c.CreatorID, &c.VideoID, &c.Content,
			&c.StartTime, &c.EndTime, &c.ChunkIndex, &embedding, &meta); err != nil {
			return nil, err
		}
		c.Embedding = toFloat32(embedding)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &c.Metadata); err != nil {
				return nil, err
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *PostgresRepo) CountByVideo(ctx context.Context, videoID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM content_chunks WHERE video_id = $1`
	err := r.db.QueryRowContext(ctx, query, videoID).Scan(&count)
	return count, err
}

func toFloat64(v []float32) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
