package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fanstream/apps/backend/features/chunk"
	"fanstream/apps/backend/internal/text"
)

// ErrDimensionMismatch is returned when the embedding function yields a
// vector whose length differs from the corpus-wide dimension. Such chunks are
// rejected outright: storing them would corrupt every future similarity scan.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

type Embedder interface {
	Embed(ctx context.Context, content string) ([]float32, error)
}

type ChunkWriter interface {
	Insert(ctx context.Context, c *chunk.Chunk) error
	InsertBatch(ctx context.Context, chunks []chunk.Chunk) error
}

// Indexer attaches embeddings to chunk drafts and persists them.
type Indexer struct {
	embedder Embedder
	store    ChunkWriter
	dims     int
}

func New(embedder Embedder, store ChunkWriter, dims int) *Indexer {
	return &Indexer{embedder: embedder, store: store, dims: dims}
}

// IndexVideo embeds all drafts for one video, validates each vector against
// the corpus dimension, and persists the resulting chunks in a single batch.
// If the batch write fails, already-validated chunks are retried one by one
// so a partial-batch failure never discards finished embedding work. Every
// error is a processing failure for the owning video.
func (ix *Indexer) IndexVideo(ctx context.Context, creatorID, videoID string, drafts []text.ChunkDraft, meta map[string]interface{}) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}

	chunks := make([]chunk.Chunk, 0, len(drafts))
	for i, d := range drafts {
		vector, err := ix.embedder.Embed(ctx, d.Content)
		if err != nil {
			return 0, fmt.Errorf("embedding chunk %d of video %s: %w", i, videoID, err)
		}
		if len(vector) != ix.dims {
			return 0, fmt.Errorf("%w: chunk %d of video %s has %d components, want %d",
				ErrDimensionMismatch, i, videoID, len(vector), ix.dims)
		}

		chunkMeta := map[string]interface{}{"word_count": d.WordCount}
		for k, v := range meta {
			chunkMeta[k] = v
		}

		chunks = append(chunks, chunk.Chunk{
			CreatorID:  creatorID,
			VideoID:    videoID,
			Content:    d.Content,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			ChunkIndex: i,
			Embedding:  vector,
			Metadata:   chunkMeta,
		})
	}

	if err := ix.store.InsertBatch(ctx, chunks); err != nil {
		slog.WarnContext(ctx, "batch insert failed, retrying chunks individually",
			"video_id", videoID, "chunks", len(chunks), "error", err)
		return ix.insertIndividually(ctx, videoID, chunks)
	}

	return len(chunks), nil
}

func (ix *Indexer) insertIndividually(ctx context.Context, videoID string, chunks []chunk.Chunk) (int, error) {
	stored := 0
	var firstErr error
	for i := range chunks {
		if err := ix.store.Insert(ctx, &chunks[i]); err != nil {
			slog.ErrorContext(ctx, "chunk insert failed",
				"video_id", videoID, "chunk_index", chunks[i].ChunkIndex, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stored++
	}
	if firstErr != nil {
		return stored, fmt.Errorf("stored %d/%d chunks for video %s: %w", stored, len(chunks), videoID, firstErr)
	}
	return stored, nil
}
