package chunk_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanstream/apps/backend/features/chunk"
	"fanstream/apps/backend/internal/testutils"
)

func TestChunkRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := chunk.NewPostgresRepo(s.DB)
	ctx := context.Background()

	c := &chunk.Chunk{
		CreatorID:  "creator-1",
		VideoID:    "v1",
		Content:    "welcome back to the channel",
		StartTime:  0,
		EndTime:    16.2,
		ChunkIndex: 0,
		Embedding:  []float32{0.25, -0.5, 0.75},
		Metadata:   map[string]interface{}{"word_count": 21, "language": "en"},
	}
	require.NoError(t, repo.Insert(ctx, c))
	require.NotEmpty(t, c.ID)

	batch := []chunk.Chunk{
		{CreatorID: "creator-1", VideoID: "v1", Content: "second", StartTime: 16.2, EndTime: 34.0, ChunkIndex: 1, Embedding: []float32{0.1, 0.2, 0.3}},
		{CreatorID: "creator-1", VideoID: "v2", Content: "other video", StartTime: 0, EndTime: 20.0, ChunkIndex: 0, Embedding: []float32{0.4, 0.5, 0.6}},
		{CreatorID: "creator-2", VideoID: "v3", Content: "someone else", StartTime: 0, EndTime: 18.0, ChunkIndex: 0, Embedding: []float32{0.7, 0.8, 0.9}},
	}
	require.NoError(t, repo.InsertBatch(ctx, batch))
	for _, b := range batch {
		assert.NotEmpty(t, b.ID)
	}

	// The scan set is creator-scoped and ordered by video then chunk index.
	chunks, err := repo.ListEmbeddedByCreator(ctx, "creator-1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "v1", chunks[0].VideoID)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
	assert.Equal(t, "v2", chunks[2].VideoID)

	// Embeddings survive the float32 -> double precision round trip.
	assert.InDeltaSlice(t, []float32{0.25, -0.5, 0.75}, chunks[0].Embedding, 1e-6)
	assert.Equal(t, float64(21), chunks[0].Metadata["word_count"])

	count, err := repo.CountByVideo(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Duplicate (video_id, chunk_index) violates the unique constraint and the
	// whole batch rolls back.
	dup := []chunk.Chunk{
		{CreatorID: "creator-1", VideoID: "v4", Content: "fresh", ChunkIndex: 0, Embedding: []float32{0, 0, 1}},
		{CreatorID: "creator-1", VideoID: "v1", Content: "clash", ChunkIndex: 0, Embedding: []float32{0, 1, 0}},
	}
	require.Error(t, repo.InsertBatch(ctx, dup))

	count, err = repo.CountByVideo(ctx, "v4")
	require.NoError(t, err)
	assert.Zero(t, count, "failed batch must not leave partial rows")
}
