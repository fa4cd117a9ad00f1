package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"fanstream/apps/backend/features/chunk"
)

var (
	ErrInvalidK          = errors.New("k must be at least 1")
	ErrDimensionMismatch = errors.New("query vector dimension mismatch")
)

// ChunkLister loads the scan set: every chunk of one creator that has an
// embedding attached. An ANN-backed store can replace the brute-force engine
// behind this same seam once corpora outgrow the linear scan.
type ChunkLister interface {
	ListEmbeddedByCreator(ctx context.Context, creatorID string) ([]chunk.Chunk, error)
}

type Match struct {
	Chunk      chunk.Chunk `json:"chunk"`
	Similarity float32     `json:"similarity"`
}

// Engine ranks stored chunks against a query vector by cosine similarity.
// The scan is deliberately brute force, O(N*D) per query; fine while each
// creator's corpus stays small.
type Engine struct {
	store ChunkLister
	dims  int
}

func NewEngine(store ChunkLister, dims int) *Engine {
	return &Engine{store: store, dims: dims}
}

// Search returns the top k chunks of one creator ranked by descending cosine
// similarity. Ties order by ascending chunk index, then video id, so results
// are deterministic. No minimum-score threshold is applied here; callers cut
// off where they see fit.
func (e *Engine) Search(ctx context.Context, queryVector []float32, creatorID string, k int) ([]Match, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(queryVector) != e.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(queryVector), e.dims)
	}

	chunks, err := e.store.ListEmbeddedByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) != e.dims {
			continue
		}
		matches = append(matches, Match{
			Chunk:      c,
			Similarity: Cosine(queryVector, c.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].Chunk.ChunkIndex != matches[j].Chunk.ChunkIndex {
			return matches[i].Chunk.ChunkIndex < matches[j].Chunk.ChunkIndex
		}
		return matches[i].Chunk.VideoID < matches[j].Chunk.VideoID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Cosine computes dot(a,b) / (|a|*|b|), or 0 when either norm is zero so a
// degenerate all-zero vector scores 0 instead of propagating NaN.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
