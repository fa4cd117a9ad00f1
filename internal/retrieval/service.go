package retrieval

import (
	"context"
	"time"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service is the text-query read path: embed the query, then scan.
type Service struct {
	embedder Embedder
	engine   *Engine
	logger   *QueryLogger
}

func NewService(e Embedder, engine *Engine, l *QueryLogger) *Service {
	return &Service{embedder: e, engine: engine, logger: l}
}

func (s *Service) SearchText(ctx context.Context, query, creatorID string, k int) ([]Match, error) {
	start := time.Now()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.engine.Search(ctx, vec, creatorID, k)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:      query,
			CreatorID:  creatorID,
			NumResults: len(matches),
			Duration:   time.Since(start),
		})
	}
	return matches, nil
}

// SearchVector ranks against a caller-supplied query vector.
func (s *Service) SearchVector(ctx context.Context, queryVector []float32, creatorID string, k int) ([]Match, error) {
	return s.engine.Search(ctx, queryVector, creatorID, k)
}
