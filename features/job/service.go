package job

import (
	"context"
	"errors"
)

var (
	ErrCreatorRequired = errors.New("creator id is required")
	ErrNoVideos        = errors.New("at least one video id is required")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create enqueues a pending ingestion job; the worker picks it up on its
// next poll.
func (s *Service) Create(ctx context.Context, j *Job) error {
	if j.CreatorID == "" {
		return ErrCreatorRequired
	}
	if len(j.VideoIDs) == 0 {
		return ErrNoVideos
	}
	return s.repo.Create(ctx, j)
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.Get(ctx, id)
}
