package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	Repository
	created   *Job
	createErr error
	getJob    *Job
	getErr    error
}

func (s *stubRepo) Create(ctx context.Context, j *Job) error {
	if s.createErr != nil {
		return s.createErr
	}
	j.ID = "job-1"
	j.Status = StatusPending
	s.created = j
	return nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (*Job, error) {
	return s.getJob, s.getErr
}

func TestService_Create(t *testing.T) {
	t.Run("Persists Valid Job", func(t *testing.T) {
		repo := &stubRepo{}
		svc := NewService(repo)

		j := &Job{CreatorID: "creator-1", VideoIDs: []string{"v1"}}
		require.NoError(t, svc.Create(context.Background(), j))
		assert.Equal(t, "job-1", j.ID)
		assert.Equal(t, StatusPending, j.Status)
		assert.Same(t, j, repo.created)
	})

	t.Run("Rejects Missing Creator", func(t *testing.T) {
		svc := NewService(&stubRepo{})

		err := svc.Create(context.Background(), &Job{VideoIDs: []string{"v1"}})
		assert.ErrorIs(t, err, ErrCreatorRequired)
	})

	t.Run("Rejects Empty Video List", func(t *testing.T) {
		svc := NewService(&stubRepo{})

		err := svc.Create(context.Background(), &Job{CreatorID: "creator-1"})
		assert.ErrorIs(t, err, ErrNoVideos)
	})
}

func TestService_Get(t *testing.T) {
	repo := &stubRepo{getJob: &Job{ID: "job-1", Status: StatusProcessing, Progress: 60}}
	svc := NewService(repo)

	j, err := svc.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, j.Status)
	assert.Equal(t, 60, j.Progress)
}
