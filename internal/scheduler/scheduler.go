package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fanstream/apps/backend/features/job"
	"fanstream/apps/backend/features/video"
	"fanstream/apps/backend/internal/config"
	"fanstream/apps/backend/internal/middleware"
	"fanstream/apps/backend/internal/text"
	"fanstream/apps/backend/internal/transcript"
)

// completionReserve is the slice of the progress bar held back for terminal
// bookkeeping: per-video updates top out at 90, completion sets 100.
const completionReserve = 90

type Indexer interface {
	IndexVideo(ctx context.Context, creatorID, videoID string, drafts []text.ChunkDraft, meta map[string]interface{}) (int, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// Scheduler claims pending ingestion jobs and drives each video through
// transcript fetch, chunking and indexing, strictly one job at a time.
type Scheduler struct {
	jobs       job.Repository
	videos     video.Repository
	source     transcript.Source
	indexer    Indexer
	pub        EventPublisher
	videoDelay time.Duration

	mu   sync.Mutex
	busy bool
}

func New(jobs job.Repository, videos video.Repository, source transcript.Source, indexer Indexer, pub EventPublisher, videoDelay time.Duration) *Scheduler {
	return &Scheduler{
		jobs:       jobs,
		videos:     videos,
		source:     source,
		indexer:    indexer,
		pub:        pub,
		videoDelay: videoDelay,
	}
}

// Poll claims the oldest pending job and runs it to completion before
// returning. A no-op while a job is already in flight on this worker.
func (s *Scheduler) Poll(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	j, err := s.jobs.FetchOldestPending(ctx)
	if err != nil {
		return fmt.Errorf("fetching pending job: %w", err)
	}
	if j == nil {
		return nil
	}

	ctx = middleware.WithCorrelationID(ctx, uuid.New().String())

	if err := s.jobs.MarkProcessing(ctx, j.ID); err != nil {
		return fmt.Errorf("claiming job %s: %w", j.ID, err)
	}
	j.Status = job.StatusProcessing
	j.Progress = 0

	slog.InfoContext(ctx, "job claimed", "job_id", j.ID, "creator_id", j.CreatorID, "videos", len(j.VideoIDs))
	s.run(ctx, j)
	return nil
}

// run processes every video of the job in order. Per-video errors are
// isolated; only persistence failures and panics are fatal to the job, and
// either path still moves the job to a terminal state.
func (s *Scheduler) run(ctx context.Context, j *job.Job) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("panic during job run: %v", r)
			slog.ErrorContext(ctx, "job run panicked", "job_id", j.ID, "panic", r)
			s.finishFailed(ctx, j, msg)
		}
	}()

	total := len(j.VideoIDs)
	j.Result = &job.Result{Total: total, Details: []job.VideoResult{}}
	if j.Metadata == nil {
		j.Metadata = map[string]interface{}{}
	}

	for i, videoID := range j.VideoIDs {
		if i > 0 && s.videoDelay > 0 {
			// External transcript and embedding APIs rate-limit
			// aggressively; space the videos out.
			time.Sleep(s.videoDelay)
		}

		j.Metadata["current_step"] = fmt.Sprintf("processing video %d/%d", i+1, total)
		j.Metadata["current_video_index"] = i

		detail, fatal := s.processVideo(ctx, j, videoID)
		if fatal != nil {
			slog.ErrorContext(ctx, "fatal error while processing video", "job_id", j.ID, "video_id", videoID, "error", fatal)
			s.finishFailed(ctx, j, fatal.Error())
			return
		}

		j.Result.Details = append(j.Result.Details, detail)
		switch {
		case detail.Skipped:
			j.Result.Skipped++
		case detail.Success:
			j.Result.Processed++
			j.VideosProcessed++
		default:
			j.Result.Failed++
			j.VideosFailed++
		}

		j.Progress = (i + 1) * completionReserve / total
		if err := s.jobs.UpdateProgress(ctx, j); err != nil {
			slog.ErrorContext(ctx, "failed to persist job progress", "job_id", j.ID, "error", err)
			s.finishFailed(ctx, j, fmt.Sprintf("persisting progress: %v", err))
			return
		}

		s.publish(ctx, config.TopicVideoResult, map[string]interface{}{
			"job_id":         j.ID,
			"creator_id":     j.CreatorID,
			"video_id":       videoID,
			"success":        detail.Success,
			"skipped":        detail.Skipped,
			"error":          detail.Error,
			"correlation_id": middleware.GetCorrelationID(ctx),
		})
	}

	// Partial success is success: only a job where every video failed is a
	// failed job.
	if total > 0 && j.Result.Failed == total {
		s.finishFailed(ctx, j, "all videos failed")
		return
	}
	s.finishCompleted(ctx, j)
}

// processVideo returns the outcome for one video. The returned error is
// non-nil only for scheduler-fatal conditions (persistence unreachable);
// collaborator failures land in the detail instead.
func (s *Scheduler) processVideo(ctx context.Context, j *job.Job, videoID string) (job.VideoResult, error) {
	detail := job.VideoResult{VideoID: videoID}

	exists, err := s.videos.ExistsByExternalID(ctx, videoID)
	if err != nil {
		return detail, fmt.Errorf("checking video %s: %w", videoID, err)
	}
	if exists {
		slog.InfoContext(ctx, "video already processed, skipping", "job_id", j.ID, "video_id", videoID)
		detail.Skipped = true
		return detail, nil
	}

	tr, err := s.source.Fetch(ctx, videoID)
	if err != nil {
		slog.WarnContext(ctx, "transcript fetch failed", "job_id", j.ID, "video_id", videoID, "error", err)
		detail.Error = fmt.Sprintf("transcript fetch failed: %v", err)
		return detail, nil
	}
	if len(tr.Segments) == 0 {
		slog.WarnContext(ctx, "transcript is empty", "job_id", j.ID, "video_id", videoID)
		detail.Error = "transcript contains no segments"
		return detail, nil
	}

	drafts := text.ChunkSegments(tr.Segments)
	if len(drafts) == 0 {
		detail.Error = "transcript produced no usable chunks"
		return detail, nil
	}

	meta := map[string]interface{}{
		"language":     tr.Metadata.Language,
		"is_generated": tr.Metadata.IsGenerated,
	}
	stored, err := s.indexer.IndexVideo(ctx, j.CreatorID, videoID, drafts, meta)
	if err != nil {
		slog.WarnContext(ctx, "indexing failed", "job_id", j.ID, "video_id", videoID, "error", err)
		detail.Error = fmt.Sprintf("indexing failed: %v", err)
		return detail, nil
	}

	// Processed flag only flips after the chunks are safely persisted.
	v := &video.Video{ExternalID: videoID, CreatorID: j.CreatorID, Processed: true}
	if err := s.videos.Save(ctx, v); err != nil {
		return detail, fmt.Errorf("saving video %s: %w", videoID, err)
	}

	slog.InfoContext(ctx, "video ingested", "job_id", j.ID, "video_id", videoID, "chunks", stored)
	detail.Success = true
	return detail, nil
}

func (s *Scheduler) finishCompleted(ctx context.Context, j *job.Job) {
	j.Status = job.StatusCompleted
	j.Progress = 100
	if err := s.jobs.Complete(ctx, j); err != nil {
		slog.ErrorContext(ctx, "failed to mark job completed", "job_id", j.ID, "error", err)
		return
	}
	slog.InfoContext(ctx, "job completed", "job_id", j.ID,
		"processed", j.Result.Processed, "failed", j.Result.Failed, "skipped", j.Result.Skipped)
	s.publishTerminal(ctx, j)
}

func (s *Scheduler) finishFailed(ctx context.Context, j *job.Job, msg string) {
	j.Status = job.StatusFailed
	j.Progress = 0
	j.ErrorMessage = msg
	if err := s.jobs.Fail(ctx, j, msg); err != nil {
		slog.ErrorContext(ctx, "failed to mark job failed", "job_id", j.ID, "error", err)
		return
	}
	slog.WarnContext(ctx, "job failed", "job_id", j.ID, "error", msg)
	s.publishTerminal(ctx, j)
}

func (s *Scheduler) publishTerminal(ctx context.Context, j *job.Job) {
	s.publish(ctx, config.TopicJobCompleted, map[string]interface{}{
		"job_id":         j.ID,
		"creator_id":     j.CreatorID,
		"status":         j.Status,
		"error":          j.ErrorMessage,
		"result":         j.Result,
		"correlation_id": middleware.GetCorrelationID(ctx),
	})
}

// publish is fire-and-forget: progress events are observability, not control
// flow.
func (s *Scheduler) publish(ctx context.Context, topic string, payload map[string]interface{}) {
	if s.pub == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal event", "topic", topic, "error", err)
		return
	}
	if err := s.pub.Publish(topic, body); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "topic", topic, "error", err)
	}
}
