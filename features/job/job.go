package job

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ValidTransition enforces the job state machine: pending -> processing ->
// {completed, failed}. Terminal states have no outgoing edges.
func ValidTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// VideoResult is one entry of the append-only per-video outcome list.
type VideoResult struct {
	VideoID string `json:"videoId"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

type Result struct {
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Details   []VideoResult `json:"details"`
}

type Job struct {
	ID              string                 `json:"id"`
	CreatorID       string                 `json:"creator_id"`
	VideoIDs        []string               `json:"video_ids"`
	Status          Status                 `json:"status"`
	Progress        int                    `json:"progress"`
	VideosProcessed int                    `json:"videos_processed"`
	VideosFailed    int                    `json:"videos_failed"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	Result          *Result                `json:"result,omitempty"`
	ErrorMessage    string                 `json:"error_message,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	StartedAt       *time.Time             `json:"started_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}
