package video

import "time"

// Video tracks which external videos have already been ingested. The external
// id is the natural idempotency key: a processed video is never re-chunked.
type Video struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	CreatorID  string    `json:"creator_id"`
	Processed  bool      `json:"processed"`
	CreatedAt  time.Time `json:"created_at"`
}
