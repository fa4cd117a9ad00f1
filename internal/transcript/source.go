package transcript

import "context"

// Segment is one time-aligned span of speech as returned by the extractor.
// Start and Duration are seconds. Text may be empty for filler spans.
type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

type Metadata struct {
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Language    string  `json:"language"`
	IsGenerated bool    `json:"is_generated"`
}

type Transcript struct {
	VideoID  string    `json:"video_id"`
	Metadata Metadata  `json:"metadata"`
	Segments []Segment `json:"segments"`
}

// Source fetches the transcript for one video. Implementations may return an
// empty segment list; callers decide what that means for the owning job.
type Source interface {
	Fetch(ctx context.Context, videoID string) (*Transcript, error)
}
