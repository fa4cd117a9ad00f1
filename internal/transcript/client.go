package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// ExtractorClient wraps the external transcript-extractor CLI. The binary is
// invoked as `<bin> single <video_id>` and prints a JSON envelope on stdout;
// progress chatter goes to stderr and is ignored.
type ExtractorClient struct {
	bin string
}

func NewExtractorClient(bin string) *ExtractorClient {
	return &ExtractorClient{bin: bin}
}

// CheckDependency reports whether the extractor binary is on PATH.
func (c *ExtractorClient) CheckDependency() error {
	if _, err := exec.LookPath(c.bin); err != nil {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", c.bin)
	}
	return nil
}

type envelope struct {
	Success       bool          `json:"success"`
	VideoID       string        `json:"video_id"`
	Title         string        `json:"title"`
	Duration      float64       `json:"duration"`
	Language      string        `json:"language"`
	IsGenerated   bool          `json:"is_generated"`
	SegmentsCount int           `json:"segments_count"`
	Segments      []envSegment  `json:"segments"`
	Error         string        `json:"error"`
	Message       string        `json:"message"`
}

type envSegment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

func (c *ExtractorClient) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, fmt.Errorf("video id is required")
	}

	cmd := exec.CommandContext(ctx, c.bin, "single", videoID)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("transcript extractor failed for %s: %w (stderr: %s)",
			videoID, err, truncate(stderr.String(), 256))
	}

	return decodeEnvelope(videoID, stdout.Bytes())
}

func decodeEnvelope(videoID string, raw []byte) (*Transcript, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid extractor output for %s: %w", videoID, err)
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return nil, fmt.Errorf("transcript extraction failed for %s: %s", videoID, msg)
	}

	tr := &Transcript{
		VideoID: videoID,
		Metadata: Metadata{
			Title:       env.Title,
			Duration:    env.Duration,
			Language:    env.Language,
			IsGenerated: env.IsGenerated,
		},
		Segments: make([]Segment, 0, len(env.Segments)),
	}
	for _, s := range env.Segments {
		tr.Segments = append(tr.Segments, Segment{
			Start:    s.Start,
			Duration: s.Duration,
			Text:     strings.TrimSpace(s.Text),
		})
	}
	return tr, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
