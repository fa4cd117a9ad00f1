package text

import (
	"strings"

	"fanstream/apps/backend/internal/transcript"
)

const (
	// MinChunkDuration is the floor (seconds) before a chunk may close naturally.
	MinChunkDuration = 15.0
	// MaxChunkDuration forces a close regardless of word count, so sparse
	// speech can never produce an unbounded chunk.
	MaxChunkDuration = 40.0
	// MinChunkWords filters out chunks that are just filler sounds.
	MinChunkWords = 20
)

// ChunkDraft is a chunk before embedding: text plus playback bounds.
type ChunkDraft struct {
	Content   string
	StartTime float64
	EndTime   float64
	WordCount int
}

// ChunkSegments greedily accumulates time-aligned segments into chunks.
//
// A chunk closes naturally once it spans MinChunkDuration AND holds
// MinChunkWords, or is force-closed at MaxChunkDuration whatever its word
// count. The trailing accumulator is emitted only if it meets the word floor;
// otherwise it is discarded, so a video may lose a few trailing words of
// transcript.
func ChunkSegments(segments []transcript.Segment) []ChunkDraft {
	var drafts []ChunkDraft

	var (
		started bool
		start   float64
		end     float64
		words   int
		parts   []string
	)

	reset := func() {
		started = false
		words = 0
		parts = parts[:0]
	}

	emit := func() {
		content := strings.Join(parts, " ")
		if content != "" {
			drafts = append(drafts, ChunkDraft{
				Content:   content,
				StartTime: start,
				EndTime:   end,
				WordCount: words,
			})
		}
		reset()
	}

	for _, seg := range segments {
		if !started {
			started = true
			start = seg.Start
		}
		end = seg.Start + seg.Duration

		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
			words += len(strings.Fields(t))
		}

		duration := end - start
		if duration >= MinChunkDuration && words >= MinChunkWords {
			emit()
			continue
		}
		if duration >= MaxChunkDuration {
			emit()
		}
	}

	// Trailing partial: keep only if it clears the word floor.
	if started && words >= MinChunkWords {
		emit()
	}

	return drafts
}
