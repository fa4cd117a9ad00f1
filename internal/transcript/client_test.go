package transcript

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		raw := []byte(`{
			"success": true,
			"video_id": "v1",
			"language": "en",
			"is_generated": true,
			"segments_count": 2,
			"segments": [
				{"start": 0.0, "duration": 4.2, "text": " hello there "},
				{"start": 4.2, "duration": 3.1, "text": "general remarks"}
			]
		}`)

		tr, err := decodeEnvelope("v1", raw)
		require.NoError(t, err)
		assert.Equal(t, "v1", tr.VideoID)
		assert.Equal(t, "en", tr.Metadata.Language)
		assert.True(t, tr.Metadata.IsGenerated)
		require.Len(t, tr.Segments, 2)
		assert.Equal(t, "hello there", tr.Segments[0].Text)
		assert.Equal(t, 4.2, tr.Segments[1].Start)
	})

	t.Run("Failure Envelope", func(t *testing.T) {
		raw := []byte(`{"success": false, "error": "transcripts_disabled", "message": "Transcripts are disabled for this video"}`)
		_, err := decodeEnvelope("v1", raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Transcripts are disabled")
	})

	t.Run("Failure Without Message Falls Back To Code", func(t *testing.T) {
		raw := []byte(`{"success": false, "error": "no_transcript_found"}`)
		_, err := decodeEnvelope("v1", raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no_transcript_found")
	})

	t.Run("Empty Segments Is Not An Error", func(t *testing.T) {
		raw := []byte(`{"success": true, "video_id": "v1", "segments": []}`)
		tr, err := decodeEnvelope("v1", raw)
		require.NoError(t, err)
		assert.Empty(t, tr.Segments)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		_, err := decodeEnvelope("v1", []byte("not json"))
		assert.Error(t, err)
	})
}

func TestExtractorClient_CheckDependency(t *testing.T) {
	c := NewExtractorClient("definitely-not-a-real-binary-xyz")
	assert.Error(t, c.CheckDependency())
}

func TestExtractorClient_Fetch(t *testing.T) {
	t.Run("Rejects Blank Video ID", func(t *testing.T) {
		c := NewExtractorClient("transcript-extractor")
		_, err := c.Fetch(context.Background(), "  ")
		assert.Error(t, err)
	})

	t.Run("Runs Binary And Decodes Output", func(t *testing.T) {
		dir := t.TempDir()
		script := filepath.Join(dir, "fake-extractor")
		body := `#!/bin/sh
echo "fetching $2" >&2
echo '{"success": true, "video_id": "v1", "segments": [{"start": 0, "duration": 5, "text": "hi"}]}'
`
		require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

		c := NewExtractorClient(script)
		tr, err := c.Fetch(context.Background(), "v1")
		require.NoError(t, err)
		require.Len(t, tr.Segments, 1)
		assert.Equal(t, "hi", tr.Segments[0].Text)
	})

	t.Run("Surfaces Stderr On Exit Failure", func(t *testing.T) {
		dir := t.TempDir()
		script := filepath.Join(dir, "broken-extractor")
		body := `#!/bin/sh
echo "proxy auth failed" >&2
exit 1
`
		require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

		c := NewExtractorClient(script)
		_, err := c.Fetch(context.Background(), "v1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "proxy auth failed")
	})
}
