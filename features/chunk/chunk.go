package chunk

// Chunk is the atomic retrieval unit: a bounded span of one video's
// transcript with its embedding vector attached once indexed.
type Chunk struct {
	ID         string                 `json:"id"`
	CreatorID  string                 `json:"creator_id"`
	VideoID    string                 `json:"video_id"`
	Content    string                 `json:"content"`
	StartTime  float64                `json:"start_time"`
	EndTime    float64                `json:"end_time"`
	ChunkIndex int                    `json:"chunk_index"`
	Embedding  []float32              `json:"embedding,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
