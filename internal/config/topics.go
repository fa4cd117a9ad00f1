package config

const (
	// TopicVideoResult is the NSQ topic for per-video ingestion outcomes.
	TopicVideoResult = "ingest.video.result"

	// TopicJobCompleted is the NSQ topic for terminal job outcomes.
	TopicJobCompleted = "ingest.job.completed"
)
