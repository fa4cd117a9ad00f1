package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"fanstream/apps/backend/features/chunk"
	"fanstream/apps/backend/features/job"
	"fanstream/apps/backend/features/search"
	"fanstream/apps/backend/features/video"
	"fanstream/apps/backend/internal/adapter/gemini"
	"fanstream/apps/backend/internal/config"
	"fanstream/apps/backend/internal/indexer"
	"fanstream/apps/backend/internal/logger"
	"fanstream/apps/backend/internal/middleware"
	"fanstream/apps/backend/internal/retrieval"
	"fanstream/apps/backend/internal/scheduler"
	"fanstream/apps/backend/internal/transcript"
	"fanstream/apps/backend/internal/worker"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
)

func main() {
	// Initialize structured logger with correlation-id support
	handler := logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slog.New(handler))

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. Database Connection
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("failed to open db connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1, "max_attempts", cfg.BootstrapRetryAttempts)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		slog.Error("failed to ping db after retries", "error", err)
		os.Exit(1)
	}

	// 3. Run Migrations
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		slog.Error("failed to create migration driver", "error", err)
		os.Exit(1)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		slog.Error("failed to create migration instance", "error", err)
		os.Exit(1)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied successfully")

	// 4. NSQ Producer
	nsqCfg := nsq.NewConfig()
	nsqProducer, err := nsq.NewProducer(cfg.NSQDHost, nsqCfg)
	if err != nil {
		slog.Error("failed to create NSQ producer", "error", err)
		os.Exit(1)
	}

	// Pre-create topics: NSQ creates them lazily on publish, but consumers
	// querying lookupd 404 until then. nsqd HTTP runs on 4151.
	go func() {
		time.Sleep(2 * time.Second)
		host, _, _ := net.SplitHostPort(cfg.NSQDHost)
		if host == "" {
			host = cfg.NSQDHost
		}
		for _, topic := range []string{config.TopicVideoResult, config.TopicJobCompleted} {
			url := fmt.Sprintf("http://%s:4151/topic/create?topic=%s", host, topic)
			resp, err := http.Post(url, "application/json", nil)
			if err != nil {
				slog.Warn("failed to pre-create topic", "topic", topic, "error", err)
				continue
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				slog.Info("topic pre-created", "topic", topic)
			}
		}
	}()

	// 5. Adapters
	embedder, err := gemini.NewEmbedder(context.Background(), cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		slog.Error("failed to create gemini embedder", "error", err)
		os.Exit(1)
	}
	defer embedder.Close()

	extractor := transcript.NewExtractorClient(cfg.TranscriptExtractorBin)
	if err := extractor.CheckDependency(); err != nil {
		slog.Warn("transcript extractor not found, transcript fetches will fail", "error", err)
	}

	// 6. Repositories & Services
	jobRepo := job.NewPostgresRepo(db)
	videoRepo := video.NewPostgresRepo(db)
	chunkRepo := chunk.NewPostgresRepo(db)

	jobService := job.NewService(jobRepo)
	jobHandler := job.NewHandler(jobService)

	chunkIndexer := indexer.New(embedder, chunkRepo, cfg.EmbeddingDimensions)

	sched := scheduler.New(jobRepo, videoRepo, extractor, chunkIndexer, nsqProducer,
		time.Duration(cfg.VideoDelaySeconds)*time.Second)

	// 7. Worker Loop
	runner := worker.NewRunner(sched, time.Duration(cfg.PollIntervalSeconds)*time.Second)
	go runner.Start(context.Background())

	// 8. Retrieval
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	engine := retrieval.NewEngine(chunkRepo, cfg.EmbeddingDimensions)
	retrievalService := retrieval.NewService(embedder, engine, queryLogger)
	searchHandler := search.NewHandler(retrievalService)

	// Routes
	http.Handle("POST /jobs", middleware.CorrelationID(http.HandlerFunc(jobHandler.Create)))
	http.Handle("GET /jobs/{id}", middleware.CorrelationID(http.HandlerFunc(jobHandler.Get)))
	http.Handle("POST /search", middleware.CorrelationID(http.HandlerFunc(searchHandler.Search)))

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	slog.Info("server starting", "port", cfg.ServerPort)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.ServerPort), nil); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
