// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/markdave123-py/Wikifaq/internal/config"
	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/core/archive"
	db "github.com/markdave123-py/Wikifaq/internal/core/database"
	"github.com/markdave123-py/Wikifaq/internal/core/llm"
	"github.com/markdave123-py/Wikifaq/internal/core/vector"
	"github.com/markdave123-py/Wikifaq/internal/core/wiki"
	"github.com/markdave123-py/Wikifaq/internal/metrics"
	"github.com/markdave123-py/Wikifaq/internal/pipeline"
	"github.com/markdave123-py/Wikifaq/internal/ratelimit"
	"github.com/markdave123-py/Wikifaq/internal/repair"
)

// App holds every constructed component. Clients are built once at startup
// and threaded through constructors; nothing is ambient global state.
type App struct {
	Config       *config.Config
	DBClient     core.DbClient
	Source       *wiki.Client
	Generator    *llm.GeminiGenerator
	Embedder     *llm.GeminiEmbedder
	Index        *vector.Index
	Orchestrator *pipeline.Orchestrator
	Sweeper      *repair.Sweeper
	Metrics      *metrics.Metrics
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("database initialized and ready")

	m := metrics.New()

	source := wiki.NewClient(cfg.WikiBaseURL, cfg.UserAgent)

	limiter := ratelimit.New(cfg.LLMRPM, time.Minute)
	generator, err := llm.NewGeminiGenerator(appCtx, cfg.AIAPIKey, cfg.GenModel, limiter)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the generator, %w", err)
	}
	generator.WithMetrics(m)

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	index := vector.NewIndex(dbClient.(*db.DatabaseClient).DB(), cfg.VectorBatchSize)

	indexer := pipeline.NewIndexer(dbClient, embedder, index, m)
	resolver := pipeline.NewResolver(dbClient, source, m)
	pagePipeline := pipeline.NewPagePipeline(dbClient, source, generator, indexer, resolver, m)

	var archiveClient core.ObjectClient
	if cfg.ArchiveEnabled() {
		s3Client, err := archive.NewS3Client(appCtx, cfg)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the page archive, %w", err)
		}
		pagePipeline.WithArchive(s3Client, s3Client.Bucket())
		archiveClient = s3Client
	}

	orchestrator := pipeline.NewOrchestrator(dbClient, pagePipeline, m, pipeline.OrchestratorConfig{
		Concurrency:  cfg.WorkerConcurrency,
		BatchSize:    cfg.BatchSize,
		WaveDelay:    cfg.WaveDelay,
		PollInterval: cfg.WorkerPollInterval,
	})

	sweeper := repair.NewSweeper(dbClient, index, m, repair.DefaultPageSize)

	server := NewServer(cfg, dbClient, source, embedder, index, orchestrator, archiveClient)

	return &App{
		Config:       cfg,
		DBClient:     dbClient,
		Source:       source,
		Generator:    generator,
		Embedder:     embedder,
		Index:        index,
		Orchestrator: orchestrator,
		Sweeper:      sweeper,
		Metrics:      m,
		Server:       server,
	}, nil
}

func (a *App) Close() {
	if a.Generator != nil {
		_ = a.Generator.Close()
	}
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
