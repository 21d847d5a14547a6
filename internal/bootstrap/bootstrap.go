package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	natsio "github.com/nats-io/nats.go"

	"github.com/tahaislam/hybrid-rag-parser/internal/cache"
	"github.com/tahaislam/hybrid-rag-parser/internal/config"
	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
	"github.com/tahaislam/hybrid-rag-parser/internal/core/ports"
	"github.com/tahaislam/hybrid-rag-parser/internal/core/usecase"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/cachekv"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/chunking"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/extractor"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/extractor/pdf"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/extractor/plaintext"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/extractor/spreadsheet"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/llm/ollama"
	natsqueue "github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/queue/nats"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/repository/postgres"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/resilience"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/storage/localfs"
	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/vector/qdrant"
	"github.com/tahaislam/hybrid-rag-parser/internal/tableness"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  *usecase.IngestDocumentUseCase
	ProcessUC ports.DocumentProcessor
	AskUC     *usecase.AskUseCase

	CacheStats func() domain.CacheStats
	Checkers   []ports.HealthChecker

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	executor := resilience.NewExecutor(resilience.DefaultPolicy(), logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	tableRepo := postgres.NewTableRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	conn, err := natsqueue.Connect(cfg.NATSURL, natsqueue.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	queue := natsqueue.NewQueue(conn, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	// The remote tier is optional at runtime and at startup: a bucket that
	// cannot be created degrades the cache to local-only instead of
	// failing the whole process.
	var remote cache.RemoteStore
	if cfg.CacheRemoteEnabled {
		store, err := cachekv.New(ctx, conn, cfg.CacheBucket, cacheTTL)
		if err != nil {
			logger.Warn("cache_remote_degraded", "op", "bootstrap", "error", err)
		} else {
			remote = store
		}
	}
	queryCache := cache.NewQueryCache(remote, cache.Options{
		Capacity: cfg.CacheLocalCapacity,
		TTL:      cacheTTL,
		Logger:   logger,
	})

	ollamaClient := ollama.New(ollama.Config{
		BaseURL:            cfg.OllamaURL,
		GenModel:           cfg.OllamaGenModel,
		EmbedModel:         cfg.OllamaEmbedModel,
		Temperature:        cfg.OllamaTemperature,
		ResilienceExecutor: executor,
	})
	embedder := cache.NewCachedEmbedder(ollama.NewEmbedder(ollamaClient), cfg.EmbedCacheCapacity)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection).WithResilience(executor)
	classifier := tableness.New(tableness.Config{})
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	elements := extractor.NewDispatcher(
		plaintext.NewExtractor(storage),
		pdf.NewExtractor(storage),
		spreadsheet.NewExtractor(storage),
	)

	assembler := usecase.NewAssembler(cfg.ContextMaxBytes, logger)
	askUC := usecase.NewAskUseCase(
		embedder,
		vectorDB,
		tableRepo,
		generator,
		queryCache,
		assembler,
		usecase.AskOptions{
			TopK:       cfg.AskTopK,
			TableLimit: cfg.AskTableLimit,
			CacheTTL:   cacheTTL,
		},
		logger,
	)
	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(
		repo,
		elements,
		classifier,
		chunker,
		embedder,
		vectorDB,
		tableRepo,
		logger,
	)

	checkers := []ports.HealthChecker{
		checker{name: "postgres", fn: db.PingContext},
		checker{name: "qdrant", fn: vectorDB.Health},
		checker{name: "nats", fn: func(context.Context) error {
			if status := conn.Status(); status != natsio.CONNECTED {
				return fmt.Errorf("nats connection %s", status)
			}
			return nil
		}},
	}
	if remote != nil {
		checkers = append(checkers, checker{name: "cache_remote", fn: func(checkCtx context.Context) error {
			_, _, err := remote.Get(checkCtx, "health-probe")
			return err
		}})
	}

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Repo:      repo,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		AskUC:     askUC,

		CacheStats: queryCache.Stats,
		Checkers:   checkers,

		closeFn: func() {
			conn.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

type checker struct {
	name string
	fn   func(context.Context) error
}

func (c checker) Name() string                    { return c.name }
func (c checker) Check(ctx context.Context) error { return c.fn(ctx) }
