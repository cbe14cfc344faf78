// Package app assembles the compliance engine from configuration. It is shared by
// the HTTP server and the command-line tool.
package app

import (
	"context"
	"fmt"

	"github.com/vedu111/gorechitee/config"
	"github.com/vedu111/gorechitee/repository"
	"github.com/vedu111/gorechitee/service"
	"github.com/vedu111/gorechitee/storage"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// App holds the wired engine and the resources it owns
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Registry  *service.Registry
	Shipments *service.ShipmentService

	closers []func() error
}

// NewLogger builds a production zap logger at the given level
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

// New loads every reference corpus and wires the provider, semantic index,
// jurisdiction registry and shipment service
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := storage.NewStorageFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	corpora, err := repository.NewCorpusRepository(store).LoadAll(ctx, cfg.CorpusNames())
	if err != nil {
		return nil, err
	}
	for name, corpus := range corpora {
		logger.Info("reference corpus loaded",
			zap.String("corpus", name),
			zap.Int("itemNames", len(corpus.ItemNames)),
			zap.Int("hsCodes", len(corpus.HSCodes)),
			zap.Int("chunks", len(corpus.Chunks)))
	}

	client, err := a.initGemini(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	provider := service.NewGeminiProvider(client,
		service.GeminiWithModels(cfg.GenerationModel, cfg.EmbeddingModel),
		service.GeminiWithTimeout(cfg.ProviderTimeout),
		service.GeminiWithRateLimit(cfg.ProviderRate),
		service.GeminiWithLogger(logger.Named("provider")),
	)

	index, err := a.initIndex(ctx, cfg.CorpusNames())
	if err != nil {
		a.Close()
		return nil, err
	}

	resolver := service.NewCodeResolver(
		service.ResolverWithProvider(provider),
		service.ResolverWithIndex(index),
		service.ResolverWithMaxTokens(cfg.MaxOutputTokens),
		service.ResolverWithLogger(logger.Named("resolver")),
	)
	evaluator := service.NewPolicyEvaluator(
		service.EvaluatorWithGenerator(provider),
		service.EvaluatorWithMaxTokens(cfg.MaxOutputTokens),
		service.EvaluatorWithLogger(logger.Named("evaluator")),
	)

	a.Registry, err = service.BuildRegistry(cfg.Jurisdictions, service.RegistryDeps{
		Corpora:   corpora,
		Resolver:  resolver,
		Evaluator: evaluator,
		Generator: provider,
		MaxTokens: cfg.MaxOutputTokens,
		Logger:    logger.Named("jurisdiction"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Shipments = service.NewShipmentService(
		service.ShipmentWithRegistry(a.Registry),
		service.ShipmentWithConcurrency(cfg.ItemConcurrency),
		service.ShipmentWithLogger(logger.Named("shipment")),
	)
	return a, nil
}

// Close releases the provider client and database pool
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

// initGemini returns a nil client when no key is configured; the provider then
// fails fast and every explanation uses its template
func (a *App) initGemini(ctx context.Context) (*genai.Client, error) {
	if a.Config.GeminiAPIKey == "" {
		a.Logger.Warn("GEMINI_API_KEY not set, generated explanations disabled")
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.Config.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	a.Logger.Info("Gemini client initialized", zap.String("model", a.Config.GenerationModel))
	return client, nil
}

func (a *App) initIndex(ctx context.Context, corpora []string) (service.SemanticIndex, error) {
	if a.Config.SemanticBackend != config.BackendPgvector {
		return service.MemoryIndex{}, nil
	}

	pool, err := pgxpool.New(ctx, a.Config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	chunks := repository.NewChunkRepository(pool)
	for _, corpus := range corpora {
		n, err := chunks.CountByCorpus(ctx, corpus)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect reference_chunks (run migrations first): %w", err)
		}
		if n == 0 {
			a.Logger.Warn("no stored chunks for corpus", zap.String("corpus", corpus))
		}
	}

	a.Logger.Info("pgvector semantic index enabled")
	return service.NewPgvectorIndex(chunks), nil
}
