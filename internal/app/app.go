// ABOUTME: Wires configuration into the store, OpenAI client, pipeline, retriever, and ingestor
// ABOUTME: Shared by the CLI commands and the MCP server
package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/newsvec/internal/config"
	"github.com/harper/newsvec/internal/core"
	"github.com/harper/newsvec/internal/embeddings"
	"github.com/harper/newsvec/internal/llm"
	"github.com/harper/newsvec/internal/retriever"
	"github.com/harper/newsvec/internal/storage/sqlite"
	"github.com/harper/newsvec/internal/tokenizer"
)

// App holds the wired components for one process
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     *sqlite.Store
	Client    *llm.OpenAIClient
	Tokenizer tokenizer.Tokenizer
	Pipeline  *embeddings.Pipeline
	Reducer   *core.Reducer
	Retriever *retriever.Retriever
	Ingestor  *core.Ingestor
}

// DBPath returns the configured database path or the XDG default
func DBPath(cfg *config.Config) string {
	if cfg.DBPath != "" {
		return cfg.DBPath
	}
	return sqlite.DefaultDBPath()
}

// OpenStore opens the store only, for commands that never call the API
func OpenStore(cfg *config.Config, logger zerolog.Logger) (*sqlite.Store, error) {
	store, err := sqlite.NewStore(DBPath(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// ClientConfig maps configuration onto the OpenAI client settings
func ClientConfig(cfg *config.Config, logger zerolog.Logger) *llm.ClientConfig {
	return &llm.ClientConfig{
		APIKey:            cfg.OpenAIKey,
		BaseURL:           cfg.BaseURL,
		EmbeddingModel:    openai.EmbeddingModel(cfg.EmbeddingModel),
		ChatModel:         cfg.ChatModel,
		MaxAttempts:       cfg.MaxAttempts,
		MinWait:           cfg.MinWait,
		MaxWait:           cfg.MaxWait,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Logger:            logger.With().Str("component", "openai").Logger(),
	}
}

// PipelineConfig maps configuration onto the embedding pipeline settings
func PipelineConfig(cfg *config.Config, logger zerolog.Logger) embeddings.Config {
	return embeddings.Config{
		CtxLength:     cfg.CtxLength,
		WordsPerChunk: cfg.WordsPerChunk,
		Step:          cfg.Step,
		Average:       cfg.Average,
		Concurrency:   cfg.Concurrency,
		Logger:        logger.With().Str("component", "pipeline").Logger(),
	}
}

// New builds every component. It requires an API key.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	client, err := llm.NewOpenAIClientWithConfig(ClientConfig(cfg, logger))
	if err != nil {
		return nil, fmt.Errorf("initializing OpenAI client: %w", err)
	}

	tok, err := tokenizer.NewTiktoken(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("initializing tokenizer: %w", err)
	}

	pipeline, err := embeddings.NewPipeline(client, tok, PipelineConfig(cfg, logger))
	if err != nil {
		return nil, fmt.Errorf("initializing pipeline: %w", err)
	}

	store, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	reducer := core.NewReducer(client, tok, cfg.SummaryMaxTokens, 0, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Client:    client,
		Tokenizer: tok,
		Pipeline:  pipeline,
		Reducer:   reducer,
		Retriever: retriever.New(client, store, logger),
		Ingestor:  core.NewIngestor(pipeline, store, reducer, logger),
	}, nil
}

// NewIngestor builds an ingestor; with summarize false only caller-supplied
// summaries are embedded
func (a *App) NewIngestor(summarize bool) *core.Ingestor {
	if !summarize {
		return core.NewIngestor(a.Pipeline, a.Store, nil, a.Logger)
	}
	return a.Ingestor
}

// DefaultFilter applies the configured recency window
func (a *App) DefaultFilter() sqlite.Filter {
	return sqlite.SinceDays(a.Config.RecentDays, time.Now())
}

// Close releases the store
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
