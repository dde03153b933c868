package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pdf-qa-rag/internal/answer"
	"pdf-qa-rag/internal/config"
	"pdf-qa-rag/internal/embedding"
	"pdf-qa-rag/internal/logger"
	"pdf-qa-rag/internal/processor"
	"pdf-qa-rag/internal/retrieval"
	"pdf-qa-rag/internal/service"
	"pdf-qa-rag/internal/store"
)

// app is the assembled knowledge base with the resources it owns
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     store.Store
	knowledge *service.Knowledge
}

func loadApp(ctx context.Context, opts *rootOptions) (*app, error) {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", opts.envFile, err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	dict, err := cfg.Dictionary()
	if err != nil {
		return nil, err
	}
	strategies, err := processor.StrategiesByName(cfg.Extractor.Strategies)
	if err != nil {
		return nil, err
	}
	extractor := processor.NewExtractor(strategies, cfg.ExtractorOptions(), log)
	proc, err := processor.NewPDFProcessor(extractor,
		processor.NewNormalizer(dict),
		processor.NewStructurer(cfg.Structure.ChunkSize),
		cfg.Structure.Mode, log)
	if err != nil {
		return nil, err
	}

	engine, err := retrieval.NewEngine(cfg.RetrievalOptions(), log)
	if err != nil {
		return nil, err
	}

	var embedder embedding.Embedder
	if cfg.Retrieval.Vector == retrieval.VectorDense {
		e, err := embedding.NewOllamaEmbedder(cfg.Ollama.Host, cfg.Ollama.Model, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		if cfg.Ollama.MaxRetries > 0 {
			e.MaxRetries = cfg.Ollama.MaxRetries
		}
		if cfg.Ollama.TimeoutSecs > 0 {
			e.Timeout = time.Duration(cfg.Ollama.TimeoutSecs) * time.Second
		}
		if cfg.Ollama.MaxConcurrent > 0 {
			e.MaxConcurrent = cfg.Ollama.MaxConcurrent
		}
		embedder = e
	}

	st, err := store.Open(ctx, cfg.Store.Backend, cfg.Store.Path, cfg.Store.PostgresURL, log)
	if err != nil {
		return nil, err
	}

	k, err := service.New(ctx, service.Deps{
		Store:     st,
		Processor: proc,
		Engine:    engine,
		Composer:  answer.NewComposer(cfg.Answer.MaxSentences, cfg.Answer.Messages),
		Embedder:  embedder,
		Vector:    cfg.Retrieval.Vector,
	}, log)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: log, store: st, knowledge: k}, nil
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}
