package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OllamaEmbedder generates embeddings using Ollama API
type OllamaEmbedder struct {
	Client        *api.Client
	Model         string
	MaxRetries    int
	RetryDelay    time.Duration
	Timeout       time.Duration
	MaxConcurrent int
	logger        *zap.Logger
}

// NewOllamaEmbedder creates a new Ollama embedder.
// An empty host falls back to OLLAMA_HOST and then the local default.
func NewOllamaEmbedder(host string, model string, logger *zap.Logger) (*OllamaEmbedder, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ollama host: %w", err)
		}
		hostURL = u
	}
	if model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OllamaEmbedder{
		Client:        api.NewClient(hostURL, http.DefaultClient),
		Model:         model,
		MaxRetries:    3,
		RetryDelay:    time.Second,
		Timeout:       time.Second * 30,
		MaxConcurrent: 3, // Limit concurrent requests based on hardware
		logger:        logger,
	}, nil
}

// Name identifies the embedding model
func (e *OllamaEmbedder) Name() string {
	return "ollama:" + e.Model
}

// Embed generates an embedding for a text
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64
	var err error

	for retries := 0; retries <= e.MaxRetries; retries++ {
		if retries > 0 {
			e.logger.Debug("retrying embedding", zap.Int("attempt", retries), zap.Error(err))
			select {
			case <-time.After(time.Duration(retries) * e.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		embedding, err = e.createEmbedding(ctx, text)
		if err == nil {
			return embedding, nil
		}
	}

	return nil, fmt.Errorf("failed to create embedding after %d retries: %w", e.MaxRetries, err)
}

// createEmbedding is a helper function to create a single embedding
func (e *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float64, error) {
	req := api.EmbeddingRequest{
		Model:   e.Model,
		Prompt:  text,
		Options: map[string]any{},
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	resp, err := e.Client.Embeddings(ctxWithTimeout, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("model %s returned an empty embedding", e.Model)
	}

	return resp.Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts in parallel, in input order
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string, progress func(processed, total int)) ([][]float64, error) {
	vectors := make([][]float64, len(texts))

	var mu sync.Mutex
	processed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.MaxConcurrent, 1))

	for i, text := range texts {
		g.Go(func() error {
			embedding, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", i, err)
			}
			vectors[i] = embedding

			mu.Lock()
			processed++
			if progress != nil {
				progress(processed, len(texts))
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
