package embedding

import "context"

// Embedder turns text into a dense vector from a fixed pretrained model
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BatchEmbedder is an Embedder that can embed many texts concurrently
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string, progress func(processed, total int)) ([][]float64, error)
}
