package retrieval

import (
	"context"
	"fmt"
	"strings"

	"pdf-qa-rag/internal/embedding"
	"pdf-qa-rag/internal/models"
	"pdf-qa-rag/internal/textutil"
)

// Vector representations. A deployment uses exactly one.
const (
	VectorSparse = "sparse"
	VectorDense  = "dense"
	VectorNone   = "none"
)

// VectorIndex scores every chunk of a snapshot against a question
type VectorIndex interface {
	Kind() string
	Scores(ctx context.Context, question string) ([]float64, error)
}

// Snapshot is an immutable corpus together with the index built from it.
// Queries read one snapshot so corpus and index always agree.
type Snapshot struct {
	Corpus   *models.Corpus
	Chunks   []models.Chunk
	Sections []string
	Index    VectorIndex

	// lowercased sentence units per chunk, for the lexical tier
	units [][]string
}

// Build derives chunks and the vector index from a corpus.
// The corpus is cloned so later changes by the caller cannot leak in.
func Build(ctx context.Context, corpus *models.Corpus, kind string, embedder embedding.Embedder) (*Snapshot, error) {
	corpus = corpus.Clone()
	chunks := corpus.Chunks()

	snap := &Snapshot{
		Corpus:   corpus,
		Chunks:   chunks,
		Sections: corpus.SectionTitles(),
		units:    make([][]string, len(chunks)),
	}
	for i, c := range chunks {
		for _, u := range textutil.SplitSentences(c.Text) {
			snap.units[i] = append(snap.units[i], strings.ToLower(u))
		}
	}

	switch kind {
	case VectorSparse, "":
		idx := &sparseIndex{tokens: make([][]string, len(chunks))}
		for i, c := range chunks {
			idx.tokens[i] = embedding.Tokens(c.Text)
		}
		snap.Index = idx
	case VectorDense:
		if embedder == nil {
			return nil, fmt.Errorf("dense index requires an embedder")
		}
		vectors, err := embedChunks(ctx, embedder, chunks)
		if err != nil {
			return nil, fmt.Errorf("failed to build dense index: %w", err)
		}
		snap.Index = &denseIndex{embedder: embedder, vectors: vectors}
	case VectorNone:
	default:
		return nil, fmt.Errorf("unknown vector representation %q", kind)
	}
	return snap, nil
}

// Empty reports whether no document has been loaded. A corpus holding only
// failed placeholders is not empty, it just has nothing to match.
func (s *Snapshot) Empty() bool {
	return s == nil || s.Corpus.Len() == 0
}

func embedChunks(ctx context.Context, embedder embedding.Embedder, chunks []models.Chunk) ([][]float64, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	if batch, ok := embedder.(embedding.BatchEmbedder); ok {
		return batch.EmbedBatch(ctx, texts, nil)
	}

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		v, err := embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

// sparseIndex keeps chunk tokens; TF-IDF is refit with each question
type sparseIndex struct {
	tokens [][]string
}

func (s *sparseIndex) Kind() string { return VectorSparse }

func (s *sparseIndex) Scores(_ context.Context, question string) ([]float64, error) {
	return embedding.JointScores(s.tokens, embedding.Tokens(question)), nil
}

type denseIndex struct {
	embedder embedding.Embedder
	vectors  [][]float64
}

func (d *denseIndex) Kind() string { return VectorDense }

func (d *denseIndex) Scores(ctx context.Context, question string) ([]float64, error) {
	q, err := d.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	scores := make([]float64, len(d.vectors))
	for i, v := range d.vectors {
		scores[i] = embedding.Cosine(q, v)
	}
	return scores, nil
}
