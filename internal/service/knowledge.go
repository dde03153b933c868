// Package service holds the process-wide knowledge base: the persisted
// corpus, the snapshot queries read from, and the lock that serializes
// ingestion.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pdf-qa-rag/internal/answer"
	"pdf-qa-rag/internal/embedding"
	"pdf-qa-rag/internal/models"
	"pdf-qa-rag/internal/processor"
	"pdf-qa-rag/internal/retrieval"
	"pdf-qa-rag/internal/store"
)

// Deps are the components a Knowledge base is assembled from
type Deps struct {
	Store     store.Store
	Processor *processor.PDFProcessor
	Engine    *retrieval.Engine
	Composer  *answer.Composer
	// Embedder is required only for the dense vector representation
	Embedder embedding.Embedder
	Vector   string
}

// IngestResult describes one ingestion
type IngestResult struct {
	ID         uuid.UUID `json:"id"`
	DocumentID string    `json:"document"`
	Sections   int       `json:"sections"`
	Chunks     int       `json:"chunks"`
	Failed     bool      `json:"failed"`
	Message    string    `json:"message"`
}

// DocumentSummary is the listing entry for one stored document
type DocumentSummary struct {
	ID       string `json:"id"`
	Sections int    `json:"sections"`
	Chunks   int    `json:"chunks"`
	Failed   bool   `json:"failed"`
}

// Knowledge is the corpus together with the index built from it.
// Queries read the current snapshot without locking; ingestion rebuilds a
// new snapshot and swaps it in.
type Knowledge struct {
	deps   Deps
	logger *zap.Logger

	mu   sync.Mutex
	snap atomic.Pointer[retrieval.Snapshot]
}

// New creates the knowledge base and loads the persisted corpus
func New(ctx context.Context, deps Deps, logger *zap.Logger) (*Knowledge, error) {
	if deps.Store == nil || deps.Processor == nil || deps.Engine == nil || deps.Composer == nil {
		return nil, fmt.Errorf("knowledge base requires a store, processor, engine and composer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	k := &Knowledge{deps: deps, logger: logger}
	if err := k.Reload(ctx); err != nil {
		return nil, err
	}
	return k, nil
}

// Reload rebuilds the snapshot from the store
func (k *Knowledge) Reload(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	corpus, err := k.deps.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	snap, err := k.build(ctx, corpus)
	if err != nil {
		return err
	}
	k.swap(snap)
	return nil
}

// build derives a snapshot without publishing it
func (k *Knowledge) build(ctx context.Context, corpus *models.Corpus) (*retrieval.Snapshot, error) {
	snap, err := retrieval.Build(ctx, corpus, k.deps.Vector, k.deps.Embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	return snap, nil
}

// swap publishes snap to queries. Callers hold mu.
func (k *Knowledge) swap(snap *retrieval.Snapshot) {
	k.snap.Store(snap)
	k.logger.Info("index rebuilt",
		zap.Int("documents", snap.Corpus.Len()),
		zap.Int("chunks", len(snap.Chunks)),
		zap.String("vector", k.deps.Vector))
}

// Snapshot returns the snapshot queries currently read
func (k *Knowledge) Snapshot() *retrieval.Snapshot {
	return k.snap.Load()
}

// Ingest processes a PDF and merges it into the corpus under its file name.
// A document that was ingested before is replaced.
func (k *Knowledge) Ingest(ctx context.Context, filename string, r io.ReaderAt, size int64) (*IngestResult, error) {
	id := filepath.Base(filename)
	if id == "" || id == "." || id == string(filepath.Separator) {
		return nil, models.ErrNoFile
	}

	// extraction runs outside the lock so slow files don't block other uploads
	doc, err := k.deps.Processor.Process(ctx, id, r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", id, err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	existing, err := k.deps.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	corpus := store.Merge(existing, doc)

	// the index is built before anything is persisted so a failed build
	// leaves the store and the served snapshot on the same corpus
	snap, err := k.build(ctx, corpus)
	if err != nil {
		return nil, err
	}
	if err := k.deps.Store.Save(ctx, corpus); err != nil {
		return nil, fmt.Errorf("failed to save corpus: %w", err)
	}
	k.swap(snap)

	result := &IngestResult{
		ID:         uuid.New(),
		DocumentID: id,
		Sections:   len(doc.Sections),
		Chunks:     len(doc.Chunks()),
		Failed:     doc.Failed,
	}
	if doc.Failed {
		result.Message = models.ExtractionFailedMsg
	} else {
		result.Message = fmt.Sprintf("%s processed: %d sections, %d chunks", id, result.Sections, result.Chunks)
	}

	k.logger.Info("document ingested",
		zap.String("ingestion", result.ID.String()),
		zap.String("document", id),
		zap.Bool("failed", doc.Failed),
		zap.Int("chunks", result.Chunks))
	return result, nil
}

// IngestFile ingests the PDF at path
func (k *Knowledge) IngestFile(ctx context.Context, path string) (*IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return k.Ingest(ctx, path, f, info.Size())
}

// Ask answers a question from the current snapshot.
// Retrieval failures degrade to the no-information reply.
func (k *Knowledge) Ask(ctx context.Context, question string) (*models.Response, error) {
	if strings.TrimSpace(question) == "" {
		return nil, models.ErrEmptyQuery
	}

	match, reason, err := k.deps.Engine.Retrieve(ctx, question, k.snap.Load())
	if err != nil {
		k.logger.Warn("retrieval failed", zap.String("question", question), zap.Error(err))
		match, reason = nil, models.ReasonBelowThreshold
	}

	resp := k.deps.Composer.Compose(match, reason)
	k.logger.Debug("question answered",
		zap.String("question", question),
		zap.String("reason", string(resp.Reason)),
		zap.String("document", resp.DocumentID),
		zap.Float64("score", resp.Score))
	return &resp, nil
}

// Sections lists the distinct section titles of the corpus
func (k *Knowledge) Sections() []string {
	snap := k.snap.Load()
	if snap == nil {
		return nil
	}
	return snap.Sections
}

// Documents lists the stored documents in ingestion order
func (k *Knowledge) Documents() []DocumentSummary {
	snap := k.snap.Load()
	if snap == nil {
		return nil
	}

	out := make([]DocumentSummary, 0, snap.Corpus.Len())
	for _, d := range snap.Corpus.Documents {
		out = append(out, DocumentSummary{
			ID:       d.ID,
			Sections: len(d.Sections),
			Chunks:   len(d.Chunks()),
			Failed:   d.Failed,
		})
	}
	return out
}
