// Package retrieval answers a question against a corpus snapshot with a
// tiered strategy: intent shortcuts, lexical fuzzy matching and vector
// similarity behind a confidence gate. The first tier with a result wins.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pdf-qa-rag/internal/models"
)

// Default gates. Sparse and dense scores are on different scales and are not interchangeable.
const (
	DefaultSparseThreshold = 0.3
	DefaultDenseThreshold  = 0.5
	DefaultLexicalCutoff   = 0.3
	DefaultCandidates      = 3
)

// Lexical tier modes
const (
	// LexicalAuto runs the lexical tier only when there is no vector index
	LexicalAuto = "auto"
	LexicalOn   = "on"
	LexicalOff  = "off"
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Intents         []Intent
	Lexical         string
	LexicalCutoff   float64
	Candidates      int
	SparseThreshold float64
	DenseThreshold  float64
}

// Engine runs the retrieval tiers
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// NewEngine creates an engine, filling unset options with defaults
func NewEngine(opts Options, logger *zap.Logger) (*Engine, error) {
	if opts.Intents == nil {
		opts.Intents = DefaultIntents()
	}
	switch opts.Lexical {
	case "":
		opts.Lexical = LexicalAuto
	case LexicalAuto, LexicalOn, LexicalOff:
	default:
		return nil, fmt.Errorf("unknown lexical mode %q", opts.Lexical)
	}
	if opts.LexicalCutoff <= 0 {
		opts.LexicalCutoff = DefaultLexicalCutoff
	}
	if opts.Candidates <= 0 {
		opts.Candidates = DefaultCandidates
	}
	if opts.SparseThreshold <= 0 {
		opts.SparseThreshold = DefaultSparseThreshold
	}
	if opts.DenseThreshold <= 0 {
		opts.DenseThreshold = DefaultDenseThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, logger: logger}, nil
}

// Threshold returns the confidence gate for a vector representation
func (e *Engine) Threshold(kind string) float64 {
	if kind == VectorDense {
		return e.opts.DenseThreshold
	}
	return e.opts.SparseThreshold
}

// Retrieve finds the best match for question in snap.
// A nil match comes with the reason no tier produced one.
func (e *Engine) Retrieve(ctx context.Context, question string, snap *Snapshot) (*models.Match, models.Reason, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, models.ReasonEmptyQuery, nil
	}

	// Tier 1: intent shortcuts work even without a corpus
	if in, ok := matchIntent(e.opts.Intents, question); ok {
		var sections []string
		if snap != nil {
			sections = snap.Sections
		}
		e.logger.Debug("intent matched", zap.String("intent", in.Name))
		return &models.Match{
			Score:  1.0,
			Tier:   models.TierIntent,
			Answer: in.reply(sections),
		}, models.ReasonIntent, nil
	}

	if snap.Empty() {
		return nil, models.ReasonEmptyCorpus, nil
	}

	// Tier 2: lexical fuzzy match
	if e.lexicalEnabled(snap) {
		found := closeMatches(question, snap.units, e.opts.Candidates, e.opts.LexicalCutoff)
		if len(found) > 0 {
			best := found[0]
			e.logger.Debug("lexical match",
				zap.Int("candidates", len(found)), zap.Float64("score", best.score))
			return e.match(snap.Chunks[best.chunk], best.score, models.TierLexical, question), models.ReasonMatched, nil
		}
	}

	// Tier 3: vector similarity behind the confidence gate
	if snap.Index == nil {
		return nil, models.ReasonBelowThreshold, nil
	}

	scores, err := snap.Index.Scores(ctx, question)
	if err != nil {
		return nil, models.ReasonBelowThreshold, fmt.Errorf("failed to score chunks: %w", err)
	}

	best, bestScore := -1, 0.0
	for i, s := range scores {
		// strict comparison keeps the first chunk on ties
		if best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}

	threshold := e.Threshold(snap.Index.Kind())
	if best < 0 || bestScore < threshold {
		e.logger.Debug("best score below threshold",
			zap.Float64("score", bestScore),
			zap.Float64("threshold", threshold),
			zap.Error(models.ErrNoConfidentMatch))
		return nil, models.ReasonBelowThreshold, nil
	}

	return e.match(snap.Chunks[best], bestScore, models.TierVector, question), models.ReasonMatched, nil
}

func (e *Engine) lexicalEnabled(snap *Snapshot) bool {
	switch e.opts.Lexical {
	case LexicalOn:
		return true
	case LexicalOff:
		return false
	default:
		return snap.Index == nil
	}
}

func (e *Engine) match(chunk models.Chunk, score float64, tier models.Tier, question string) *models.Match {
	return &models.Match{
		Chunk:      chunk,
		Score:      score,
		DocumentID: chunk.DocumentID,
		Section:    chunk.Section,
		Tier:       tier,
		Answer:     Refine(chunk.Text, question),
	}
}
