package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"pdf-qa-rag/internal/models"
)

const (
	// DefaultMinChars is the shortest trimmed output a strategy may return and still win
	DefaultMinChars = 30
	// DefaultMaxFileBytes bounds the size of a single PDF
	DefaultMaxFileBytes = 64 << 20
	// DefaultExtractTimeout bounds the time spent across all strategies
	DefaultExtractTimeout = 2 * time.Minute
)

// Strategy is a single text extraction algorithm
type Strategy interface {
	Name() string
	// ExtractPages returns the text of each page in order
	ExtractPages(ctx context.Context, r io.ReaderAt, size int64) ([]string, error)
}

// RawText is the output of extraction, indexed by page
type RawText struct {
	Pages    []string
	Strategy string
	// Failed marks that no strategy produced enough text
	Failed bool
}

// Text joins the pages with newlines
func (t RawText) Text() string {
	return strings.Join(t.Pages, "\n")
}

// ExtractorOptions configures an Extractor
type ExtractorOptions struct {
	MinChars     int
	MaxFileBytes int64
	Timeout      time.Duration
}

// Extractor runs its strategies in order and keeps the first usable output
type Extractor struct {
	strategies []Strategy
	opts       ExtractorOptions
	logger     *zap.Logger
}

// NewExtractor creates an extractor over the given strategy chain
func NewExtractor(strategies []Strategy, opts ExtractorOptions, logger *zap.Logger) *Extractor {
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultExtractTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{strategies: strategies, opts: opts, logger: logger}
}

// Extract turns a PDF into raw text.
// A file that yields no usable text is not an error: the result comes back
// with Failed set so the caller can record a placeholder.
func (e *Extractor) Extract(ctx context.Context, name string, r io.ReaderAt, size int64) (RawText, error) {
	if size > e.opts.MaxFileBytes {
		return RawText{}, fmt.Errorf("%s is %d bytes, limit %d: %w", name, size, e.opts.MaxFileBytes, models.ErrFileTooLarge)
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	done := make(chan RawText, 1)
	go func() {
		done <- e.runChain(ctx, name, r, size)
	}()

	var raw RawText
	select {
	case raw = <-done:
	case <-ctx.Done():
	}

	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		return RawText{}, fmt.Errorf("%s after %s: %w", name, e.opts.Timeout, models.ErrExtractionTimeout)
	case err != nil:
		return RawText{}, err
	}
	return raw, nil
}

func (e *Extractor) runChain(ctx context.Context, name string, r io.ReaderAt, size int64) RawText {
	for _, s := range e.strategies {
		if ctx.Err() != nil {
			break
		}

		pages, err := runStrategy(ctx, s, r, size)
		if err != nil {
			e.logger.Warn("extraction strategy failed",
				zap.String("file", name), zap.String("strategy", s.Name()), zap.Error(err))
			continue
		}

		raw := RawText{Pages: pages, Strategy: s.Name()}
		n := utf8.RuneCountInString(strings.TrimSpace(raw.Text()))
		if n < e.opts.MinChars {
			e.logger.Info("extraction strategy returned too little text",
				zap.String("file", name), zap.String("strategy", s.Name()), zap.Int("chars", n))
			continue
		}

		e.logger.Debug("text extracted",
			zap.String("file", name), zap.String("strategy", s.Name()), zap.Int("pages", len(pages)))
		return raw
	}

	e.logger.Warn("no text extracted", zap.String("file", name))
	return RawText{Failed: true}
}

// runStrategy shields the chain from panics raised on malformed documents
func runStrategy(ctx context.Context, s Strategy, r io.ReaderAt, size int64) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("panic in %s: %v", s.Name(), rec)
		}
	}()
	return s.ExtractPages(ctx, r, size)
}
