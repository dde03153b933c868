// internal/processor/pdf.go
package processor

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"pdf-qa-rag/internal/models"
)

// Structuring modes
const (
	ModeSections = "sections"
	ModeFlat     = "flat"
)

const (
	// Page furniture is only detected on documents with at least this many pages
	minFurniturePages = 3
	// Lines longer than this are never treated as headers or footers
	maxFurnitureLen = 50
)

var digitRun = regexp.MustCompile(`\d+`)

// PDFProcessor turns an uploaded PDF into a corpus document
type PDFProcessor struct {
	extractor  *Extractor
	normalizer *Normalizer
	structurer *Structurer
	mode       string
	logger     *zap.Logger
}

// NewPDFProcessor creates a new PDF processor
func NewPDFProcessor(extractor *Extractor, normalizer *Normalizer, structurer *Structurer, mode string, logger *zap.Logger) (*PDFProcessor, error) {
	switch mode {
	case "":
		mode = ModeSections
	case ModeSections, ModeFlat:
	default:
		return nil, fmt.Errorf("unknown structuring mode %q", mode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFProcessor{
		extractor:  extractor,
		normalizer: normalizer,
		structurer: structurer,
		mode:       mode,
		logger:     logger,
	}, nil
}

// Mode returns the structuring mode
func (p *PDFProcessor) Mode() string {
	return p.mode
}

// Process extracts, cleans and structures a PDF.
// Extraction that yields no text returns a placeholder document, not an error.
func (p *PDFProcessor) Process(ctx context.Context, name string, r io.ReaderAt, size int64) (models.Document, error) {
	raw, err := p.extractor.Extract(ctx, name, r, size)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to extract text: %w", err)
	}
	if raw.Failed {
		return p.failed(name), nil
	}

	doc := p.ProcessText(name, raw.Pages)
	p.logger.Info("document processed",
		zap.String("file", name),
		zap.String("strategy", raw.Strategy),
		zap.String("mode", p.mode),
		zap.Int("sections", len(doc.Sections)),
		zap.Int("chunks", len(doc.Chunks())))
	return doc, nil
}

// ProcessText runs normalization and structuring over already extracted pages
func (p *PDFProcessor) ProcessText(name string, pages []string) models.Document {
	text := strings.Join(removeHeadersFooters(pages), "\n")

	if p.mode == ModeFlat {
		flat := p.normalizer.Normalize(text)
		if flat == "" {
			return p.failed(name)
		}
		return models.Document{ID: name, Text: flat}
	}

	sections := p.structurer.Structure(p.normalizer.NormalizeLines(text))
	if len(sections) == 0 {
		return p.failed(name)
	}
	return models.Document{ID: name, Sections: sections}
}

// failed records the diagnostic placeholder for a file with no usable text
func (p *PDFProcessor) failed(name string) models.Document {
	p.logger.Warn("no text extracted", zap.String("file", name), zap.Error(models.ErrExtractionFailed))
	return models.FailedDocument(name)
}

// removeHeadersFooters drops short lines that repeat at the top or bottom of
// most pages, such as running titles and page numbers
func removeHeadersFooters(pages []string) []string {
	if len(pages) < minFurniturePages {
		return pages
	}

	split := make([][]string, len(pages))
	counts := make(map[string]int)
	for i, page := range pages {
		lines := strings.Split(page, "\n")
		split[i] = lines

		seen := make(map[string]struct{})
		for _, idx := range edgeLines(lines) {
			key := furnitureKey(lines[idx])
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			counts[key]++
		}
	}

	cleaned := make([]string, len(pages))
	for i, lines := range split {
		drop := make(map[int]struct{})
		for _, idx := range edgeLines(lines) {
			key := furnitureKey(lines[idx])
			if key != "" && counts[key]*2 >= len(pages) {
				drop[idx] = struct{}{}
			}
		}

		kept := make([]string, 0, len(lines))
		for j, line := range lines {
			if _, ok := drop[j]; !ok {
				kept = append(kept, line)
			}
		}
		cleaned[i] = strings.Join(kept, "\n")
	}
	return cleaned
}

// edgeLines returns the indexes of the first two and last two non-blank lines
func edgeLines(lines []string) []int {
	var nonBlank []int
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonBlank = append(nonBlank, i)
		}
	}
	if len(nonBlank) <= 4 {
		return nonBlank
	}
	return []int{nonBlank[0], nonBlank[1], nonBlank[len(nonBlank)-2], nonBlank[len(nonBlank)-1]}
}

// furnitureKey folds page numbers so "Page 3" and "Page 4" compare equal
func furnitureKey(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || utf8.RuneCountInString(line) > maxFurnitureLen {
		return ""
	}
	return digitRun.ReplaceAllString(strings.ToLower(line), "#")
}
