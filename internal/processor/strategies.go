package processor

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
)

// Strategy names accepted in configuration
const (
	StrategyLayout    = "layout"
	StrategyPdftotext = "pdftotext"
	StrategyPlain     = "plain"
)

// DefaultStrategyOrder is the chain used when none is configured
var DefaultStrategyOrder = []string{StrategyLayout, StrategyPdftotext, StrategyPlain}

// StrategiesByName resolves configured names into a strategy chain
func StrategiesByName(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		names = DefaultStrategyOrder
	}

	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch name {
		case StrategyLayout:
			strategies = append(strategies, LayoutStrategy{})
		case StrategyPdftotext:
			strategies = append(strategies, PdftotextStrategy{})
		case StrategyPlain:
			strategies = append(strategies, PlainStrategy{})
		default:
			return nil, fmt.Errorf("unknown extraction strategy %q", name)
		}
	}
	return strategies, nil
}

// LayoutStrategy rebuilds lines from positioned glyph spans so that glyphs
// drawn from ligature or subset fonts stay inside their word
type LayoutStrategy struct{}

func (LayoutStrategy) Name() string { return StrategyLayout }

func (LayoutStrategy) ExtractPages(ctx context.Context, r io.ReaderAt, size int64) ([]string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, layoutLines(page.Content().Text))
	}
	return pages, nil
}

// gapFactor is the fraction of the font size a horizontal gap must exceed to become a space
const gapFactor = 0.15

// layoutLines groups spans into rows by baseline, top to bottom, and orders
// each row left to right
func layoutLines(spans []pdf.Text) string {
	type row struct {
		y     float64
		spans []pdf.Text
	}

	var rows []*row
	for _, s := range spans {
		if s.S == "" {
			continue
		}
		tolerance := math.Max(s.FontSize*0.5, 1)

		var target *row
		for _, r := range rows {
			if math.Abs(r.y-s.Y) <= tolerance {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{y: s.Y}
			rows = append(rows, target)
		}
		target.spans = append(target.spans, s)
	}

	// PDF coordinates grow upwards
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.spans, func(i, j int) bool { return r.spans[i].X < r.spans[j].X })

		var b strings.Builder
		end := 0.0
		for i, s := range r.spans {
			if i > 0 && s.X-end > gapFactor*s.FontSize && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(s.S, " ") {
				b.WriteByte(' ')
			}
			b.WriteString(s.S)
			end = s.X + s.W
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// PdftotextStrategy delegates to poppler's pdftotext through docconv
type PdftotextStrategy struct{}

func (PdftotextStrategy) Name() string { return StrategyPdftotext }

func (PdftotextStrategy) ExtractPages(ctx context.Context, r io.ReaderAt, size int64) ([]string, error) {
	body, _, err := docconv.ConvertPDF(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("failed to convert PDF: %w", err)
	}
	return strings.Split(body, "\f"), nil
}

// PlainStrategy is the content stream walk of the pdf reader without positioning
type PlainStrategy struct{}

func (PlainStrategy) Name() string { return StrategyPlain }

func (PlainStrategy) ExtractPages(ctx context.Context, r io.ReaderAt, size int64) ([]string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	fonts := make(map[string]*pdf.Font)
	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("failed to extract plain text from page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
