package models

import (
	"slices"

	"pdf-qa-rag/internal/textutil"
)

// Default labels used when text appears before any detected heading
const (
	GeneralSection    = "General Information"
	DefaultSubsection = "Description"
)

// Reserved labels under which extraction failures are persisted
const (
	FailedSection       = "Extraction Failed"
	FailedSubsection    = "Error"
	ExtractionFailedMsg = "No text could be extracted from this document."
)

// Corpus represents every ingested document, in ingestion order
type Corpus struct {
	Documents []Document `json:"documents"`
}

// Document represents one ingested source file
type Document struct {
	ID       string    `json:"id"`
	Sections []Section `json:"sections,omitempty"`
	Text     string    `json:"text,omitempty"`
	Failed   bool      `json:"failed,omitempty"`
}

// Section represents a detected heading and the subsections beneath it
type Section struct {
	Title       string       `json:"title"`
	Subsections []Subsection `json:"subsections"`
}

// Subsection holds the bounded chunk texts under a subsection heading
type Subsection struct {
	Title  string   `json:"title"`
	Chunks []string `json:"chunks"`
}

// Chunk is the unit of retrieval, carrying its back reference into the corpus
type Chunk struct {
	DocumentID string `json:"document_id"`
	Section    string `json:"section,omitempty"`
	Subsection string `json:"subsection,omitempty"`
	Position   int    `json:"position"`
	Text       string `json:"text"`
}

// NewCorpus returns an empty corpus
func NewCorpus() *Corpus {
	return &Corpus{Documents: []Document{}}
}

// FailedDocument builds the diagnostic placeholder recorded when extraction yields no text
func FailedDocument(id string) Document {
	return Document{ID: id, Text: ExtractionFailedMsg, Failed: true}
}

// IsFlat reports whether the document was stored without section structure
func (d Document) IsFlat() bool {
	return len(d.Sections) == 0
}

// Len returns the number of documents in the corpus
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Documents)
}

// Get looks up a document by identifier
func (c *Corpus) Get(id string) (Document, bool) {
	if c == nil {
		return Document{}, false
	}
	i := slices.IndexFunc(c.Documents, func(d Document) bool { return d.ID == id })
	if i < 0 {
		return Document{}, false
	}
	return c.Documents[i], true
}

// Clone returns a deep copy of the corpus
func (c *Corpus) Clone() *Corpus {
	out := NewCorpus()
	if c == nil {
		return out
	}
	for _, d := range c.Documents {
		out.Documents = append(out.Documents, d.Clone())
	}
	return out
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	cp := Document{ID: d.ID, Text: d.Text, Failed: d.Failed}
	for _, s := range d.Sections {
		sec := Section{Title: s.Title, Subsections: make([]Subsection, 0, len(s.Subsections))}
		for _, sub := range s.Subsections {
			sec.Subsections = append(sec.Subsections, Subsection{
				Title:  sub.Title,
				Chunks: slices.Clone(sub.Chunks),
			})
		}
		cp.Sections = append(cp.Sections, sec)
	}
	return cp
}

// Chunks flattens the corpus into retrievable chunks.
// Order is documents, then sections, then subsections, then chunk order. Failed
// placeholders are skipped.
func (c *Corpus) Chunks() []Chunk {
	if c == nil {
		return nil
	}

	var chunks []Chunk
	for _, d := range c.Documents {
		chunks = append(chunks, d.Chunks()...)
	}
	return chunks
}

// Chunks returns the retrievable chunks of a single document
func (d Document) Chunks() []Chunk {
	if d.Failed {
		return nil
	}

	var chunks []Chunk
	pos := 0

	if d.IsFlat() {
		for _, unit := range textutil.SplitSentences(d.Text) {
			chunks = append(chunks, Chunk{DocumentID: d.ID, Position: pos, Text: unit})
			pos++
		}
		return chunks
	}

	for _, s := range d.Sections {
		for _, sub := range s.Subsections {
			for _, text := range sub.Chunks {
				if text == "" {
					continue
				}
				chunks = append(chunks, Chunk{
					DocumentID: d.ID,
					Section:    s.Title,
					Subsection: sub.Title,
					Position:   pos,
					Text:       text,
				})
				pos++
			}
		}
	}
	return chunks
}

// SectionTitles lists every section label in corpus order, without duplicates
func (c *Corpus) SectionTitles() []string {
	if c == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var titles []string
	for _, d := range c.Documents {
		if d.Failed {
			continue
		}
		for _, s := range d.Sections {
			if _, ok := seen[s.Title]; ok {
				continue
			}
			seen[s.Title] = struct{}{}
			titles = append(titles, s.Title)
		}
	}
	return titles
}
