package processor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"pdf-qa-rag/internal/models"
	"pdf-qa-rag/internal/textutil"
)

// DefaultChunkSize is the rune cap of a single chunk
const DefaultChunkSize = 500

// Structurer segments normalized text into sections and bounded chunks
type Structurer struct {
	ChunkSize int
}

// NewStructurer creates a structurer with the given chunk cap
func NewStructurer(chunkSize int) *Structurer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Structurer{ChunkSize: chunkSize}
}

type pendingSubsection struct {
	title string
	lines []string
}

type pendingSection struct {
	title       string
	subsections []*pendingSubsection
}

func (s *pendingSection) subsection(title string) *pendingSubsection {
	for _, sub := range s.subsections {
		if sub.title == title {
			return sub
		}
	}
	sub := &pendingSubsection{title: title}
	s.subsections = append(s.subsections, sub)
	return sub
}

// Structure walks the newline-preserving text line by line and detects
// headings with simple shape heuristics:
//   - a section title is longer than 4 characters and either all uppercase or under 10 words
//   - a subsection title is longer than 6 characters, starts uppercase and has more
//     than 3 words, and needs an open section
//   - anything else is content of the open subsection
//
// A repeated title reopens the existing entry so labels stay unique.
func (st *Structurer) Structure(text string) []models.Section {
	var sections []*pendingSection
	var current *pendingSection
	var currentSub *pendingSubsection

	openSection := func(title string) *pendingSection {
		for _, s := range sections {
			if s.title == title {
				return s
			}
		}
		s := &pendingSection{title: title}
		sections = append(sections, s)
		return s
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case isSectionTitle(line):
			current = openSection(line)
			currentSub = nil
		case current != nil && isSubsectionTitle(line):
			currentSub = current.subsection(line)
		default:
			if current == nil {
				current = openSection(models.GeneralSection)
			}
			if currentSub == nil {
				currentSub = current.subsection(models.DefaultSubsection)
			}
			currentSub.lines = append(currentSub.lines, line)
		}
	}

	out := make([]models.Section, 0, len(sections))
	for _, s := range sections {
		section := models.Section{Title: s.title, Subsections: []models.Subsection{}}
		for _, sub := range s.subsections {
			content := strings.Join(sub.lines, " ")
			if content == "" {
				// a heading with nothing under it still carries text worth finding
				content = sub.title
			}
			section.Subsections = append(section.Subsections, models.Subsection{
				Title:  sub.title,
				Chunks: SplitChunks(content, st.ChunkSize),
			})
		}
		if len(section.Subsections) == 0 {
			// a run of short lines all read as section titles; keep each as content
			section.Subsections = append(section.Subsections, models.Subsection{
				Title:  models.DefaultSubsection,
				Chunks: SplitChunks(s.title, st.ChunkSize),
			})
		}
		out = append(out, section)
	}
	return out
}

// Flat splits text into unlabeled sentence units
func (st *Structurer) Flat(text string) []string {
	return textutil.SplitSentences(text)
}

// SplitChunks cuts text into consecutive pieces of at most size runes.
// Boundaries ignore sentences and words.
func SplitChunks(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func isSectionTitle(line string) bool {
	if utf8.RuneCountInString(line) <= 4 {
		return false
	}
	return isUpper(line) || len(strings.Fields(line)) < 10
}

func isSubsectionTitle(line string) bool {
	if utf8.RuneCountInString(line) <= 6 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(line)
	return unicode.IsUpper(first) && len(strings.Fields(line)) > 3
}

// isUpper matches a string with at least one cased letter and no lowercase ones
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
