package retrieval

import (
	"strings"

	"pdf-qa-rag/internal/textutil"
)

// Refine keeps the sentences of a chunk that mention a question keyword.
// It never returns less than the chunk: with no keyword hit the chunk is kept whole.
func Refine(chunk, question string) string {
	keywords := textutil.Keywords(question)
	if len(keywords) == 0 {
		return chunk
	}

	var kept []string
	for _, sentence := range textutil.SplitSentences(chunk) {
		lower := strings.ToLower(sentence)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				kept = append(kept, sentence)
				break
			}
		}
	}
	if len(kept) == 0 {
		return chunk
	}
	return strings.Join(kept, " ")
}
