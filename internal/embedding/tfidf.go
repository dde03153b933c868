package embedding

import (
	"math"
	"sort"

	"pdf-qa-rag/internal/textutil"
)

// SparseVector holds the non-zero weights of a vector, ordered by index
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product, walking both index lists in order so the
// result does not depend on map iteration
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm returns the L2 norm
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Tokens returns the retrieval tokens of text, stop-words removed
func Tokens(text string) []string {
	tokens := textutil.Tokenize(text)
	out := tokens[:0]
	for _, t := range tokens {
		if !textutil.IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}

// TFIDF is a term frequency, inverse document frequency vectorizer
type TFIDF struct {
	vocabulary map[string]int
	idf        []float64
}

// FitTFIDF builds the vocabulary and smoothed IDF of a tokenized collection
func FitTFIDF(docs [][]string) *TFIDF {
	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	// Stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	t := &TFIDF{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for i, term := range terms {
		t.vocabulary[term] = i
		t.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return t
}

// Dimension returns the vocabulary size
func (t *TFIDF) Dimension() int {
	return len(t.idf)
}

// Vector computes the L2 normalized TF-IDF vector of a tokenized text.
// Tokens outside the vocabulary are ignored.
func (t *TFIDF) Vector(tokens []string) SparseVector {
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokens {
		if idx, ok := t.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return SparseVector{}
	}

	indices := make([]int, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	v := SparseVector{Indices: indices, Values: make([]float64, len(indices))}
	for i, idx := range indices {
		v.Values[i] = float64(tf[idx]) / float64(total) * t.idf[idx]
	}

	// L2 normalize
	if norm := v.Norm(); norm > 0 {
		for i := range v.Values {
			v.Values[i] /= norm
		}
	}
	return v
}

// JointScores fits the vectorizer over the documents plus the query, so the
// query shares the vocabulary, and returns the cosine of each document to it
func JointScores(docs [][]string, query []string) []float64 {
	all := make([][]string, 0, len(docs)+1)
	all = append(all, docs...)
	all = append(all, query)
	t := FitTFIDF(all)

	q := t.Vector(query)
	scores := make([]float64, len(docs))
	for i, d := range docs {
		scores[i] = SparseCosine(t.Vector(d), q)
	}
	return scores
}
