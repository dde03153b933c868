package models

// Reason explains how a retrieval ended
type Reason string

const (
	ReasonEmptyQuery     Reason = "empty_query"
	ReasonEmptyCorpus    Reason = "empty_corpus"
	ReasonBelowThreshold Reason = "below_threshold"
	ReasonMatched        Reason = "matched"
	ReasonIntent         Reason = "intent"
)

// Tier names the retrieval tier that produced a match
type Tier string

const (
	TierIntent  Tier = "intent"
	TierLexical Tier = "lexical"
	TierVector  Tier = "vector"
)

// Match is the retrieval result before composition
type Match struct {
	Chunk      Chunk   `json:"chunk"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"document_id,omitempty"`
	Section    string  `json:"section,omitempty"`
	Tier       Tier    `json:"tier"`
	// Answer is the refined chunk text, or the canned reply of an intent
	Answer string `json:"answer"`
}

// Attributed reports whether the match carries structured section attribution
func (m *Match) Attributed() bool {
	return m != nil && m.Section != ""
}

// Response represents the composed answer returned to callers
type Response struct {
	Text       string  `json:"response"`
	DocumentID string  `json:"document,omitempty"`
	Section    string  `json:"section,omitempty"`
	Subsection string  `json:"subsection,omitempty"`
	Score      float64 `json:"score"`
	Tier       Tier    `json:"tier,omitempty"`
	Reason     Reason  `json:"reason"`
}
