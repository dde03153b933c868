// Package answer turns a retrieval match into the final response text.
package answer

import (
	"strings"

	"pdf-qa-rag/internal/models"
	"pdf-qa-rag/internal/textutil"
)

const (
	// DefaultMaxSentences caps the length of a composed answer
	DefaultMaxSentences = 3
	// DefaultWrapper prefixes answers that carry no section attribution
	DefaultWrapper = "According to the information found: "
)

// Messages holds the fixed replies used when no match is returned
type Messages struct {
	EmptyQuery     string `yaml:"empty_query"`
	EmptyCorpus    string `yaml:"empty_corpus"`
	BelowThreshold string `yaml:"below_threshold"`
}

// DefaultMessages returns the built-in fallback replies
func DefaultMessages() Messages {
	return Messages{
		EmptyQuery:     "Please type a question.",
		EmptyCorpus:    "No documents have been loaded yet. Upload a PDF and ask again.",
		BelowThreshold: "I could not find sufficient information to answer that question.",
	}
}

// Composer formats matches into responses
type Composer struct {
	MaxSentences int
	Wrapper      string
	Messages     Messages
}

// NewComposer creates a composer, filling unset messages with defaults
func NewComposer(maxSentences int, messages Messages) *Composer {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	defaults := DefaultMessages()
	if messages.EmptyQuery == "" {
		messages.EmptyQuery = defaults.EmptyQuery
	}
	if messages.EmptyCorpus == "" {
		messages.EmptyCorpus = defaults.EmptyCorpus
	}
	if messages.BelowThreshold == "" {
		messages.BelowThreshold = defaults.BelowThreshold
	}
	return &Composer{MaxSentences: maxSentences, Wrapper: DefaultWrapper, Messages: messages}
}

// Compose builds the response for a match, or the fallback for reason when match is nil
func (c *Composer) Compose(match *models.Match, reason models.Reason) models.Response {
	if match == nil {
		return models.Response{Text: c.fallback(reason), Reason: reason}
	}

	resp := models.Response{
		DocumentID: match.DocumentID,
		Section:    match.Section,
		Subsection: match.Chunk.Subsection,
		Score:      match.Score,
		Tier:       match.Tier,
		Reason:     reason,
	}

	// canned replies go out untouched
	if match.Tier == models.TierIntent {
		resp.Text = match.Answer
		return resp
	}

	text := match.Answer
	if strings.TrimSpace(text) == "" {
		text = match.Chunk.Text
	}
	text = c.truncate(text)

	if !match.Attributed() {
		text = c.Wrapper + text
	}
	resp.Text = text
	return resp
}

func (c *Composer) truncate(text string) string {
	sentences := textutil.SplitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	if len(sentences) > c.MaxSentences {
		sentences = sentences[:c.MaxSentences]
	}
	return strings.Join(sentences, " ")
}

func (c *Composer) fallback(reason models.Reason) string {
	switch reason {
	case models.ReasonEmptyQuery:
		return c.Messages.EmptyQuery
	case models.ReasonEmptyCorpus:
		return c.Messages.EmptyCorpus
	default:
		return c.Messages.BelowThreshold
	}
}
