// Package textutil holds the small text helpers shared by the structurer,
// the retrieval tiers and the answer composer.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// SplitSentences splits text into sentence units on terminal punctuation
// followed by whitespace. Punctuation stays with its sentence; units are
// trimmed and empty units dropped.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var units []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		// keep runs like "?!" together
		j := i
		for j+1 < len(runes) && isTerminal(runes[j+1]) {
			j++
		}
		if j+1 < len(runes) && unicode.IsSpace(runes[j+1]) {
			if unit := strings.TrimSpace(string(runes[start : j+1])); unit != "" {
				units = append(units, unit)
			}
			start = j + 1
		}
		i = j
	}
	if unit := strings.TrimSpace(string(runes[start:])); unit != "" {
		units = append(units, unit)
	}
	return units
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Tokenize lowercases text and returns its word tokens
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Keywords returns the distinct non stop-word tokens of text in first-seen order
func Keywords(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range Tokenize(text) {
		if IsStopword(tok) {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
