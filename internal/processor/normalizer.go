package processor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// maxPasses bounds the fixpoint loop over the cleaning pipeline
const maxPasses = 3

var (
	controlChars    = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F-\x9F]`)
	nonSpaceRun     = regexp.MustCompile(`\S+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
)

// denylist holds symbol glyphs and invisible characters that carry no text
var denylist = map[rune]struct{}{
	'☻': {}, '☼': {}, '♀': {}, '♂': {}, '♫': {}, '►': {}, '•': {}, '↑': {},
	'\u200b': {}, '\u200c': {}, '\u200d': {}, '\u2060': {}, '\ufeff': {}, '\u00ad': {},
}

// Normalizer repairs extraction artifacts in raw PDF text
type Normalizer struct {
	dict *Dictionary
}

// NewNormalizer creates a normalizer with the given substitution dictionary
func NewNormalizer(dict *Dictionary) *Normalizer {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Normalizer{dict: dict}
}

// Normalize returns flat text with every whitespace run collapsed to one space
func (n *Normalizer) Normalize(text string) string {
	return n.fixpoint(text, collapseFlat)
}

// NormalizeLines keeps line breaks for line based structuring. Horizontal
// whitespace collapses, lines are trimmed and blank lines dropped.
func (n *Normalizer) NormalizeLines(text string) string {
	return n.fixpoint(text, collapseLines)
}

func (n *Normalizer) fixpoint(text string, collapse func(string) string) string {
	for i := 0; i < maxPasses; i++ {
		next := collapse(n.clean(text))
		if next == text {
			break
		}
		text = next
	}
	return text
}

// clean runs every stage except whitespace collapse, which must come last
func (n *Normalizer) clean(text string) string {
	text = norm.NFC.String(text)
	text = repairMojibake(text)
	text = norm.NFKC.String(text)
	text = stripDenied(text)
	return n.dict.Apply(text)
}

func stripDenied(text string) string {
	text = strings.Map(func(r rune) rune {
		if _, ok := denylist[r]; ok {
			return -1
		}
		return r
	}, text)
	return controlChars.ReplaceAllString(text, "")
}

func repairMojibake(text string) string {
	return nonSpaceRun.ReplaceAllStringFunc(text, func(run string) string {
		for {
			fixed, ok := reencode(run)
			if !ok {
				return run
			}
			run = fixed
		}
	})
}

// reencode undoes one round of UTF-8 bytes having been decoded as a
// single-byte Latin charset
func reencode(run string) (string, bool) {
	if isASCII(run) {
		return "", false
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		b, err := cm.NewEncoder().Bytes([]byte(run))
		if err != nil {
			continue
		}
		// a valid result must contain at least one multi-byte sequence
		if !utf8.Valid(b) || utf8.RuneCount(b) == len(b) {
			continue
		}
		return string(b), true
	}
	return "", false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func collapseFlat(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

func collapseLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
