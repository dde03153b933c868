package processor

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Substitution modes
const (
	ModeWord      = "word"
	ModeSubstring = "substring"
	ModeRegex     = "regex"
)

//go:embed default_dictionary.yaml
var defaultDictionary []byte

// DictionaryEntry maps a known-corrupted token to its corrected form
type DictionaryEntry struct {
	Match         string `yaml:"match"`
	Replace       string `yaml:"replace"`
	Mode          string `yaml:"mode"`
	CaseSensitive bool   `yaml:"case_sensitive"`
}

type dictionaryFile struct {
	Entries []DictionaryEntry `yaml:"entries"`
}

type rule struct {
	entry   DictionaryEntry
	pattern *regexp.Regexp
}

// Dictionary applies ordered substitutions to normalized text
type Dictionary struct {
	rules []rule
}

// DefaultDictionary returns the dictionary compiled into the binary
func DefaultDictionary() *Dictionary {
	d, err := ParseDictionary(defaultDictionary)
	if err != nil {
		panic(fmt.Sprintf("embedded dictionary is invalid: %v", err))
	}
	return d
}

// LoadDictionary reads a dictionary file. An empty path yields the default dictionary.
func LoadDictionary(path string) (*Dictionary, error) {
	if path == "" {
		return DefaultDictionary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	return ParseDictionary(data)
}

// ParseDictionary compiles a YAML dictionary
func ParseDictionary(data []byte) (*Dictionary, error) {
	var f dictionaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary: %w", err)
	}
	return NewDictionary(f.Entries)
}

// NewDictionary compiles entries in order
func NewDictionary(entries []DictionaryEntry) (*Dictionary, error) {
	d := &Dictionary{}
	for i, e := range entries {
		if e.Match == "" {
			return nil, fmt.Errorf("entry %d: empty match", i)
		}
		if e.Mode == "" {
			e.Mode = ModeSubstring
		}

		var expr string
		switch e.Mode {
		case ModeWord, ModeSubstring:
			expr = regexp.QuoteMeta(e.Match)
		case ModeRegex:
			expr = e.Match
		default:
			return nil, fmt.Errorf("entry %d: unknown mode %q", i, e.Mode)
		}
		if !e.CaseSensitive {
			expr = "(?i)" + expr
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		d.rules = append(d.rules, rule{entry: e, pattern: re})
	}
	return d, nil
}

// Len returns the number of entries
func (d *Dictionary) Len() int {
	return len(d.rules)
}

// Apply runs every substitution over text in file order
func (d *Dictionary) Apply(text string) string {
	for _, r := range d.rules {
		switch r.entry.Mode {
		case ModeWord:
			text = replaceWords(text, r.pattern, r.entry.Replace)
		case ModeRegex:
			text = r.pattern.ReplaceAllString(text, r.entry.Replace)
		default:
			text = r.pattern.ReplaceAllLiteralString(text, r.entry.Replace)
		}
	}
	return text
}

// replaceWords replaces matches that are not embedded in a longer word.
// Go regexp word boundaries are ASCII only, so letter boundaries are checked by hand.
func replaceWords(text string, re *regexp.Regexp, replacement string) string {
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if !isBoundary(text, m[0], true) || !isBoundary(text, m[1], false) {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(replacement)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func isBoundary(text string, at int, before bool) bool {
	var r rune
	if before {
		if at == 0 {
			return true
		}
		r, _ = utf8.DecodeLastRuneInString(text[:at])
	} else {
		if at == len(text) {
			return true
		}
		r, _ = utf8.DecodeRuneInString(text[at:])
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
