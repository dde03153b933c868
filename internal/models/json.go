package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// WriteCorpus writes the corpus in its persisted layout: document id mapped
// to section, subsection and chunk list, or to a flat text string. Output is
// indented with four spaces and leaves non-ASCII and HTML characters unescaped.
func WriteCorpus(w io.Writer, c *Corpus) error {
	if c == nil {
		c = NewCorpus()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	return nil
}

// ReadCorpus parses the persisted layout written by WriteCorpus
func ReadCorpus(r io.Reader) (*Corpus, error) {
	c := NewCorpus()
	if err := json.NewDecoder(r).Decode(c); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}
	return c, nil
}

// MarshalJSON encodes the corpus as an object whose key order follows ingestion order
func (c *Corpus) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range c.Documents {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, d.ID); err != nil {
			return nil, err
		}

		switch {
		case d.Failed:
			// Failures are kept visible under a reserved section
			failed := []Section{{
				Title:       FailedSection,
				Subsections: []Subsection{{Title: FailedSubsection, Chunks: []string{ExtractionFailedMsg}}},
			}}
			if err := writeSections(&buf, failed); err != nil {
				return nil, err
			}
		case d.IsFlat():
			if err := writeString(&buf, d.Text); err != nil {
				return nil, err
			}
		default:
			if err := writeSections(&buf, d.Sections); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeSections(buf *bytes.Buffer, sections []Section) error {
	buf.WriteByte('{')
	for i, s := range sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(buf, s.Title); err != nil {
			return err
		}
		buf.WriteByte('{')
		for j, sub := range s.Subsections {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(buf, sub.Title); err != nil {
				return err
			}
			buf.WriteByte('[')
			for k, chunk := range sub.Chunks {
				if k > 0 {
					buf.WriteByte(',')
				}
				if err := writeString(buf, chunk); err != nil {
					return err
				}
			}
			buf.WriteByte(']')
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	if err := writeString(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// UnmarshalJSON decodes the persisted layout while keeping key order.
// A repeated document id replaces the earlier entry in place.
func (c *Corpus) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	out := NewCorpus()
	for dec.More() {
		id, err := readKey(dec)
		if err != nil {
			return err
		}

		tok, err := dec.Token()
		if err != nil {
			return err
		}

		var doc Document
		switch v := tok.(type) {
		case string:
			doc = Document{ID: id, Text: v}
		case json.Delim:
			if v != '{' {
				return fmt.Errorf("document %q: unexpected %v", id, v)
			}
			sections, err := readSections(dec)
			if err != nil {
				return fmt.Errorf("document %q: %w", id, err)
			}
			doc = Document{ID: id, Sections: sections}
			if text, ok := failedText(sections); ok {
				doc = Document{ID: id, Text: text, Failed: true}
			}
		default:
			return fmt.Errorf("document %q: unexpected value %v", id, tok)
		}

		replaced := false
		for i := range out.Documents {
			if out.Documents[i].ID == id {
				out.Documents[i] = doc
				replaced = true
				break
			}
		}
		if !replaced {
			out.Documents = append(out.Documents, doc)
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*c = *out
	return nil
}

// readSections consumes section objects up to and including the closing brace
func readSections(dec *json.Decoder) ([]Section, error) {
	var sections []Section
	for dec.More() {
		title, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}

		section := Section{Title: title, Subsections: []Subsection{}}
		for dec.More() {
			subTitle, err := readKey(dec)
			if err != nil {
				return nil, err
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, err
			}
			chunks, err := decodeChunks(raw)
			if err != nil {
				return nil, fmt.Errorf("subsection %q: %w", subTitle, err)
			}
			section.Subsections = append(section.Subsections, Subsection{Title: subTitle, Chunks: chunks})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return sections, nil
}

// decodeChunks accepts a chunk list or, for hand-edited files, a single string
func decodeChunks(raw json.RawMessage) ([]string, error) {
	chunks := []string{}
	if err := json.Unmarshal(raw, &chunks); err == nil {
		return chunks, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("expected list of strings: %w", err)
	}
	return []string{single}, nil
}

// failedText recognises a placeholder by its reserved labels and its
// diagnostic text, so a real document reusing the labels stays structured
func failedText(sections []Section) (string, bool) {
	if len(sections) != 1 || sections[0].Title != FailedSection {
		return "", false
	}
	subs := sections[0].Subsections
	if len(subs) != 1 || subs[0].Title != FailedSubsection {
		return "", false
	}
	if len(subs[0].Chunks) != 1 || subs[0].Chunks[0] != ExtractionFailedMsg {
		return "", false
	}
	return ExtractionFailedMsg, true
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
