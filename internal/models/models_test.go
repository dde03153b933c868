package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Corpus_Chunks(t *testing.T) {
	chunks := sampleCorpus().Chunks()

	// four structured chunks, two flat sentences, nothing from the failed placeholder
	require.Len(t, chunks, 6)

	assert.Equal(t, Chunk{
		DocumentID: "manual.pdf",
		Section:    "Registro",
		Subsection: "Description",
		Position:   0,
		Text:       "Para registrar una mascota, complete el formulario en la sección Registro.",
	}, chunks[0])
	assert.Equal(t, "Requisitos del dueño", chunks[2].Subsection)
	assert.Equal(t, 3, chunks[3].Position)

	assert.Equal(t, "notas.pdf", chunks[4].DocumentID)
	assert.Empty(t, chunks[4].Section)
	assert.Equal(t, "Primera oración.", chunks[4].Text)
	assert.Equal(t, "Segunda oración.", chunks[5].Text)
}

func Test_Corpus_ChunksResolve(t *testing.T) {
	corpus := sampleCorpus()
	for _, c := range corpus.Chunks() {
		doc, ok := corpus.Get(c.DocumentID)
		require.True(t, ok)
		if c.Section == "" {
			continue
		}
		found := false
		for _, s := range doc.Sections {
			if s.Title == c.Section {
				found = true
			}
		}
		assert.True(t, found, c.Section)
	}
}

func Test_Corpus_Clone(t *testing.T) {
	corpus := sampleCorpus()
	cp := corpus.Clone()
	require.Equal(t, corpus, cp)

	cp.Documents[0].Sections[0].Subsections[0].Chunks[0] = "changed"
	assert.NotEqual(t, "changed", corpus.Documents[0].Sections[0].Subsections[0].Chunks[0])
}

func Test_Corpus_SectionTitles(t *testing.T) {
	assert.Equal(t, []string{"Registro", "General Information"}, sampleCorpus().SectionTitles())

	var empty *Corpus
	assert.Nil(t, empty.SectionTitles())
	assert.Zero(t, empty.Len())
}
