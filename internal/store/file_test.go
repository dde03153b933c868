package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-qa-rag/internal/models"
)

func sampleCorpus() *models.Corpus {
	return &models.Corpus{Documents: []models.Document{
		{ID: "muni.pdf", Sections: []models.Section{
			{Title: "Registro", Subsections: []models.Subsection{
				{Title: "Requisitos", Chunks: []string{"Presentar DNI & libreta sanitaria.", "Completar <formulario>."}},
				{Title: models.DefaultSubsection, Chunks: []string{"Trámite gratuito."}},
			}},
			{Title: "Horarios", Subsections: []models.Subsection{
				{Title: models.DefaultSubsection, Chunks: []string{"Lunes a viernes de 8 a 16."}},
			}},
		}},
		{ID: "notas.pdf", Text: "Texto plano sin secciones."},
		models.FailedDocument("escaneado.pdf"),
	}}
}

func Test_FileStore_RoundTrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "data", "corpus.json"), nil)
	ctx := context.Background()

	want := sampleCorpus()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Trámite gratuito.")
	assert.Contains(t, string(raw), "DNI & libreta")
	assert.Contains(t, string(raw), "\n    \"muni.pdf\": {")
}

func Test_FileStore_MissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "corpus.json"), nil)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func Test_FileStore_CorruptFile(t *testing.T) {
	for _, content := range []string{"", "{not json", `["a", "b"]`, `{"doc": 42}`} {
		path := filepath.Join(t.TempDir(), "corpus.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		got, err := NewFileStore(path, nil).Load(context.Background())
		require.NoError(t, err, content)
		assert.Equal(t, 0, got.Len(), content)
	}
}

func Test_FileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "corpus.json"), nil)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleCorpus()))
	require.NoError(t, s.Save(ctx, models.NewCorpus()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "corpus.json", entries[0].Name())

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func Test_FileStore_ReingestSameFilename(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "corpus.json"), nil)
	ctx := context.Background()

	for _, text := range []string{"Primera versión.", "Segunda versión."} {
		corpus, err := s.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, Merge(corpus, models.Document{ID: "guia.pdf", Text: text})))
	}

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "Segunda versión.", got.Documents[0].Text)
}
