package retrieval

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pdf-qa-rag/internal/models"
)

const registroChunk = "Para registrar una mascota, complete el formulario en la sección Registro."

func structured(id string, sections ...[2]string) models.Document {
	doc := models.Document{ID: id}
	for _, s := range sections {
		doc.Sections = append(doc.Sections, models.Section{
			Title:       s[0],
			Subsections: []models.Subsection{{Title: models.DefaultSubsection, Chunks: []string{s[1]}}},
		})
	}
	return doc
}

func municipalCorpus() *models.Corpus {
	return &models.Corpus{Documents: []models.Document{
		structured("muni.pdf",
			[2]string{"Registro", registroChunk},
			[2]string{"Horarios", "El horario de atención es de lunes a viernes de 8 a 16 horas."},
			[2]string{"Vacunas", "Las vacunas obligatorias se aplican cada año en los centros municipales."},
		),
	}}
}

func unrelatedCorpus() *models.Corpus {
	return &models.Corpus{Documents: []models.Document{
		structured("otros.pdf",
			[2]string{"Horarios", "El horario de atención es de lunes a viernes de 8 a 16 horas."},
			[2]string{"Vacunas", "Las vacunas obligatorias se aplican cada año en los centros municipales."},
			[2]string{"Castraciones", "La municipalidad ofrece castraciones gratuitas para perros y gatos."},
		),
	}}
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(opts, nil)
	require.NoError(t, err)
	return e
}

func build(t *testing.T, corpus *models.Corpus, kind string) *Snapshot {
	t.Helper()
	snap, err := Build(context.Background(), corpus, kind, nil)
	require.NoError(t, err)
	return snap
}

func Test_Engine_GreetingOnEmptyCorpus(t *testing.T) {
	e := newEngine(t, Options{})
	snap := build(t, models.NewCorpus(), VectorSparse)

	m, reason, err := e.Retrieve(context.Background(), "hola", snap)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, models.ReasonIntent, reason)
	assert.Equal(t, models.TierIntent, m.Tier)
	assert.Equal(t, 1.0, m.Score)
	assert.Empty(t, m.DocumentID)
	assert.Contains(t, m.Answer, "Hello")
}

func Test_Engine_EmptyCorpus(t *testing.T) {
	e := newEngine(t, Options{})

	m, reason, err := e.Retrieve(context.Background(), "¿cómo registro una mascota?", build(t, models.NewCorpus(), VectorSparse))
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, models.ReasonEmptyCorpus, reason)

	m, reason, err = e.Retrieve(context.Background(), "¿cómo registro una mascota?", nil)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, models.ReasonEmptyCorpus, reason)
}

func Test_Engine_LoadedCorpusWithoutChunks(t *testing.T) {
	e := newEngine(t, Options{})
	corpus := &models.Corpus{Documents: []models.Document{models.FailedDocument("escaneado.pdf")}}

	for _, kind := range []string{VectorSparse, VectorNone} {
		snap := build(t, corpus, kind)
		assert.False(t, snap.Empty(), kind)

		m, reason, err := e.Retrieve(context.Background(), "formulario en línea", snap)
		require.NoError(t, err)
		assert.Nil(t, m, kind)
		assert.Equal(t, models.ReasonBelowThreshold, reason, kind)
	}
}

func Test_Engine_ShortLineSectionsAnswer(t *testing.T) {
	corpus := &models.Corpus{Documents: []models.Document{
		structured("menu.pdf",
			[2]string{"REGISTRO DE MASCOTAS", "REGISTRO DE MASCOTAS"},
			[2]string{"Complete el formulario en línea.", "Complete el formulario en línea."},
		),
	}}

	m, reason, err := newEngine(t, Options{}).Retrieve(context.Background(), "formulario en línea", build(t, corpus, VectorSparse))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.ReasonMatched, reason)
	assert.Equal(t, "Complete el formulario en línea.", m.Section)
}

func Test_Engine_EmptyQuestion(t *testing.T) {
	e := newEngine(t, Options{})
	m, reason, err := e.Retrieve(context.Background(), "  \t", build(t, municipalCorpus(), VectorSparse))
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, models.ReasonEmptyQuery, reason)
}

func Test_Engine_SparseMatchWithAttribution(t *testing.T) {
	e := newEngine(t, Options{})

	m, reason, err := e.Retrieve(context.Background(), "¿cómo registro una mascota?", build(t, municipalCorpus(), VectorSparse))
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, models.ReasonMatched, reason)
	assert.Equal(t, models.TierVector, m.Tier)
	assert.Equal(t, "muni.pdf", m.DocumentID)
	assert.Equal(t, "Registro", m.Section)
	assert.Equal(t, registroChunk, m.Chunk.Text)
	assert.Equal(t, registroChunk, m.Answer)
	assert.GreaterOrEqual(t, m.Score, DefaultSparseThreshold)
}

func Test_Engine_LexicalOnlyDeployment(t *testing.T) {
	e := newEngine(t, Options{})

	m, reason, err := e.Retrieve(context.Background(), "¿cómo registro una mascota?", build(t, municipalCorpus(), VectorNone))
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, models.ReasonMatched, reason)
	assert.Equal(t, models.TierLexical, m.Tier)
	assert.Equal(t, "Registro", m.Section)
	assert.InDelta(t, 0.396, m.Score, 0.001)

	m, reason, err = e.Retrieve(context.Background(), "horario de atención", build(t, municipalCorpus(), VectorNone))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Horarios", m.Section)
}

func Test_Engine_LexicalOffFallsThroughToVector(t *testing.T) {
	e := newEngine(t, Options{Lexical: LexicalOff})

	m, _, err := e.Retrieve(context.Background(), "¿cómo registro una mascota?", build(t, municipalCorpus(), VectorNone))
	require.NoError(t, err)
	assert.Nil(t, m)

	e = newEngine(t, Options{Lexical: LexicalOn})
	m, _, err = e.Retrieve(context.Background(), "¿cómo registro una mascota?", build(t, municipalCorpus(), VectorSparse))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.TierLexical, m.Tier)
}

func Test_Engine_UnrelatedQuestionBelowThreshold(t *testing.T) {
	e := newEngine(t, Options{})

	m, reason, err := e.Retrieve(context.Background(), "elephant migration patterns", build(t, unrelatedCorpus(), VectorSparse))
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, models.ReasonBelowThreshold, reason)
}

func Test_Engine_BelowThresholdIsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e, err := NewEngine(Options{}, zap.New(core))
	require.NoError(t, err)

	_, reason, err := e.Retrieve(context.Background(), "elephant migration patterns", build(t, unrelatedCorpus(), VectorSparse))
	require.NoError(t, err)
	assert.Equal(t, models.ReasonBelowThreshold, reason)

	entries := logs.FilterMessage("best score below threshold").All()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ErrNoConfidentMatch.Error(), entries[0].ContextMap()["error"])
	assert.Equal(t, DefaultSparseThreshold, entries[0].ContextMap()["threshold"])
}

func Test_Engine_GreetingBeatsSimilarity(t *testing.T) {
	e := newEngine(t, Options{Lexical: LexicalOn})
	snap := build(t, municipalCorpus(), VectorSparse)

	for _, q := range []string{
		"hola, ¿cómo registro una mascota?",
		"Buenos días, necesito registrar una mascota en la sección Registro",
		"HELLO mascota registro formulario",
	} {
		m, reason, err := e.Retrieve(context.Background(), q, snap)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, models.ReasonIntent, reason, q)
		assert.Equal(t, models.TierIntent, m.Tier, q)
		assert.Empty(t, m.Section, q)
	}
}

func Test_Engine_OptionsListSections(t *testing.T) {
	e := newEngine(t, Options{})

	m, reason, err := e.Retrieve(context.Background(), "Show options", build(t, municipalCorpus(), VectorSparse))
	require.NoError(t, err)
	assert.Equal(t, models.ReasonIntent, reason)
	assert.True(t, strings.HasSuffix(m.Answer, "\n- Registro\n- Horarios\n- Vacunas"), m.Answer)
}

func Test_Engine_ThresholdBoundaryIncluded(t *testing.T) {
	snap := build(t, municipalCorpus(), VectorSparse)
	question := "¿cómo registro una mascota?"

	scores, err := snap.Index.Scores(context.Background(), question)
	require.NoError(t, err)
	best := 0.0
	for _, s := range scores {
		best = math.Max(best, s)
	}
	require.Greater(t, best, 0.0)

	at := newEngine(t, Options{SparseThreshold: best})
	above := newEngine(t, Options{SparseThreshold: math.Nextafter(best, 1)})

	for i := 0; i < 50; i++ {
		m, reason, err := at.Retrieve(context.Background(), question, snap)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, models.ReasonMatched, reason)
		assert.Equal(t, best, m.Score)

		m, reason, err = above.Retrieve(context.Background(), question, snap)
		require.NoError(t, err)
		assert.Nil(t, m)
		assert.Equal(t, models.ReasonBelowThreshold, reason)
	}
}

func Test_Engine_TiesResolveToFirstIngested(t *testing.T) {
	corpus := &models.Corpus{Documents: []models.Document{
		structured("primero.pdf", [2]string{"Registro", registroChunk}),
		structured("segundo.pdf", [2]string{"Registro", registroChunk}),
	}}

	for _, lexical := range []string{LexicalOff, LexicalOn} {
		e := newEngine(t, Options{Lexical: lexical})
		m, _, err := e.Retrieve(context.Background(), "¿cómo registro una mascota?", build(t, corpus, VectorSparse))
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "primero.pdf", m.DocumentID, lexical)
	}
}

func Test_Engine_FlatDocumentsHaveNoAttribution(t *testing.T) {
	corpus := &models.Corpus{Documents: []models.Document{
		{ID: "notas.pdf", Text: "El horario es de lunes a viernes. Para registrar una mascota complete el formulario."},
	}}
	e := newEngine(t, Options{})

	m, _, err := e.Retrieve(context.Background(), "registrar mascota formulario", build(t, corpus, VectorSparse))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "notas.pdf", m.DocumentID)
	assert.Empty(t, m.Section)
	assert.Equal(t, "Para registrar una mascota complete el formulario.", m.Chunk.Text)
}

func Test_NewEngine_UnknownLexicalMode(t *testing.T) {
	_, err := NewEngine(Options{Lexical: "sometimes"}, nil)
	assert.Error(t, err)
}
