package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FitTFIDF_SmoothedIDF(t *testing.T) {
	tf := FitTFIDF([][]string{{"gato", "perro"}, {"gato"}})
	require.Equal(t, 2, tf.Dimension())

	v := tf.Vector([]string{"gato", "perro", "perro", "loro"})
	require.Len(t, v.Indices, 2)
	// vocabulary is sorted: gato=0, perro=1
	gato := 1.0 / 3 * (math.Log(3.0/3.0) + 1)
	perro := 2.0 / 3 * (math.Log(3.0/2.0) + 1)
	norm := math.Sqrt(gato*gato + perro*perro)

	assert.InDelta(t, gato/norm, v.Values[0], 1e-12)
	assert.InDelta(t, perro/norm, v.Values[1], 1e-12)
	assert.InDelta(t, 1.0, v.Norm(), 1e-12)
}

func Test_TFIDF_OutOfVocabulary(t *testing.T) {
	tf := FitTFIDF([][]string{{"gato"}})
	assert.Empty(t, tf.Vector([]string{"elefante"}).Indices)
}

func Test_JointScores(t *testing.T) {
	docs := [][]string{
		Tokens("Horario de atención de lunes a viernes."),
		Tokens("Para registrar una mascota, complete el formulario en la sección Registro."),
	}

	scores := JointScores(docs, Tokens("¿cómo registro una mascota?"))
	require.Len(t, scores, 2)
	assert.Zero(t, scores[0])
	assert.Greater(t, scores[1], 0.3)

	// same inputs, bit for bit the same scores
	for i := 0; i < 20; i++ {
		assert.Equal(t, scores, JointScores(docs, Tokens("¿cómo registro una mascota?")))
	}
}

func Test_JointScores_QueryTermsInVocabulary(t *testing.T) {
	// a term only the query contains still gets a weight, so the query is never a zero vector
	scores := JointScores([][]string{{"gato"}}, []string{"gato", "elefante"})
	assert.Greater(t, scores[0], 0.0)
	assert.Less(t, scores[0], 1.0)
}

func Test_Tokens(t *testing.T) {
	assert.Equal(t, []string{"registro", "mascota"}, Tokens("¿Cómo registro una mascota?"))
}

func Test_Cosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2}, []float64{2, 4}), 1e-12)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-3, 0}), 1e-12)
	assert.Zero(t, Cosine([]float64{1}, []float64{1, 2}))
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 2}))
	assert.Zero(t, Cosine(nil, nil))
}

func Test_SparseCosine(t *testing.T) {
	a := SparseVector{Indices: []int{0, 3}, Values: []float64{1, 1}}
	b := SparseVector{Indices: []int{3, 7}, Values: []float64{1, 1}}

	assert.InDelta(t, 0.5, SparseCosine(a, b), 1e-12)
	assert.InDelta(t, 1.0, SparseCosine(a, a), 1e-12)
	assert.Zero(t, SparseCosine(a, SparseVector{}))
}
