package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingServer struct {
	calls    atomic.Int32
	failures int32
}

func (s *embeddingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := s.calls.Add(1)
	if r.URL.Path != "/api/embeddings" {
		http.NotFound(w, r)
		return
	}
	if n <= s.failures {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model is loading"})
		return
	}

	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"embedding": []float64{float64(len([]rune(req.Prompt))), 1},
	})
}

func newTestEmbedder(t *testing.T, srv *embeddingServer) *OllamaEmbedder {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	e, err := NewOllamaEmbedder(ts.URL, "nomic-embed-text", nil)
	require.NoError(t, err)
	e.RetryDelay = time.Millisecond
	return e
}

func Test_OllamaEmbedder_Embed(t *testing.T) {
	e := newTestEmbedder(t, &embeddingServer{})

	v, err := e.Embed(context.Background(), "mascota")
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 1}, v)
	assert.Equal(t, "ollama:nomic-embed-text", e.Name())
}

func Test_OllamaEmbedder_Retries(t *testing.T) {
	srv := &embeddingServer{failures: 2}
	e := newTestEmbedder(t, srv)

	v, err := e.Embed(context.Background(), "gato")
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 1}, v)
	assert.Equal(t, int32(3), srv.calls.Load())
}

func Test_OllamaEmbedder_GivesUp(t *testing.T) {
	srv := &embeddingServer{failures: 100}
	e := newTestEmbedder(t, srv)
	e.MaxRetries = 1

	_, err := e.Embed(context.Background(), "gato")
	assert.Error(t, err)
	assert.Equal(t, int32(2), srv.calls.Load())
}

func Test_OllamaEmbedder_EmbedBatch(t *testing.T) {
	e := newTestEmbedder(t, &embeddingServer{})

	var last atomic.Int32
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := e.EmbedBatch(context.Background(), texts, func(processed, total int) {
		last.Store(int32(processed))
		assert.Equal(t, len(texts), total)
	})
	require.NoError(t, err)

	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Equal(t, float64(i+1), v[0])
	}
	assert.Equal(t, int32(len(texts)), last.Load())
}

func Test_NewOllamaEmbedder_Validation(t *testing.T) {
	_, err := NewOllamaEmbedder("http://localhost:11434", "", nil)
	assert.Error(t, err)

	_, err = NewOllamaEmbedder("://bad", "m", nil)
	assert.Error(t, err)
}
