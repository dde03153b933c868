package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-qa-rag/internal/models"
)

func newTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("PDFQA_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("PDFQA_TEST_POSTGRES_URL not set")
	}

	s, err := NewPostgresStore(context.Background(), url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.Pool.Exec(context.Background(), `DROP TABLE IF EXISTS corpus_documents`)
		s.Close()
	})

	_, err = s.Pool.Exec(context.Background(), `DROP TABLE IF EXISTS corpus_documents`)
	require.NoError(t, err)
	return s
}

func Test_PostgresStore_MissingTable(t *testing.T) {
	s := newTestPostgres(t)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func Test_PostgresStore_RoundTrip(t *testing.T) {
	s := newTestPostgres(t)
	ctx := context.Background()

	want := sampleCorpus()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// a second save replaces every row
	smaller := &models.Corpus{Documents: want.Documents[1:2]}
	require.NoError(t, s.Save(ctx, smaller))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, smaller, got)
}

func Test_Open_PostgresCreatesTable(t *testing.T) {
	s := newTestPostgres(t)
	ctx := context.Background()

	opened, err := Open(ctx, BackendPostgres, "", os.Getenv("PDFQA_TEST_POSTGRES_URL"), nil)
	require.NoError(t, err)
	defer opened.Close()

	var exists bool
	require.NoError(t, s.Pool.QueryRow(ctx, `SELECT to_regclass('corpus_documents') IS NOT NULL`).Scan(&exists))
	assert.True(t, exists)

	// Initialize is safe to repeat
	require.NoError(t, s.Initialize(ctx))
}
