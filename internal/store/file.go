package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"pdf-qa-rag/internal/models"
)

// FileStore keeps the corpus in a single JSON file
type FileStore struct {
	Path   string
	logger *zap.Logger
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{Path: path, logger: logger.With(zap.String("store", path))}
}

// Load reads the corpus file. A missing, empty or corrupt file yields an empty corpus.
func (s *FileStore) Load(_ context.Context) (*models.Corpus, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("starting with empty corpus", zap.Error(fmt.Errorf("%w: %w", models.ErrCorpusLoad, err)))
		}
		return models.NewCorpus(), nil
	}
	defer f.Close()

	corpus, err := models.ReadCorpus(f)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.logger.Warn("starting with empty corpus", zap.Error(fmt.Errorf("%w: %w", models.ErrCorpusLoad, err)))
		}
		return models.NewCorpus(), nil
	}

	s.logger.Debug("corpus loaded", zap.Int("documents", corpus.Len()))
	return corpus, nil
}

// Save writes the corpus to a temporary file and renames it over the old one
func (s *FileStore) Save(_ context.Context, corpus *models.Corpus) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := models.WriteCorpus(tmp, corpus); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync corpus file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close corpus file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to replace corpus file: %w", err)
	}

	s.logger.Debug("corpus saved", zap.Int("documents", corpus.Len()))
	return nil
}

// Close is a no-op for file stores
func (s *FileStore) Close() {}
