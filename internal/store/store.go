// Package store persists the corpus between runs.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pdf-qa-rag/internal/models"
)

// Storage backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Store loads and saves the whole corpus
type Store interface {
	// Load returns the persisted corpus. A missing or unreadable corpus loads as empty.
	Load(ctx context.Context) (*models.Corpus, error)
	// Save replaces the persisted corpus
	Save(ctx context.Context, corpus *models.Corpus) error
	Close()
}

// Open creates the store for a backend
func Open(ctx context.Context, backend, path, postgresURL string, logger *zap.Logger) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path, logger), nil
	case BackendPostgres:
		if postgresURL == "" {
			return nil, fmt.Errorf("postgres backend requires a connection url")
		}
		s, err := NewPostgresStore(ctx, postgresURL, logger)
		if err != nil {
			return nil, err
		}
		if err := s.Initialize(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Merge returns a copy of existing with doc added. A document with the same
// id is replaced where it stands, otherwise doc is appended.
func Merge(existing *models.Corpus, doc models.Document) *models.Corpus {
	merged := existing.Clone()
	doc = doc.Clone()

	for i := range merged.Documents {
		if merged.Documents[i].ID == doc.ID {
			merged.Documents[i] = doc
			return merged
		}
	}
	merged.Documents = append(merged.Documents, doc)
	return merged
}
