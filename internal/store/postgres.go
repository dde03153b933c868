package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pdf-qa-rag/internal/models"
)

// saveLockKey serializes writers across processes sharing one database
const saveLockKey int64 = 0x70646671

const undefinedTable = "42P01"

// PostgresStore keeps one row per document in PostgreSQL
type PostgresStore struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a new database connection
func NewPostgresStore(ctx context.Context, connStr string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{Pool: pool, logger: logger}, nil
}

// Initialize creates the documents table
func (s *PostgresStore) Initialize(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create corpus_documents table: %w", err)
	}
	return nil
}

const createTable = `
	CREATE TABLE IF NOT EXISTS corpus_documents (
		document_id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		body JSONB NOT NULL
	)
`

// Load reads every document in ingestion order
func (s *PostgresStore) Load(ctx context.Context) (*models.Corpus, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT document_id, body FROM corpus_documents ORDER BY position
	`)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return models.NewCorpus(), nil
		}
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	corpus := models.NewCorpus()
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var doc models.Document
		if err := json.Unmarshal(body, &doc); err != nil {
			s.logger.Warn("skipping unreadable document",
				zap.String("document", id), zap.Error(fmt.Errorf("%w: %w", models.ErrCorpusLoad, err)))
			continue
		}
		doc.ID = id
		corpus.Documents = append(corpus.Documents, doc)
	}

	if err := rows.Err(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return models.NewCorpus(), nil
		}
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return corpus, nil
}

// Save replaces all rows in one transaction
func (s *PostgresStore) Save(ctx context.Context, corpus *models.Corpus) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, saveLockKey); err != nil {
		return fmt.Errorf("failed to acquire save lock: %w", err)
	}
	if _, err := tx.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create corpus_documents table: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM corpus_documents`); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	batch := &pgx.Batch{}
	for i, doc := range corpus.Documents {
		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
		}
		batch.Queue(`
			INSERT INTO corpus_documents (document_id, position, body)
			VALUES ($1, $2, $3)
		`, doc.ID, i, string(body))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	s.logger.Debug("corpus saved", zap.Int("documents", corpus.Len()))
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() {
	s.Pool.Close()
}
