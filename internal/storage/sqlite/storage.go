// ABOUTME: Store bundles the document index and the embedding store over one database
// ABOUTME: It is the persistence surface used by ingestion, retrieval, and the CLI
package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Store provides document and embedding persistence backed by SQLite
type Store struct {
	*DocumentStore
	*EmbeddingStore

	db *DB
}

// Stats summarizes the store contents
type Stats struct {
	Documents         int `json:"documents" yaml:"documents"`
	Embeddings        int `json:"embeddings" yaml:"embeddings"`
	ChunkEmbeddings   int `json:"chunk_embeddings" yaml:"chunk_embeddings"`
	SummaryEmbeddings int `json:"summary_embeddings" yaml:"summary_embeddings"`
	// DuplicateIDs counts embedding IDs written more than once
	DuplicateIDs int `json:"duplicate_ids" yaml:"duplicate_ids"`
	// Orphans counts embedding rows with no document index row
	Orphans int `json:"orphans" yaml:"orphans"`
}

// NewStore opens the database at path, creating it if needed
func NewStore(path string, logger zerolog.Logger) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return newStore(db, logger), nil
}

// NewInMemoryStore creates a store backed by an in-memory database
func NewInMemoryStore(logger zerolog.Logger) (*Store, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, err
	}
	return newStore(db, logger), nil
}

func newStore(db *DB, logger zerolog.Logger) *Store {
	logger = logger.With().Str("component", "store").Logger()
	return &Store{
		DocumentStore:  NewDocumentStore(db, logger),
		EmbeddingStore: NewEmbeddingStore(db, logger),
		db:             db,
	}
}

// DB returns the underlying database
func (s *Store) DB() *DB {
	return s.db
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Stats reports row counts for the store
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM embeddings),
			(SELECT COUNT(*) FROM embeddings WHERE kind = 'chunk'),
			(SELECT COUNT(*) FROM embeddings WHERE kind = 'summary'),
			(SELECT COUNT(*) FROM (SELECT embedding_id FROM embeddings GROUP BY embedding_id HAVING COUNT(*) > 1)),
			(SELECT COUNT(*) FROM embeddings e WHERE NOT EXISTS (SELECT 1 FROM documents d WHERE d.document_id = e.document_id))
	`).Scan(&st.Documents, &st.Embeddings, &st.ChunkEmbeddings, &st.SummaryEmbeddings, &st.DuplicateIDs, &st.Orphans)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return &st, nil
}
