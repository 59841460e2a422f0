// ABOUTME: Append-only embedding storage for SQLite
// ABOUTME: Vectors are stored as numeric-list text and read back in append order
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harper/newsvec/internal/models"
)

// Filter narrows Load to a subset of the stored records
type Filter struct {
	// Kind restricts to chunk or summary records; empty means both
	Kind models.RecordKind
	// DocumentID restricts to one document
	DocumentID string
	// Since keeps only records whose document was added at or after this time
	Since time.Time
}

// SinceDays returns a filter on documents added in the last n days; n <= 0 means no window
func SinceDays(n int, now time.Time) Filter {
	if n <= 0 {
		return Filter{}
	}
	return Filter{Since: now.AddDate(0, 0, -n)}
}

// EmbeddingStore handles embedding persistence
type EmbeddingStore struct {
	db     *DB
	logger zerolog.Logger
	// mu keeps concurrent appends from interleaving
	mu sync.Mutex
}

// NewEmbeddingStore creates a new EmbeddingStore
func NewEmbeddingStore(db *DB, logger zerolog.Logger) *EmbeddingStore {
	return &EmbeddingStore{db: db, logger: logger}
}

const insertEmbedding = `
	INSERT INTO embeddings (document_id, embedding_id, kind, text, vector)
	VALUES (?, ?, ?, ?, ?)
`

// Append writes one record. Existing records with the same embedding ID are kept.
func (s *EmbeddingStore) Append(ctx context.Context, record models.EmbeddingRecord) error {
	return s.AppendAll(ctx, []models.EmbeddingRecord{record})
}

// AppendAll writes records in order inside one transaction; either all land or none do
func (s *EmbeddingStore) AppendAll(ctx context.Context, records []models.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if err := validateRecord(r); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertEmbedding)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.DocumentID, r.EmbeddingID, string(r.Kind()), r.Text, models.FormatVector(r.Vector)); err != nil {
			return fmt.Errorf("failed to append embedding %s: %w", r.EmbeddingID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit embeddings: %w", err)
	}
	return nil
}

func validateRecord(r models.EmbeddingRecord) error {
	if r.DocumentID == "" || r.EmbeddingID == "" {
		return fmt.Errorf("%w: document and embedding ids are required", models.ErrInvalidParameter)
	}
	if len(r.Vector) == 0 {
		return fmt.Errorf("%w: embedding %s has an empty vector", models.ErrInvalidParameter, r.EmbeddingID)
	}
	return nil
}

// Load returns the records matching f in append order. With a recency window,
// records whose document date cannot be resolved are excluded and logged.
// Rows with an unreadable vector are skipped and logged.
func (s *EmbeddingStore) Load(ctx context.Context, f Filter) ([]models.EmbeddingRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "e.kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.DocumentID != "" {
		where = append(where, "e.document_id = ?")
		args = append(args, f.DocumentID)
	}

	query := `
		SELECT e.document_id, e.embedding_id, e.text, e.vector, d.date_added
		FROM embeddings e
		LEFT JOIN documents d ON d.document_id = e.document_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		records    []models.EmbeddingRecord
		unresolved int
	)
	for rows.Next() {
		var (
			r     models.EmbeddingRecord
			raw   string
			added sql.NullString
		)
		if err := rows.Scan(&r.DocumentID, &r.EmbeddingID, &r.Text, &raw, &added); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}

		if !f.Since.IsZero() {
			t, ok := parseDate(added)
			if !ok {
				unresolved++
				s.logger.Warn().Str("document_id", r.DocumentID).Str("embedding_id", r.EmbeddingID).Msg("document date unresolved; excluded from recency filter")
				continue
			}
			if t.Before(f.Since) {
				continue
			}
		}

		v, err := models.ParseVector(raw)
		if err != nil {
			s.logger.Warn().Err(err).Str("embedding_id", r.EmbeddingID).Msg("skipping malformed stored vector")
			continue
		}
		r.Vector = v
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read embeddings: %w", err)
	}

	if unresolved > 0 {
		s.logger.Warn().Int("excluded", unresolved).Msg("records excluded by unresolved document dates")
	}
	return records, nil
}

// CountEmbeddings returns the number of stored embedding rows, duplicates included
func (s *EmbeddingStore) CountEmbeddings(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return n, nil
}
