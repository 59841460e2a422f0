// ABOUTME: Document index operations for SQLite
// ABOUTME: Tracks when each document was added so retrieval can filter by recency
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/harper/newsvec/internal/models"
)

// DocumentStore handles document index persistence
type DocumentStore struct {
	db     *DB
	logger zerolog.Logger
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB, logger zerolog.Logger) *DocumentStore {
	return &DocumentStore{db: db, logger: logger}
}

// PutDocument inserts or updates a document's index row. The text body is not stored.
func (s *DocumentStore) PutDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", models.ErrInvalidParameter)
	}
	added := doc.AddedAt
	if added.IsZero() {
		added = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (document_id, title, url, source, summary, published_at, date_added)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			source = excluded.source,
			summary = excluded.summary,
			published_at = excluded.published_at
	`, doc.ID, doc.Title, nullString(doc.URL), doc.Source, nullString(doc.Summary),
		formatDate(doc.PublishedAt), formatDate(added))
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
	}
	return nil
}

// HasDocument reports whether a document with this ID is indexed
func (s *DocumentStore) HasDocument(ctx context.Context, documentID string) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM documents WHERE document_id = ? LIMIT 1", documentID)
}

// HasURL reports whether any indexed document has this URL
func (s *DocumentStore) HasURL(ctx context.Context, url string) (bool, error) {
	if url == "" {
		return false, nil
	}
	return s.exists(ctx, "SELECT 1 FROM documents WHERE url = ? LIMIT 1", url)
}

func (s *DocumentStore) exists(ctx context.Context, query string, arg string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query documents: %w", err)
	}
	return true, nil
}

// GetDocument retrieves an indexed document by ID, or nil if it does not exist
func (s *DocumentStore) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	var (
		doc       models.Document
		url       sql.NullString
		summary   sql.NullString
		published sql.NullString
		added     sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT document_id, title, url, source, summary, published_at, date_added
		FROM documents
		WHERE document_id = ?
	`, documentID).Scan(&doc.ID, &doc.Title, &url, &doc.Source, &summary, &published, &added)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", documentID, err)
	}

	doc.URL = url.String
	doc.Summary = summary.String
	if t, ok := parseDate(published); ok {
		doc.PublishedAt = t
	}
	if t, ok := parseDate(added); ok {
		doc.AddedAt = t
	}
	return &doc, nil
}

// ListDocuments returns the most recently added documents, newest first.
// limit <= 0 returns all of them.
func (s *DocumentStore) ListDocuments(ctx context.Context, limit int) ([]*models.Document, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, title, url, source, summary, published_at, date_added
		FROM documents
		ORDER BY date_added DESC, document_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*models.Document
	for rows.Next() {
		var (
			doc       models.Document
			url       sql.NullString
			summary   sql.NullString
			published sql.NullString
			added     sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &url, &doc.Source, &summary, &published, &added); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.URL = url.String
		doc.Summary = summary.String
		doc.PublishedAt, _ = parseDate(published)
		doc.AddedAt, _ = parseDate(added)
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of indexed documents
func (s *DocumentStore) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func formatDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(DateLayout), Valid: true}
}

func parseDate(s sql.NullString) (time.Time, bool) {
	if !s.Valid || s.String == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s.String)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// nullString converts empty string to sql.NullString
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
