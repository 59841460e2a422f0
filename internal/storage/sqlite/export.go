// ABOUTME: Export and import for the embedding corpus
// ABOUTME: CSV keeps the article_uuid,embedding_uuid,text,embedding layout; YAML exports the document index
package sqlite

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/newsvec/internal/models"
)

// CSVHeader is the column layout of the tabular embedding file
var CSVHeader = []string{"article_uuid", "embedding_uuid", "text", "embedding"}

// ExportData represents the complete exportable document index
type ExportData struct {
	Version    string           `yaml:"version" json:"version"`
	ExportedAt string           `yaml:"exported_at" json:"exported_at"`
	Tool       string           `yaml:"tool" json:"tool"`
	Stats      Stats            `yaml:"stats" json:"stats"`
	Documents  []ExportDocument `yaml:"documents,omitempty" json:"documents,omitempty"`
}

// ExportDocument is one document index row with its record counts
type ExportDocument struct {
	DocumentID  string `yaml:"document_id" json:"document_id"`
	Title       string `yaml:"title" json:"title"`
	URL         string `yaml:"url,omitempty" json:"url,omitempty"`
	Source      string `yaml:"source" json:"source"`
	Summary     string `yaml:"summary,omitempty" json:"summary,omitempty"`
	PublishedAt string `yaml:"published_at,omitempty" json:"published_at,omitempty"`
	DateAdded   string `yaml:"date_added" json:"date_added"`
	Embeddings  int    `yaml:"embeddings" json:"embeddings"`
}

// Export collects the document index with per-document embedding counts
func (s *Store) Export(ctx context.Context) (*ExportData, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "newsvec",
		Stats:      *stats,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.document_id, d.title, COALESCE(d.url, ''), d.source, COALESCE(d.summary, ''),
			COALESCE(d.published_at, ''), COALESCE(d.date_added, ''),
			(SELECT COUNT(*) FROM embeddings e WHERE e.document_id = d.document_id)
		FROM documents d
		ORDER BY d.date_added, d.document_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var doc ExportDocument
		if err := rows.Scan(&doc.DocumentID, &doc.Title, &doc.URL, &doc.Source, &doc.Summary,
			&doc.PublishedAt, &doc.DateAdded, &doc.Embeddings); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		data.Documents = append(data.Documents, doc)
	}
	return data, rows.Err()
}

// ExportToYAML writes the document index to a YAML file
func (s *Store) ExportToYAML(ctx context.Context, outputPath string) (err error) {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	file, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOutput(file, &err)

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// WriteCSV writes every embedding row in append order and returns the row count.
// Vectors are written exactly as stored.
func (s *Store) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, embedding_id, text, vector
		FROM embeddings
		ORDER BY seq
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	n := 0
	for rows.Next() {
		record := make([]string, 4)
		if err := rows.Scan(&record[0], &record[1], &record[2], &record[3]); err != nil {
			return n, fmt.Errorf("failed to scan embedding: %w", err)
		}
		if err := cw.Write(record); err != nil {
			return n, fmt.Errorf("failed to write CSV row: %w", err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, err
	}

	cw.Flush()
	return n, cw.Error()
}

// ExportToCSV writes the embedding table to a CSV file
func (s *Store) ExportToCSV(ctx context.Context, outputPath string) (n int, err error) {
	file, err := createOutput(outputPath)
	if err != nil {
		return 0, err
	}
	defer closeOutput(file, &err)
	return s.WriteCSV(ctx, file)
}

// ReadCSV parses an embedding CSV and appends every row in one transaction.
// Any malformed row rejects the whole file.
func (s *Store) ReadCSV(ctx context.Context, r io.Reader) (int, error) {
	records, err := ParseCSV(r)
	if err != nil {
		return 0, err
	}
	if err := s.AppendAll(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ImportFromCSV appends the rows of a CSV file
func (s *Store) ImportFromCSV(ctx context.Context, inputPath string) (int, error) {
	file, err := os.Open(inputPath) // #nosec G304
	if err != nil {
		return 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return s.ReadCSV(ctx, file)
}

// ParseCSV reads embedding records from the tabular CSV form
func ParseCSV(r io.Reader) ([]models.EmbeddingRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV", models.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: CSV header: %v", models.ErrInvalidInput, err)
	}
	for i, col := range CSVHeader {
		if header[i] != col {
			return nil, fmt.Errorf("%w: CSV column %d is %q, want %q", models.ErrInvalidInput, i+1, header[i], col)
		}
	}

	var records []models.EmbeddingRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
		line, _ := cr.FieldPos(0)
		v, err := models.ParseVector(row[3])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", models.ErrInvalidInput, line, err)
		}
		records = append(records, models.EmbeddingRecord{
			DocumentID:  row[0],
			EmbeddingID: row[1],
			Text:        row[2],
			Vector:      v,
		})
	}
	return records, nil
}

// createOutput is swapped out in tests
var createOutput = func(outputPath string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}

// closeOutput closes a written file; a close failure is reported unless an
// earlier error already was
func closeOutput(file io.Closer, err *error) {
	if cerr := file.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close output file: %w", cerr)
	}
}
