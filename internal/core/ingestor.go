// ABOUTME: Ingestion loop that embeds documents and appends their records to the store
// ABOUTME: Each document succeeds or fails on its own; already indexed documents are skipped
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/harper/newsvec/internal/models"
)

// snippetLength is how much of a failed document's text is logged
const snippetLength = 50

// DocumentEmbedder turns a document into its embedding records
type DocumentEmbedder interface {
	EmbedDocument(ctx context.Context, doc *models.Document, summary string) ([]models.EmbeddingRecord, error)
}

// CorpusStore is the persistence the ingestor needs
type CorpusStore interface {
	HasDocument(ctx context.Context, documentID string) (bool, error)
	HasURL(ctx context.Context, url string) (bool, error)
	PutDocument(ctx context.Context, doc *models.Document) error
	AppendAll(ctx context.Context, records []models.EmbeddingRecord) error
}

// Failure records why one document was not ingested
type Failure struct {
	DocumentID string `json:"document_id"`
	Snippet    string `json:"snippet"`
	Err        error  `json:"-"`
	Message    string `json:"error"`
}

// Report summarizes one ingestion run
type Report struct {
	Added   []string  `json:"added"`
	Skipped []string  `json:"skipped"`
	Failed  []Failure `json:"failed"`
	Records int       `json:"records"`
}

// Ingestor embeds and stores documents
type Ingestor struct {
	embedder DocumentEmbedder
	store    CorpusStore
	reducer  *Reducer
	logger   zerolog.Logger
	now      func() time.Time
}

// NewIngestor creates an Ingestor. reducer may be nil, in which case only
// caller-supplied summaries are embedded.
func NewIngestor(embedder DocumentEmbedder, store CorpusStore, reducer *Reducer, logger zerolog.Logger) *Ingestor {
	return &Ingestor{
		embedder: embedder,
		store:    store,
		reducer:  reducer,
		logger:   logger.With().Str("component", "ingestor").Logger(),
		now:      time.Now,
	}
}

// Ingest processes docs in order. A failing document is logged and reported
// without affecting the others. Cancellation stops the loop between documents
// and is returned alongside the partial report.
func (in *Ingestor) Ingest(ctx context.Context, docs []*models.Document) (*Report, error) {
	report := &Report{}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		skip, err := in.alreadyIndexed(ctx, doc)
		if err != nil {
			in.fail(report, doc, err)
			continue
		}
		if skip {
			in.logger.Info().Str("document_id", doc.ID).Str("url", doc.URL).Msg("skipping document already in the index")
			report.Skipped = append(report.Skipped, doc.ID)
			continue
		}

		n, err := in.ingestOne(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			in.fail(report, doc, err)
			continue
		}

		report.Added = append(report.Added, doc.ID)
		report.Records += n
		in.logger.Info().Str("document_id", doc.ID).Str("title", doc.Title).Int("records", n).Msg("document ingested")
	}

	return report, nil
}

func (in *Ingestor) alreadyIndexed(ctx context.Context, doc *models.Document) (bool, error) {
	if doc == nil || doc.ID == "" {
		return false, fmt.Errorf("%w: document id is required", models.ErrInvalidParameter)
	}
	has, err := in.store.HasDocument(ctx, doc.ID)
	if err != nil || has {
		return has, err
	}
	return in.store.HasURL(ctx, doc.URL)
}

// ingestOne embeds doc and writes its records, then its index row. The index
// row goes last so a failed append leaves the document eligible for a rerun.
func (in *Ingestor) ingestOne(ctx context.Context, doc *models.Document) (int, error) {
	stored := *doc
	if stored.AddedAt.IsZero() {
		stored.AddedAt = in.now()
	}

	if stored.Summary == "" && in.reducer != nil {
		summary, err := in.reducer.Digest(ctx, stored.Text)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			in.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("summary unavailable; embedding chunks only")
		} else {
			stored.Summary = summary
		}
	}

	records, err := in.embedder.EmbedDocument(ctx, &stored, stored.Summary)
	if err != nil {
		return 0, err
	}
	if err := in.store.AppendAll(ctx, records); err != nil {
		return 0, err
	}
	if err := in.store.PutDocument(ctx, &stored); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (in *Ingestor) fail(report *Report, doc *models.Document, err error) {
	f := Failure{Err: err, Message: err.Error()}
	if doc != nil {
		f.DocumentID = doc.ID
		f.Snippet = Truncate(doc.Text, snippetLength)
	}
	report.Failed = append(report.Failed, f)
	in.logger.Error().Err(err).Str("document_id", f.DocumentID).Str("text", f.Snippet).Msg("document failed")
}

// Truncate shortens s to at most n runes, marking the cut with "..."
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
