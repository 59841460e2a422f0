// ABOUTME: Tests for the document index and append-only embedding store
// ABOUTME: Covers append ordering, duplicates, filters, recency, and stats
package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/harper/newsvec/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewInMemoryStore(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewInMemoryStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func record(doc string, n int, v ...float64) models.EmbeddingRecord {
	return models.EmbeddingRecord{
		DocumentID:  doc,
		EmbeddingID: models.ChunkEmbeddingID(doc, n),
		Text:        "chunk text",
		Vector:      v,
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	added := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	doc := &models.Document{
		ID:      "doc-1",
		Title:   "Rates hold",
		URL:     "https://example.com/rates",
		Source:  "wire",
		Summary: "Central bank holds rates.",
		AddedAt: added,
	}
	if err := store.PutDocument(ctx, doc); err != nil {
		t.Fatalf("PutDocument() error = %v", err)
	}

	got, err := store.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetDocument() returned nil")
	}
	if got.Title != "Rates hold" || got.URL != doc.URL || got.Summary != doc.Summary {
		t.Errorf("GetDocument() = %+v", got)
	}
	if !got.AddedAt.Equal(added) {
		t.Errorf("AddedAt = %v, want %v", got.AddedAt, added)
	}
	if !got.PublishedAt.IsZero() {
		t.Errorf("PublishedAt = %v, want zero", got.PublishedAt)
	}

	missing, err := store.GetDocument(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetDocument(missing) = %v, %v; want nil, nil", missing, err)
	}

	has, err := store.HasDocument(ctx, "doc-1")
	if err != nil || !has {
		t.Errorf("HasDocument() = %v, %v", has, err)
	}
	has, err = store.HasURL(ctx, "https://example.com/rates")
	if err != nil || !has {
		t.Errorf("HasURL() = %v, %v", has, err)
	}
	has, err = store.HasURL(ctx, "")
	if err != nil || has {
		t.Errorf("HasURL(\"\") = %v, %v", has, err)
	}
}

func TestPutDocumentRequiresID(t *testing.T) {
	store := newTestStore(t)
	err := store.PutDocument(context.Background(), &models.Document{Title: "x"})
	if !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("PutDocument() error = %v, want ErrInvalidParameter", err)
	}
}

func TestAppendPreservesOrderAndDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.AppendAll(ctx, []models.EmbeddingRecord{record("a", 0, 1, 0), record("a", 1, 0, 1)}); err != nil {
		t.Fatalf("AppendAll() error = %v", err)
	}
	// Rerun writes the same ids again
	if err := store.Append(ctx, record("a", 0, 0.5, 0.5)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := store.Load(ctx, Filter{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Load() returned %d records, want 3", len(got))
	}
	wantIDs := []string{"a_embedding-0", "a_embedding-1", "a_embedding-0"}
	for i, id := range wantIDs {
		if got[i].EmbeddingID != id {
			t.Errorf("record %d id = %s, want %s", i, got[i].EmbeddingID, id)
		}
	}
	if got[2].Vector[0] != 0.5 {
		t.Errorf("record 2 vector = %v", got[2].Vector)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Embeddings != 3 || stats.DuplicateIDs != 1 || stats.Orphans != 3 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestAppendAllIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bad := record("a", 1)
	err := store.AppendAll(ctx, []models.EmbeddingRecord{record("a", 0, 1), bad})
	if !errors.Is(err, models.ErrInvalidParameter) {
		t.Fatalf("AppendAll() error = %v, want ErrInvalidParameter", err)
	}
	n, err := store.CountEmbeddings(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountEmbeddings() = %d, %v; want 0", n, err)
	}
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for _, doc := range docs {
		wg.Add(1)
		go func(doc string) {
			defer wg.Done()
			batch := make([]models.EmbeddingRecord, 5)
			for i := range batch {
				batch[i] = record(doc, i, float64(i+1))
			}
			if err := store.AppendAll(ctx, batch); err != nil {
				t.Errorf("AppendAll(%s) error = %v", doc, err)
			}
		}(doc)
	}
	wg.Wait()

	got, err := store.Load(ctx, Filter{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("Load() returned %d records, want 20", len(got))
	}
	for start := 0; start < len(got); start += 5 {
		doc := got[start].DocumentID
		for i := 0; i < 5; i++ {
			if got[start+i].DocumentID != doc || got[start+i].EmbeddingID != models.ChunkEmbeddingID(doc, i) {
				t.Fatalf("batch starting at %d interleaved: %s", start, got[start+i].EmbeddingID)
			}
		}
	}
}

func TestLoadFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	summary := models.EmbeddingRecord{
		DocumentID:  "a",
		EmbeddingID: models.SummaryEmbeddingID("a"),
		Text:        "summary",
		Vector:      models.Vector{1, 1},
	}
	if err := store.AppendAll(ctx, []models.EmbeddingRecord{record("a", 0, 1), summary, record("b", 0, 2)}); err != nil {
		t.Fatalf("AppendAll() error = %v", err)
	}

	cases := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"chunks", Filter{Kind: models.KindChunk}, 2},
		{"summaries", Filter{Kind: models.KindSummary}, 1},
		{"document", Filter{DocumentID: "b"}, 1},
		{"document chunks", Filter{DocumentID: "a", Kind: models.KindChunk}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.Load(ctx, tc.filter)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("Load() returned %d records, want %d", len(got), tc.want)
			}
		})
	}
}

func TestLoadRecencyWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	docs := []*models.Document{
		{ID: "fresh", Title: "f", Source: "s", AddedAt: now.AddDate(0, 0, -1)},
		{ID: "stale", Title: "s", Source: "s", AddedAt: now.AddDate(0, 0, -30)},
	}
	for _, d := range docs {
		if err := store.PutDocument(ctx, d); err != nil {
			t.Fatalf("PutDocument() error = %v", err)
		}
	}
	// "bad" has an unparseable date and "orphan" has no index row
	if _, err := store.DB().Conn().Exec(`INSERT INTO documents (document_id, title, source, date_added) VALUES ('bad', 't', 's', 'last tuesday')`); err != nil {
		t.Fatalf("insert error = %v", err)
	}
	records := []models.EmbeddingRecord{record("fresh", 0, 1), record("stale", 0, 1), record("bad", 0, 1), record("orphan", 0, 1)}
	if err := store.AppendAll(ctx, records); err != nil {
		t.Fatalf("AppendAll() error = %v", err)
	}

	got, err := store.Load(ctx, SinceDays(7, now))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].DocumentID != "fresh" {
		t.Errorf("Load(7 days) = %+v, want only fresh", got)
	}

	all, err := store.Load(ctx, SinceDays(0, now))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Load(no window) returned %d records, want 4", len(all))
	}
}

func TestLoadSkipsMalformedVectors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, record("a", 0, 1, 2)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := store.DB().Conn().Exec(`INSERT INTO embeddings (document_id, embedding_id, kind, text, vector) VALUES ('a', 'a_embedding-1', 'chunk', 't', '__import__("os")')`); err != nil {
		t.Fatalf("insert error = %v", err)
	}

	got, err := store.Load(ctx, Filter{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].EmbeddingID != "a_embedding-0" {
		t.Errorf("Load() = %+v, want only the well-formed record", got)
	}
}

func TestListDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		doc := &models.Document{ID: id, Title: id, Source: "wire", AddedAt: base.AddDate(0, 0, i)}
		if err := store.PutDocument(ctx, doc); err != nil {
			t.Fatalf("PutDocument() error = %v", err)
		}
	}

	docs, err := store.ListDocuments(ctx, 2)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "third" || docs[1].ID != "second" {
		t.Errorf("ListDocuments(2) = %v", docs)
	}

	all, err := store.ListDocuments(ctx, 0)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListDocuments(0) returned %d documents, want 3", len(all))
	}
}
