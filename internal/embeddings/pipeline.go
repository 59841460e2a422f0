// ABOUTME: Length-safe embedding pipeline: token batching, per-chunk embedding, pooling
// ABOUTME: Produces chunk and summary EmbeddingRecords for a document
package embeddings

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/harper/newsvec/internal/chunker"
	"github.com/harper/newsvec/internal/models"
	"github.com/harper/newsvec/internal/tokenizer"
)

const (
	// DefaultCtxLength is the token batch size used for length-safe embedding
	DefaultCtxLength = 200
	// DefaultWordsPerChunk and DefaultStep shape the semantic word windows
	DefaultWordsPerChunk = 100
	DefaultStep          = 10
)

// Embedder is the embedding service as seen by the pipeline
type Embedder interface {
	Embed(ctx context.Context, text string) (models.Vector, error)
	EmbedTokens(ctx context.Context, tokens []int) (models.Vector, error)
}

// Config controls chunk sizes and pooling
type Config struct {
	// CtxLength is the maximum number of tokens sent in one embedding call
	CtxLength int
	// WordsPerChunk and Step define the overlapping word windows of a document
	WordsPerChunk int
	Step          int
	// Average pools each chunk's token batches into one vector
	Average bool
	// Concurrency bounds in-flight embedding calls per text
	Concurrency int
	Logger      zerolog.Logger
}

// DefaultPipelineConfig returns the defaults
func DefaultPipelineConfig() Config {
	return Config{
		CtxLength:     DefaultCtxLength,
		WordsPerChunk: DefaultWordsPerChunk,
		Step:          DefaultStep,
		Average:       true,
		Concurrency:   1,
		Logger:        zerolog.Nop(),
	}
}

// ChunkEmbedding pairs a token chunk with its embedding
type ChunkEmbedding struct {
	Chunk  models.Chunk
	Vector models.Vector
}

// Pipeline turns text into embeddings that never exceed the model's input limit
type Pipeline struct {
	embedder  Embedder
	tokenizer tokenizer.Tokenizer
	cfg       Config
}

// NewPipeline validates cfg and builds a pipeline
func NewPipeline(embedder Embedder, tok tokenizer.Tokenizer, cfg Config) (*Pipeline, error) {
	if embedder == nil || tok == nil {
		return nil, fmt.Errorf("%w: embedder and tokenizer are required", models.ErrInvalidParameter)
	}
	if cfg.CtxLength < 1 {
		return nil, fmt.Errorf("%w: ctx length must be at least one, got %d", models.ErrInvalidParameter, cfg.CtxLength)
	}
	if _, err := chunker.Windows(0, cfg.WordsPerChunk, cfg.Step); err != nil {
		return nil, err
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{embedder: embedder, tokenizer: tok, cfg: cfg}, nil
}

// EmbedChunks batches text into CtxLength token chunks and embeds each one.
// Results keep chunk order. Cancellation is checked before each chunk.
func (p *Pipeline) EmbedChunks(ctx context.Context, text string) ([]ChunkEmbedding, error) {
	chunks, err := chunker.ChunkTokens(p.tokenizer, "", text, p.cfg.CtxLength)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: nothing to embed", models.ErrInvalidInput)
	}

	results := make([]ChunkEmbedding, len(chunks))

	if p.cfg.Concurrency == 1 || len(chunks) == 1 {
		for i, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v, err := p.embedder.EmbedTokens(ctx, chunk.Tokens)
			if err != nil {
				return nil, fmt.Errorf("chunk %d: %w", i, err)
			}
			results[i] = ChunkEmbedding{Chunk: chunk, Vector: v}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := p.embedder.EmbedTokens(gctx, chunk.Tokens)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			results[i] = ChunkEmbedding{Chunk: chunk, Vector: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// LenSafeEmbedding embeds text of any length as one unit vector, pooling
// token chunks weighted by their token counts
func (p *Pipeline) LenSafeEmbedding(ctx context.Context, text string) (models.Vector, error) {
	chunks, err := p.EmbedChunks(ctx, text)
	if err != nil {
		return nil, err
	}
	return pool(chunks)
}

// Embed returns one pooled vector when average is true, otherwise the
// unmodified per-chunk vectors in order
func (p *Pipeline) Embed(ctx context.Context, text string, average bool) ([]models.Vector, error) {
	chunks, err := p.EmbedChunks(ctx, text)
	if err != nil {
		return nil, err
	}
	if average {
		v, err := pool(chunks)
		if err != nil {
			return nil, err
		}
		return []models.Vector{v}, nil
	}
	vectors := make([]models.Vector, len(chunks))
	for i, c := range chunks {
		vectors[i] = c.Vector
	}
	return vectors, nil
}

func pool(embedded []ChunkEmbedding) (models.Vector, error) {
	vectors := make([]models.Vector, len(embedded))
	chunks := make([]models.Chunk, len(embedded))
	for i, e := range embedded {
		vectors[i] = e.Vector
		chunks[i] = e.Chunk
	}
	return Aggregate(vectors, ChunkWeights(chunks))
}

// EmbedDocument embeds a document as overlapping word chunks plus an optional
// summary. Either every record is returned or none are.
func (p *Pipeline) EmbedDocument(ctx context.Context, doc *models.Document, summary string) ([]models.EmbeddingRecord, error) {
	chunks, err := chunker.ChunkWords(doc.ID, doc.Text, p.cfg.WordsPerChunk, p.cfg.Step)
	if err != nil {
		return nil, err
	}
	summary = strings.TrimSpace(summary)
	if len(chunks) == 0 && summary == "" {
		return nil, fmt.Errorf("%w: document %s has no text", models.ErrInvalidInput, doc.ID)
	}

	log := p.cfg.Logger.With().Str("document_id", doc.ID).Logger()
	records := make([]models.EmbeddingRecord, 0, len(chunks)+1)

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if p.cfg.Average {
			v, err := p.LenSafeEmbedding(ctx, chunk.Text)
			if err != nil {
				return nil, fmt.Errorf("document %s chunk %d: %w", doc.ID, chunk.Index, err)
			}
			records = append(records, models.EmbeddingRecord{
				DocumentID:  doc.ID,
				EmbeddingID: models.ChunkEmbeddingID(doc.ID, len(records)),
				Text:        chunk.Text,
				Vector:      v,
			})
			continue
		}

		parts, err := p.EmbedChunks(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("document %s chunk %d: %w", doc.ID, chunk.Index, err)
		}
		for _, part := range parts {
			records = append(records, models.EmbeddingRecord{
				DocumentID:  doc.ID,
				EmbeddingID: models.ChunkEmbeddingID(doc.ID, len(records)),
				Text:        part.Chunk.Text,
				Vector:      part.Vector,
			})
		}
	}
	log.Debug().Int("chunks", len(chunks)).Int("records", len(records)).Msg("embedded document chunks")

	if summary != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := p.LenSafeEmbedding(ctx, summary)
		if err != nil {
			return nil, fmt.Errorf("document %s summary: %w", doc.ID, err)
		}
		records = append(records, models.EmbeddingRecord{
			DocumentID:  doc.ID,
			EmbeddingID: models.SummaryEmbeddingID(doc.ID),
			Text:        summary,
			Vector:      v,
		})
		log.Debug().Msg("embedded document summary")
	}

	return records, nil
}
