// ABOUTME: Embedding records, their identifier scheme, and the textual vector format
// ABOUTME: Vectors round-trip through a strict numeric-list parser, never evaluated
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vector is a fixed-length embedding from a single model
type Vector []float64

// RecordKind distinguishes chunk embeddings from whole-document summary embeddings
type RecordKind string

const (
	KindChunk   RecordKind = "chunk"
	KindSummary RecordKind = "summary"
)

// EmbeddingRecord is one row of the append-only embedding store
type EmbeddingRecord struct {
	DocumentID  string `json:"document_id" yaml:"document_id"`
	EmbeddingID string `json:"embedding_id" yaml:"embedding_id"`
	Text        string `json:"text" yaml:"text"`
	Vector      Vector `json:"vector" yaml:"-"`
}

// SearchResult pairs a stored record with its similarity to the query
type SearchResult struct {
	Record     EmbeddingRecord `json:"record"`
	Similarity float64         `json:"similarity"`
}

// ChunkEmbeddingID returns "{documentID}_embedding-{n}"
func ChunkEmbeddingID(documentID string, n int) string {
	return fmt.Sprintf("%s_embedding-%d", documentID, n)
}

// SummaryEmbeddingID returns "{documentID}_embedding-summary"
func SummaryEmbeddingID(documentID string) string {
	return documentID + "_embedding-summary"
}

// Kind derives the record kind from its embedding ID suffix
func (r EmbeddingRecord) Kind() RecordKind {
	if strings.HasSuffix(r.EmbeddingID, "_embedding-summary") {
		return KindSummary
	}
	return KindChunk
}

// ValidateDimension checks that the vector is non-empty and has the expected length
func (r EmbeddingRecord) ValidateDimension(expected int) error {
	if len(r.Vector) == 0 {
		return fmt.Errorf("embedding %s: vector cannot be empty", r.EmbeddingID)
	}
	if len(r.Vector) != expected {
		return fmt.Errorf("embedding %s: dimension mismatch: expected %d, got %d", r.EmbeddingID, expected, len(r.Vector))
	}
	return nil
}

// FormatVector renders a vector as a bracketed, comma-separated list of floats
func FormatVector(v Vector) string {
	var b strings.Builder
	b.Grow(len(v) * 12)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

var errNotAList = errors.New("not a numeric list")

// ParseVector parses the output of FormatVector (or any JSON numeric array).
// Anything other than a bracketed list of finite numbers is rejected.
func ParseVector(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("parse vector: %w", errNotAList)
	}
	var v []float64
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("parse vector: %w", err)
	}
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("parse vector: element %d is not finite", i)
		}
	}
	return Vector(v), nil
}
