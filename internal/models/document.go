// ABOUTME: Document is one ingested text item plus the metadata the pipeline needs
// ABOUTME: Documents are immutable once created; the ID is opaque and stable
package models

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an ingested article or newsletter
type Document struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	URL         string    `json:"url,omitempty" yaml:"url,omitempty"`
	Source      string    `json:"source" yaml:"source"`
	Text        string    `json:"text" yaml:"-"`
	Summary     string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
	AddedAt     time.Time `json:"added_at" yaml:"added_at"`
}

// NewDocument creates a document with a fresh UUID and the current time as AddedAt
func NewDocument(title, source, text string) *Document {
	now := time.Now()
	return &Document{
		ID:          uuid.New().String(),
		Title:       title,
		Source:      source,
		Text:        text,
		PublishedAt: now,
		AddedAt:     now,
	}
}
