// ABOUTME: Chunk is a transient contiguous span of a document used as the unit of embedding
// ABOUTME: Length is measured in the units the chunk was cut in (words or tokens)
package models

// Chunk represents a bounded span of a document
type Chunk struct {
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Length     int    `json:"length"`
	Text       string `json:"text"`
	Tokens     []int  `json:"-"`
}
