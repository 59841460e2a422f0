// ABOUTME: Error taxonomy shared by the chunking, embedding, and aggregation stages
// ABOUTME: Sentinels are matched with errors.Is; UnavailableError carries the last cause
package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is caller misconfiguration, e.g. stride >= window size
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidInput is content the embedding service rejected outright
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbeddingUnavailable means transient failures exhausted every retry
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrDegenerateInput means aggregation produced a zero vector
	ErrDegenerateInput = errors.New("degenerate input")
)

// UnavailableError reports an embedding call that failed on every attempt
type UnavailableError struct {
	Attempts int
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrEmbeddingUnavailable, e.Attempts, e.Err)
}

// Unwrap exposes the last underlying cause
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrEmbeddingUnavailable) match
func (e *UnavailableError) Is(target error) bool {
	return target == ErrEmbeddingUnavailable
}
