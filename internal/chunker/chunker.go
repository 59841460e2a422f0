// ABOUTME: Chunker splits word or token streams into fixed-size windows
// ABOUTME: Word windows overlap by window-stride units; token batches never overlap
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harper/newsvec/internal/models"
	"github.com/harper/newsvec/internal/tokenizer"
)

// Span is a half-open [Start, End) range of units
type Span struct {
	Start int
	End   int
}

// Len returns the number of units in the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Windows computes overlapping windows over n units. Each window starts
// window-stride units after the previous one; the last window is clipped
// to n and emitted exactly once.
func Windows(n, window, stride int) ([]Span, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window size must be positive, got %d", models.ErrInvalidParameter, window)
	}
	if stride < 0 {
		return nil, fmt.Errorf("%w: stride must not be negative, got %d", models.ErrInvalidParameter, stride)
	}
	if stride >= window {
		return nil, fmt.Errorf("%w: stride %d must be smaller than window size %d", models.ErrInvalidParameter, stride, window)
	}
	if n <= 0 {
		return nil, nil
	}
	if n <= window {
		return []Span{{Start: 0, End: n}}, nil
	}

	step := window - stride
	var spans []Span
	for start := 0; start < n-stride; start += step {
		end := min(start+window, n)
		spans = append(spans, Span{Start: start, End: end})
		if start+window >= n {
			break
		}
	}
	return spans, nil
}

// ChunkWords splits text on whitespace and returns overlapping word windows
func ChunkWords(documentID, text string, window, stride int) ([]models.Chunk, error) {
	words := strings.Fields(text)
	spans, err := Windows(len(words), window, stride)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = models.Chunk{
			DocumentID: documentID,
			Index:      i,
			Length:     span.Len(),
			Text:       strings.Join(words[span.Start:span.End], " "),
		}
	}
	return chunks, nil
}

// Batch splits tokens into consecutive batches of size; the tail batch may be shorter
func Batch(tokens []int, size int) ([][]int, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: batch size must be at least one, got %d", models.ErrInvalidParameter, size)
	}
	batches := make([][]int, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := min(start+size, len(tokens))
		batches = append(batches, tokens[start:end:end])
	}
	return batches, nil
}

// ChunkTokens encodes text and batches the tokens into chunks of at most size tokens.
// A batch boundary can fall inside a multi-byte character; the partial bytes are
// carried into the next chunk's text so every chunk text is whole characters.
func ChunkTokens(tok tokenizer.Tokenizer, documentID, text string, size int) ([]models.Chunk, error) {
	tokens, err := tok.Encode(text)
	if err != nil {
		return nil, err
	}
	batches, err := Batch(tokens, size)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, len(batches))
	carry := ""
	for i, batch := range batches {
		decoded, err := tok.Decode(batch)
		if err != nil {
			return nil, err
		}
		decoded = carry + decoded
		carry = ""
		if i < len(batches)-1 {
			decoded, carry = splitPartialRune(decoded)
		}
		chunks[i] = models.Chunk{
			DocumentID: documentID,
			Index:      i,
			Length:     len(batch),
			Text:       decoded,
			Tokens:     batch,
		}
	}
	return chunks, nil
}

// splitPartialRune splits an incomplete UTF-8 sequence off the end of s
func splitPartialRune(s string) (string, string) {
	for i := len(s) - 1; i >= 0 && i >= len(s)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if utf8.FullRuneInString(s[i:]) {
			return s, ""
		}
		return s[:i], s[i:]
	}
	return s, ""
}
