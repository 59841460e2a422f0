// ABOUTME: Tokenizer adapters converting text to and from model-specific token sequences
// ABOUTME: Used for length measurement and for cutting length-safe chunk boundaries
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultEncoding is the BPE encoding used by the OpenAI embedding models
const DefaultEncoding = "cl100k_base"

// Tokenizer converts text to token ids and back
type Tokenizer interface {
	Name() string
	Encode(text string) ([]int, error)
	Decode(tokens []int) (string, error)
}

// Tiktoken wraps a tiktoken BPE codec
type Tiktoken struct {
	codec tokenizer.Codec
}

// NewTiktoken loads the named BPE encoding (e.g. "cl100k_base")
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	codec, err := tokenizer.Get(tokenizer.Encoding(encoding))
	if err != nil {
		return nil, fmt.Errorf("loading encoding %s: %w", encoding, err)
	}
	return &Tiktoken{codec: codec}, nil
}

// Name returns the encoding name
func (t *Tiktoken) Name() string {
	return t.codec.GetName()
}

// Encode converts text to token ids
func (t *Tiktoken) Encode(text string) ([]int, error) {
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("encoding text: %w", err)
	}
	tokens := make([]int, len(ids))
	for i, id := range ids {
		tokens[i] = int(id)
	}
	return tokens, nil
}

// Decode converts token ids back to text
func (t *Tiktoken) Decode(tokens []int) (string, error) {
	ids := make([]uint, len(tokens))
	for i, tok := range tokens {
		if tok < 0 {
			return "", fmt.Errorf("decoding tokens: negative token id %d at %d", tok, i)
		}
		ids[i] = uint(tok)
	}
	text, err := t.codec.Decode(ids)
	if err != nil {
		return "", fmt.Errorf("decoding tokens: %w", err)
	}
	return text, nil
}

// Words treats each whitespace-separated word as one unit.
// Token ids index into the vocabulary built up by Encode calls.
type Words struct {
	vocab []string
	ids   map[string]int
}

// NewWords creates a word-unit tokenizer
func NewWords() *Words {
	return &Words{ids: make(map[string]int)}
}

// Name returns "words"
func (w *Words) Name() string {
	return "words"
}

// Encode splits on whitespace and assigns each distinct word an id
func (w *Words) Encode(text string) ([]int, error) {
	fields := strings.Fields(text)
	tokens := make([]int, len(fields))
	for i, f := range fields {
		id, ok := w.ids[f]
		if !ok {
			id = len(w.vocab)
			w.vocab = append(w.vocab, f)
			w.ids[f] = id
		}
		tokens[i] = id
	}
	return tokens, nil
}

// Decode joins the words for the given ids with single spaces
func (w *Words) Decode(tokens []int) (string, error) {
	words := make([]string, len(tokens))
	for i, tok := range tokens {
		if tok < 0 || tok >= len(w.vocab) {
			return "", fmt.Errorf("decoding tokens: unknown word id %d", tok)
		}
		words[i] = w.vocab[tok]
	}
	return strings.Join(words, " "), nil
}

// Count returns the number of tokens in text
func Count(t Tokenizer, text string) (int, error) {
	tokens, err := t.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(tokens), nil
}
