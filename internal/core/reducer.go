// ABOUTME: Span reducer that shrinks long text under a token budget by halving and summarizing
// ABOUTME: Iterates rounds over a span queue instead of recursing, and stops after MaxRounds
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/harper/newsvec/internal/models"
	"github.com/harper/newsvec/internal/tokenizer"
)

const (
	// DefaultMaxTokens is the token budget a reduced text must fit
	DefaultMaxTokens = 3500
	// DefaultMaxRounds bounds halve-and-summarize passes
	DefaultMaxRounds = 8
)

// Summarizer shortens a span of text to roughly half its length
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Reducer shrinks text until it fits MaxTokens
type Reducer struct {
	summarizer Summarizer
	tokenizer  tokenizer.Tokenizer
	maxTokens  int
	maxRounds  int
	logger     zerolog.Logger
}

// NewReducer creates a Reducer. Non-positive limits fall back to the defaults.
func NewReducer(summarizer Summarizer, tok tokenizer.Tokenizer, maxTokens, maxRounds int, logger zerolog.Logger) *Reducer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Reducer{
		summarizer: summarizer,
		tokenizer:  tok,
		maxTokens:  maxTokens,
		maxRounds:  maxRounds,
		logger:     logger.With().Str("component", "reducer").Logger(),
	}
}

// Reduce returns text unchanged when it fits the budget. Otherwise each round
// splits the text at its rune midpoint, summarizes both halves in order, and
// joins the summaries with a blank line.
func (r *Reducer) Reduce(ctx context.Context, text string) (string, error) {
	for round := 1; ; round++ {
		n, err := tokenizer.Count(r.tokenizer, text)
		if err != nil {
			return "", err
		}
		if n <= r.maxTokens {
			return text, nil
		}
		if round > r.maxRounds {
			return "", fmt.Errorf("%w: text still %d tokens after %d rounds (budget %d)", models.ErrDegenerateInput, n, r.maxRounds, r.maxTokens)
		}

		r.logger.Debug().Int("round", round).Int("tokens", n).Int("budget", r.maxTokens).Msg("halving text")

		queue := splitHalves(text)
		summaries := make([]string, 0, len(queue))
		for len(queue) > 0 {
			span := queue[0]
			queue = queue[1:]
			if err := ctx.Err(); err != nil {
				return "", err
			}
			s, err := r.summarizer.Summarize(ctx, span)
			if err != nil {
				return "", fmt.Errorf("round %d: %w", round, err)
			}
			summaries = append(summaries, s)
		}
		text = strings.Join(summaries, "\n\n")
	}
}

// Digest reduces text to the budget and then summarizes it once more,
// producing a summary suitable for a document-level embedding
func (r *Reducer) Digest(ctx context.Context, text string) (string, error) {
	reduced, err := r.Reduce(ctx, text)
	if err != nil {
		return "", err
	}
	return r.summarizer.Summarize(ctx, reduced)
}

func splitHalves(text string) []string {
	runes := []rune(text)
	mid := len(runes) / 2
	return []string{string(runes[:mid]), string(runes[mid:])}
}
