// ABOUTME: Tests for the span reducer
// ABOUTME: Verifies budget checks, halving rounds, round limits, and cancellation

package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/harper/newsvec/internal/models"
	"github.com/harper/newsvec/internal/tokenizer"
)

// halvingSummarizer keeps the first half of the words in each span
type halvingSummarizer struct {
	spans []string
	err   error
}

func (h *halvingSummarizer) Summarize(_ context.Context, text string) (string, error) {
	h.spans = append(h.spans, text)
	if h.err != nil {
		return "", h.err
	}
	fields := strings.Fields(text)
	return strings.Join(fields[:(len(fields)+1)/2], " "), nil
}

// echoSummarizer never shortens anything
type echoSummarizer struct{ calls int }

func (e *echoSummarizer) Summarize(_ context.Context, text string) (string, error) {
	e.calls++
	return text, nil
}

func wordText(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "word"
	}
	return strings.Join(w, " ")
}

func TestReduceWithinBudgetIsUnchanged(t *testing.T) {
	s := &halvingSummarizer{}
	r := NewReducer(s, tokenizer.NewWords(), 10, 0, zerolog.Nop())

	text := wordText(10)
	got, err := r.Reduce(context.Background(), text)
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if got != text {
		t.Errorf("Reduce() = %q, want unchanged", got)
	}
	if len(s.spans) != 0 {
		t.Errorf("summarizer called %d times, want 0", len(s.spans))
	}
}

func TestReduceHalvesUntilUnderBudget(t *testing.T) {
	s := &halvingSummarizer{}
	tok := tokenizer.NewWords()
	r := NewReducer(s, tok, 10, 0, zerolog.Nop())

	got, err := r.Reduce(context.Background(), wordText(40))
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	n, _ := tokenizer.Count(tok, got)
	if n > 10 {
		t.Errorf("reduced text has %d tokens, want <= 10", n)
	}
	if !strings.Contains(got, "\n\n") {
		t.Errorf("reduced text %q should join halves with a blank line", got)
	}
	if len(s.spans)%2 != 0 || len(s.spans) < 2 {
		t.Errorf("summarizer called %d times, want an even number of half spans", len(s.spans))
	}
}

func TestReduceSplitsAtRuneMidpoint(t *testing.T) {
	halves := splitHalves("héllo wörld")
	if len(halves) != 2 {
		t.Fatalf("splitHalves() returned %d spans", len(halves))
	}
	if halves[0]+halves[1] != "héllo wörld" {
		t.Errorf("halves %q do not rejoin to the input", halves)
	}
	if halves[0] != "héllo" {
		t.Errorf("first half = %q, want héllo", halves[0])
	}
}

func TestReduceStopsAfterMaxRounds(t *testing.T) {
	s := &echoSummarizer{}
	r := NewReducer(s, tokenizer.NewWords(), 5, 3, zerolog.Nop())

	_, err := r.Reduce(context.Background(), wordText(20))
	if !errors.Is(err, models.ErrDegenerateInput) {
		t.Fatalf("Reduce() error = %v, want ErrDegenerateInput", err)
	}
	if s.calls != 6 {
		t.Errorf("summarizer called %d times, want 6", s.calls)
	}
}

func TestReducePropagatesSummarizerError(t *testing.T) {
	boom := errors.New("boom")
	r := NewReducer(&halvingSummarizer{err: boom}, tokenizer.NewWords(), 5, 0, zerolog.Nop())

	_, err := r.Reduce(context.Background(), wordText(20))
	if !errors.Is(err, boom) {
		t.Errorf("Reduce() error = %v, want boom", err)
	}
}

func TestReduceHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &halvingSummarizer{}
	r := NewReducer(s, tokenizer.NewWords(), 5, 0, zerolog.Nop())
	_, err := r.Reduce(ctx, wordText(20))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Reduce() error = %v, want context.Canceled", err)
	}
	if len(s.spans) != 0 {
		t.Errorf("summarizer called %d times after cancellation", len(s.spans))
	}
}

func TestDigestSummarizesReducedText(t *testing.T) {
	s := &halvingSummarizer{}
	r := NewReducer(s, tokenizer.NewWords(), 100, 0, zerolog.Nop())

	got, err := r.Digest(context.Background(), wordText(8))
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	if got != wordText(4) {
		t.Errorf("Digest() = %q, want four words", got)
	}
	if len(s.spans) != 1 {
		t.Errorf("summarizer called %d times, want 1", len(s.spans))
	}
}
