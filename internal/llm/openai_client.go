// ABOUTME: OpenAI client for embeddings and span summarization with bounded retry
// ABOUTME: Malformed requests fail fast as ErrInvalidInput; transient errors retry with backoff
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/harper/newsvec/internal/models"
	"github.com/harper/newsvec/internal/util"
)

const (
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultChatModel is the default model for summarization
	DefaultChatModel = "gpt-4o-mini"
	// DefaultMaxAttempts is the attempt ceiling per call, including the first try
	DefaultMaxAttempts = 6
	// DefaultMinWait and DefaultMaxWait bound the wait between attempts
	DefaultMinWait = time.Second
	DefaultMaxWait = 20 * time.Second
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel openai.EmbeddingModel
	ChatModel      string
	MaxAttempts    int
	MinWait        time.Duration
	MaxWait        time.Duration
	Timeout        time.Duration

	// RequestsPerSecond throttles outgoing calls; zero disables throttling
	RequestsPerSecond float64
	Burst             int

	Logger zerolog.Logger
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		EmbeddingModel: DefaultEmbeddingModel,
		ChatModel:      DefaultChatModel,
		MaxAttempts:    DefaultMaxAttempts,
		MinWait:        DefaultMinWait,
		MaxWait:        DefaultMaxWait,
		Timeout:        30 * time.Second,
		Logger:         zerolog.Nop(),
	}
}

type embeddingsAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	embeddings     embeddingsAPI
	chat           chatAPI
	embeddingModel openai.EmbeddingModel
	chatModel      string
	maxAttempts    int
	minWait        time.Duration
	maxWait        time.Duration
	timeout        time.Duration
	limiter        *rate.Limiter
	logger         zerolog.Logger

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", models.ErrInvalidParameter)
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	client := openai.NewClientWithConfig(oc)

	return newClient(client, client, config)
}

func newClient(embeddings embeddingsAPI, chat chatAPI, config *ClientConfig) (*OpenAIClient, error) {
	c := &OpenAIClient{
		embeddings:     embeddings,
		chat:           chat,
		embeddingModel: config.EmbeddingModel,
		chatModel:      config.ChatModel,
		maxAttempts:    config.MaxAttempts,
		minWait:        config.MinWait,
		maxWait:        config.MaxWait,
		timeout:        config.Timeout,
		logger:         config.Logger,
		sleep:          util.Sleep,
	}
	if c.embeddingModel == "" {
		c.embeddingModel = DefaultEmbeddingModel
	}
	if c.chatModel == "" {
		c.chatModel = DefaultChatModel
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.minWait > c.maxWait {
		return nil, fmt.Errorf("%w: min wait %v exceeds max wait %v", models.ErrInvalidParameter, c.minWait, c.maxWait)
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), max(config.Burst, 1))
	}
	return c, nil
}

// Model returns the embedding model name
func (c *OpenAIClient) Model() string {
	return string(c.embeddingModel)
}

// Embed returns the embedding for a text string
func (c *OpenAIClient) Embed(ctx context.Context, text string) (models.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", models.ErrInvalidInput)
	}
	return c.createEmbedding(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: c.embeddingModel,
	})
}

// EmbedTokens returns the embedding for a pre-tokenized input
func (c *OpenAIClient) EmbedTokens(ctx context.Context, tokens []int) (models.Vector, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: cannot embed empty token list", models.ErrInvalidInput)
	}
	return c.createEmbedding(ctx, openai.EmbeddingRequestTokens{
		Input: [][]int{tokens},
		Model: c.embeddingModel,
	})
}

func (c *OpenAIClient) createEmbedding(ctx context.Context, req openai.EmbeddingRequestConverter) (models.Vector, error) {
	var vector models.Vector

	err := c.withRetry(ctx, "embedding", func(callCtx context.Context) error {
		resp, err := c.embeddings.CreateEmbeddings(callCtx, req)
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return errors.New("no embeddings returned")
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		vector = make(models.Vector, len(embedding32))
		for i, v := range embedding32 {
			vector[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

const (
	summarizeSystemPrompt = "You are an article summariser. Your goal is to reduce the text so it is about half the length."
	summarizeUserPrompt   = "Summarise the following article so it is half the length. Make sure to include detail.\n\nArticle body: %s\n\nOnly output the summary."
)

// Summarize asks the chat model to reduce a text span to about half its length
func (c *OpenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: cannot summarize empty text", models.ErrInvalidInput)
	}

	var summary string
	err := c.withRetry(ctx, "summary", func(callCtx context.Context) error {
		resp, err := c.chat.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: summarizeSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(summarizeUserPrompt, text)},
			},
			Temperature: 0,
			MaxTokens:   1000,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return errors.New("no completion choices returned")
		}
		summary = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	return summary, err
}

// withRetry runs call up to maxAttempts times. Invalid requests are returned
// immediately; the caller's context ends the loop at any point.
func (c *OpenAIClient) withRetry(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := util.RandomExponentialBackoff(c.minWait, c.maxWait, attempt-1)
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := call(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if isInvalidRequest(err) {
			return fmt.Errorf("%w: %s request rejected: %v", models.ErrInvalidInput, op, err)
		}

		lastErr = fmt.Errorf("attempt %d: %w", attempt, err)
		c.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt).Int("max_attempts", c.maxAttempts).Msg("transient failure")
	}

	return &models.UnavailableError{Attempts: c.maxAttempts, Err: lastErr}
}

// isInvalidRequest reports whether the service rejected the request itself:
// malformed input, an unknown model, or an unsupported content type
func isInvalidRequest(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return rejectedStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return rejectedStatus(reqErr.HTTPStatusCode)
	}
	return false
}

func rejectedStatus(code int) bool {
	switch code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnsupportedMediaType:
		return true
	}
	return false
}
