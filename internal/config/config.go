// ABOUTME: Centralized configuration for the newsvec CLI and MCP server
// ABOUTME: Loads from environment variables (and an optional .env) with validation and defaults
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the embedding pipeline
type Config struct {
	// OpenAI settings
	OpenAIKey      string        `env:"OPENAI_API_KEY"`
	BaseURL        string        `env:"OPENAI_BASE_URL"`
	EmbeddingModel string        `env:"NEWSVEC_EMBEDDING_MODEL" envDefault:"text-embedding-ada-002"`
	ChatModel      string        `env:"NEWSVEC_CHAT_MODEL" envDefault:"gpt-4o-mini"`
	Timeout        time.Duration `env:"NEWSVEC_TIMEOUT" envDefault:"30s"`

	// Retry and throttling
	MaxAttempts       int           `env:"NEWSVEC_MAX_ATTEMPTS" envDefault:"6"`
	MinWait           time.Duration `env:"NEWSVEC_MIN_WAIT" envDefault:"1s"`
	MaxWait           time.Duration `env:"NEWSVEC_MAX_WAIT" envDefault:"20s"`
	RequestsPerSecond float64       `env:"NEWSVEC_RPS" envDefault:"0"`
	Burst             int           `env:"NEWSVEC_BURST" envDefault:"1"`

	// Chunking
	Encoding      string `env:"NEWSVEC_ENCODING" envDefault:"cl100k_base"`
	CtxLength     int    `env:"NEWSVEC_CTX_LENGTH" envDefault:"200"`
	WordsPerChunk int    `env:"NEWSVEC_WORDS_PER_CHUNK" envDefault:"100"`
	Step          int    `env:"NEWSVEC_STEP" envDefault:"10"`
	Average       bool   `env:"NEWSVEC_AVERAGE" envDefault:"true"`
	Concurrency   int    `env:"NEWSVEC_CONCURRENCY" envDefault:"1"`

	// Storage and retrieval
	DBPath           string `env:"NEWSVEC_DB_PATH"`
	RecentDays       int    `env:"NEWSVEC_RECENT_DAYS" envDefault:"0"`
	SummaryMaxTokens int    `env:"NEWSVEC_SUMMARY_MAX_TOKENS" envDefault:"3500"`

	// Logging
	LogLevel  string `env:"NEWSVEC_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"NEWSVEC_LOG_FORMAT" envDefault:"console"`
}

// Load reads .env if present, then the process environment
func Load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFrom parses configuration from an explicit variable map, ignoring the process environment
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges and cross-field constraints
func (c *Config) Validate() error {
	var errs []error
	if c.MaxAttempts < 1 || c.MaxAttempts > 10 {
		errs = append(errs, fmt.Errorf("NEWSVEC_MAX_ATTEMPTS must be 1-10, got %d", c.MaxAttempts))
	}
	if c.MinWait < 0 || c.MinWait > c.MaxWait {
		errs = append(errs, fmt.Errorf("NEWSVEC_MIN_WAIT (%v) must be between 0 and NEWSVEC_MAX_WAIT (%v)", c.MinWait, c.MaxWait))
	}
	if c.CtxLength < 1 {
		errs = append(errs, fmt.Errorf("NEWSVEC_CTX_LENGTH must be positive, got %d", c.CtxLength))
	}
	if c.WordsPerChunk < 1 {
		errs = append(errs, fmt.Errorf("NEWSVEC_WORDS_PER_CHUNK must be positive, got %d", c.WordsPerChunk))
	}
	if c.Step < 0 || c.Step >= c.WordsPerChunk {
		errs = append(errs, fmt.Errorf("NEWSVEC_STEP must be in [0, NEWSVEC_WORDS_PER_CHUNK), got %d", c.Step))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("NEWSVEC_CONCURRENCY must be at least 1, got %d", c.Concurrency))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("NEWSVEC_RPS must not be negative, got %v", c.RequestsPerSecond))
	}
	if c.RecentDays < 0 {
		errs = append(errs, fmt.Errorf("NEWSVEC_RECENT_DAYS must not be negative, got %d", c.RecentDays))
	}
	if c.SummaryMaxTokens < 1 {
		errs = append(errs, fmt.Errorf("NEWSVEC_SUMMARY_MAX_TOKENS must be positive, got %d", c.SummaryMaxTokens))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("NEWSVEC_LOG_FORMAT must be console or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// RequireAPIKey reports a missing OpenAI key for commands that call the API
func (c *Config) RequireAPIKey() error {
	if c.OpenAIKey == "" {
		return errors.New("OPENAI_API_KEY environment variable not set")
	}
	return nil
}
