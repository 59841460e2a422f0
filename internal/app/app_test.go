// ABOUTME: Tests for component wiring from configuration
// ABOUTME: Uses a temporary database path; no network calls are made
package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/newsvec/internal/config"
)

func testConfig(t *testing.T, extra map[string]string) *config.Config {
	t.Helper()
	environ := map[string]string{
		"NEWSVEC_DB_PATH": filepath.Join(t.TempDir(), "newsvec.db"),
	}
	for k, v := range extra {
		environ[k] = v
	}
	cfg, err := config.LoadFrom(environ)
	require.NoError(t, err)
	return cfg
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(testConfig(t, nil), zerolog.Nop())
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestNewWiresComponents(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"OPENAI_API_KEY":      "sk-test",
		"NEWSVEC_RECENT_DAYS": "3",
	})

	a, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.NotNil(t, a.Store)
	assert.NotNil(t, a.Pipeline)
	assert.NotNil(t, a.Retriever)
	assert.NotNil(t, a.Ingestor)
	assert.Equal(t, "text-embedding-ada-002", a.Client.Model())
	assert.Equal(t, "cl100k_base", a.Tokenizer.Name())

	f := a.DefaultFilter()
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -3), f.Since, time.Minute)
}

func TestConfigMapping(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"OPENAI_API_KEY":          "sk-test",
		"NEWSVEC_MAX_ATTEMPTS":    "3",
		"NEWSVEC_RPS":             "5",
		"NEWSVEC_WORDS_PER_CHUNK": "40",
		"NEWSVEC_STEP":            "4",
		"NEWSVEC_CONCURRENCY":     "2",
	})

	cc := ClientConfig(cfg, zerolog.Nop())
	assert.Equal(t, 3, cc.MaxAttempts)
	assert.Equal(t, 5.0, cc.RequestsPerSecond)
	assert.Equal(t, time.Second, cc.MinWait)

	pc := PipelineConfig(cfg, zerolog.Nop())
	assert.Equal(t, 40, pc.WordsPerChunk)
	assert.Equal(t, 4, pc.Step)
	assert.Equal(t, 2, pc.Concurrency)
	assert.True(t, pc.Average)
}

func TestDBPathDefault(t *testing.T) {
	assert.Equal(t, "/tmp/x.db", DBPath(&config.Config{DBPath: "/tmp/x.db"}))
	assert.Equal(t, "newsvec.db", filepath.Base(DBPath(&config.Config{})))
}
