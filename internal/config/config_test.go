package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepgraph/backend/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphOptionsDefaults(t *testing.T) {
	for _, key := range []string{"CHUNK_MIN_SIZE", "CHUNK_MAX_SIZE", "MIN_WEIGHT", "FOCUS_KEYWORDS", "ORACLE_TIMEOUT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	opts := GraphOptions()
	d := graph.DefaultOptions()
	assert.Equal(t, d.MinChunkSize, opts.MinChunkSize)
	assert.Equal(t, d.MaxChunkSize, opts.MaxChunkSize)
	assert.Equal(t, d.MinWeight, opts.MinWeight)
	assert.Equal(t, d.OracleTimeout, opts.OracleTimeout)
	assert.Empty(t, opts.FocusKeywords)
}

func TestGraphOptionsFromEnv(t *testing.T) {
	t.Setenv("CHUNK_MIN_SIZE", "500")
	t.Setenv("CHUNK_MAX_SIZE", "2000")
	t.Setenv("CHUNK_ENCODER", "o200k_base")
	t.Setenv("BOUNDARY_BUDGET", "0")
	t.Setenv("MIN_WEIGHT", "5")
	t.Setenv("TOP_PER_EVENT", "2")
	t.Setenv("SPARSE_THRESHOLD", "2")
	t.Setenv("FOCUS_KEYWORDS", "strike, union ,,")
	t.Setenv("MAX_WORKERS", "3")
	t.Setenv("ORACLE_TIMEOUT", "45s")
	t.Setenv("ORACLE_MAX_RETRIES", "4")
	t.Setenv("MIN_TEXT_LENGTH", "50")

	opts := GraphOptions()
	assert.Equal(t, 500, opts.MinChunkSize)
	assert.Equal(t, 2000, opts.MaxChunkSize)
	assert.Equal(t, "o200k_base", opts.TokenEncoder)
	assert.Equal(t, 0, opts.BoundaryBudget)
	assert.Equal(t, 5, opts.MinWeight)
	assert.Equal(t, 2, opts.TopPerEvent)
	assert.Equal(t, 2, opts.SparseThreshold)
	assert.Equal(t, []string{"strike", "union"}, opts.FocusKeywords)
	assert.Equal(t, 3, opts.MaxWorkers)
	assert.Equal(t, 45*time.Second, opts.OracleTimeout)
	assert.Equal(t, 4, opts.MaxRetries)
	assert.Equal(t, 50, opts.MinTextLength)
}

func TestNewGraphClientWithPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(`quarantine_label = "Held back"`), 0o600))

	cfg := Config{Graph: graph.DefaultOptions(), PolicyFile: path}
	client, err := cfg.NewGraphClient()
	require.NoError(t, err)
	assert.Equal(t, "Held back", client.Policy().QuarantineLabel)

	cfg.PolicyFile = filepath.Join(t.TempDir(), "missing.toml")
	_, err = cfg.NewGraphClient()
	assert.Error(t, err)
}

func TestNewAIClient(t *testing.T) {
	ctx := context.Background()

	_, err := Config{AI: AIConfig{Adapter: "openai"}}.NewAIClient(ctx)
	assert.Error(t, err)

	_, err = Config{AI: AIConfig{Adapter: "unknown", ExtractionModel: "m"}}.NewAIClient(ctx)
	assert.ErrorContains(t, err, "unknown AI_ADAPTER")

	client, err := Config{AI: AIConfig{Adapter: "openai", ExtractionModel: "m", URL: "http://localhost:1/v1", Key: "k"}}.NewAIClient(ctx)
	require.NoError(t, err)
	assert.NotNil(t, client)

	client, err = Config{AI: AIConfig{Adapter: "ollama", ExtractionModel: "m", URL: "http://localhost:11434", MaxConcurrent: 1}}.NewAIClient(ctx)
	require.NoError(t, err)
	assert.NotNil(t, client)
}
