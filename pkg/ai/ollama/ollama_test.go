package ollama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraphOllamaClient(t *testing.T) {
	client, err := NewGraphOllamaClient(NewGraphOllamaClientParams{
		ExtractionModel: "qwen3",
		BaseURL:         "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.Equal(t, "qwen3", client.reasoningModel)
	assert.NotNil(t, client.count)

	_, err = NewGraphOllamaClient(NewGraphOllamaClientParams{BaseURL: "http://[::1"})
	assert.Error(t, err)
}
