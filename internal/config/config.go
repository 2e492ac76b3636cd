// Package config builds the pipeline and backend clients from environment
// variables.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/ai/gemini"
	"github.com/deepgraph/backend/pkg/ai/ollama"
	"github.com/deepgraph/backend/pkg/ai/openai"
	"github.com/deepgraph/backend/pkg/graph"
)

// AIConfig selects and configures the oracle backend.
type AIConfig struct {
	Adapter         string
	ExtractionModel string
	ReasoningModel  string
	URL             string
	Key             string
	MaxConcurrent   int64
}

// Config is everything a command needs to run the pipeline.
type Config struct {
	Graph      graph.Options
	PolicyFile string
	AI         AIConfig
}

// Load reads the configuration. Unset or unparsable values fall back to
// graph.DefaultOptions.
func Load() Config {
	return Config{
		Graph:      GraphOptions(),
		PolicyFile: util.GetEnv("POLICY_FILE"),
		AI: AIConfig{
			Adapter:         strings.ToLower(util.GetEnvString("AI_ADAPTER", "openai")),
			ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),
			ReasoningModel:  util.GetEnv("AI_CHAT_REASONING_MODEL"),
			URL:             util.GetEnv("AI_CHAT_URL"),
			Key:             util.GetEnv("AI_CHAT_KEY"),
			MaxConcurrent:   int64(util.GetEnvInt("AI_MAX_CONCURRENT", 4)),
		},
	}
}

// GraphOptions reads the pipeline options.
func GraphOptions() graph.Options {
	d := graph.DefaultOptions()
	return graph.Options{
		MinChunkSize:    util.GetEnvInt("CHUNK_MIN_SIZE", d.MinChunkSize),
		MaxChunkSize:    util.GetEnvInt("CHUNK_MAX_SIZE", d.MaxChunkSize),
		TokenEncoder:    util.GetEnvString("CHUNK_ENCODER", d.TokenEncoder),
		BoundaryBudget:  util.GetEnvInt("BOUNDARY_BUDGET", d.BoundaryBudget),
		MinWeight:       util.GetEnvInt("MIN_WEIGHT", d.MinWeight),
		TopPerEvent:     util.GetEnvInt("TOP_PER_EVENT", d.TopPerEvent),
		SparseThreshold: util.GetEnvInt("SPARSE_THRESHOLD", d.SparseThreshold),
		FocusKeywords:   util.GetEnvList("FOCUS_KEYWORDS"),
		MaxWorkers:      util.GetEnvInt("MAX_WORKERS", d.MaxWorkers),
		OracleTimeout:   util.GetEnvDuration("ORACLE_TIMEOUT", d.OracleTimeout),
		MaxRetries:      util.GetEnvInt("ORACLE_MAX_RETRIES", d.MaxRetries),
		MinTextLength:   util.GetEnvInt("MIN_TEXT_LENGTH", d.MinTextLength),
		ContextCap:      util.GetEnvInt("LINK_CONTEXT_CAP", d.ContextCap),
		LinkBatchSize:   util.GetEnvInt("LINK_BATCH_SIZE", d.LinkBatchSize),
		LinkModel:       util.GetEnv("LINK_MODEL"),
		LinkThinking:    util.GetEnv("LINK_THINKING"),
	}
}

// NewGraphClient loads the policy file, if any, and creates the pipeline
// client.
func (c Config) NewGraphClient() (*graph.GraphClient, error) {
	policy, err := graph.LoadPolicy(c.PolicyFile)
	if err != nil {
		return nil, err
	}
	return graph.NewGraphClient(graph.NewGraphClientParams{
		Options: c.Graph,
		Policy:  policy,
	})
}

// NewAIClient creates the oracle client named by AI.Adapter.
func (c Config) NewAIClient(ctx context.Context) (ai.GraphAIClient, error) {
	if c.AI.ExtractionModel == "" {
		return nil, fmt.Errorf("AI_CHAT_EXTRACT_MODEL is not set")
	}

	switch c.AI.Adapter {
	case "ollama":
		return ollama.NewGraphOllamaClient(ollama.NewGraphOllamaClientParams{
			ExtractionModel:       c.AI.ExtractionModel,
			ReasoningModel:        c.AI.ReasoningModel,
			BaseURL:               c.AI.URL,
			ApiKey:                c.AI.Key,
			MaxConcurrentRequests: c.AI.MaxConcurrent,
		})
	case "gemini":
		return gemini.NewGraphGeminiClient(ctx, gemini.NewGraphGeminiClientParams{
			ExtractionModel: c.AI.ExtractionModel,
			ReasoningModel:  c.AI.ReasoningModel,
			ApiKey:          c.AI.Key,
		})
	case "openai", "":
		return openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
			ExtractionModel: c.AI.ExtractionModel,
			ReasoningModel:  c.AI.ReasoningModel,
			ChatURL:         c.AI.URL,
			ChatKey:         c.AI.Key,
		}), nil
	}
	return nil, fmt.Errorf("unknown AI_ADAPTER %q", c.AI.Adapter)
}
