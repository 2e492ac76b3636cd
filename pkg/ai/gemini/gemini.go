package gemini

import (
	"context"
	"fmt"

	"github.com/deepgraph/backend/pkg/ai"

	"google.golang.org/genai"
)

// GraphGeminiClient implements ai.GraphAIClient on top of the Gemini API.
type GraphGeminiClient struct {
	ai.MetricsRecorder

	extractionModel string
	reasoningModel  string

	Client *genai.Client
}

// NewGraphGeminiClientParams contains configuration options for creating a new GraphGeminiClient.
type NewGraphGeminiClientParams struct {
	ExtractionModel string
	ReasoningModel  string

	ApiKey string
}

// NewGraphGeminiClient creates a Gemini client using the Gemini Developer API
// backend.
func NewGraphGeminiClient(
	ctx context.Context,
	params NewGraphGeminiClientParams,
) (*GraphGeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  params.ApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	reasoning := params.ReasoningModel
	if reasoning == "" {
		reasoning = params.ExtractionModel
	}

	return &GraphGeminiClient{
		extractionModel: params.ExtractionModel,
		reasoningModel:  reasoning,
		Client:          client,
	}, nil
}
