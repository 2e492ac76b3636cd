package openai

import (
	"github.com/deepgraph/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIClient implements ai.GraphAIClient against any OpenAI compatible
// chat completions endpoint.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	ai.MetricsRecorder

	extractionModel string
	reasoningModel  string

	chatURL string

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for creating
// a new GraphOpenAIClient.
//
// ExtractionModel is used for structured extraction and linking.
// ReasoningModel answers short free-form questions such as boundary checks and
// defaults to ExtractionModel.
// ChatURL and ChatKey configure the chat/completion API endpoint. An empty
// ChatURL means the official OpenAI API.
type NewGraphOpenAIClientParams struct {
	ExtractionModel string
	ReasoningModel  string

	ChatURL string
	ChatKey string
}

// NewGraphOpenAIClient creates and returns a new client configured with the
// provided parameters.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		ExtractionModel: "gpt-4o-mini",
//		ChatKey:         os.Getenv("AI_CHAT_KEY"),
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	reasoning := params.ReasoningModel
	if reasoning == "" {
		reasoning = params.ExtractionModel
	}

	return &GraphOpenAIClient{
		extractionModel: params.ExtractionModel,
		reasoningModel:  reasoning,
		chatURL:         params.ChatURL,
		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
