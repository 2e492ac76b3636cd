package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/deepgraph/backend/pkg/ai"

	"google.golang.org/genai"
)

func (c *GraphGeminiClient) config(options ai.GenerateOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(options.Temperature)),
	}
	if len(options.SystemPrompts) > 0 {
		parts := make([]*genai.Part, 0, len(options.SystemPrompts))
		for _, sp := range options.SystemPrompts {
			parts = append(parts, genai.NewPartFromText(sp))
		}
		cfg.SystemInstruction = &genai.Content{Parts: parts}
	}
	if budget, ok := thinkingBudgets[options.Thinking]; ok {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(budget)}
	}
	return cfg
}

// thinkingBudgets maps reasoning effort names onto Gemini token budgets.
var thinkingBudgets = map[string]int32{
	"minimal": 0,
	"low":     1024,
	"medium":  4096,
	"high":    16384,
}

func (c *GraphGeminiClient) generate(
	ctx context.Context,
	model string,
	prompt string,
	cfg *genai.GenerateContentConfig,
) (string, error) {
	start := time.Now()
	resp, err := c.Client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", ai.CallError(err)
	}

	metrics := ai.ModelMetrics{DurationMs: time.Since(start).Milliseconds()}
	if usage := resp.UsageMetadata; usage != nil {
		metrics.InputTokens = int(usage.PromptTokenCount)
		metrics.OutputTokens = int(usage.CandidatesTokenCount)
		metrics.TotalTokens = int(usage.TotalTokenCount)
	}
	c.Record(metrics)

	text := resp.Text()
	if text == "" {
		return "", ai.CallError(errors.New("empty response from model"))
	}
	return text, nil
}

// GenerateCompletion sends a single-turn prompt and returns the model text.
func (c *GraphGeminiClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.reasoningModel,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}

	return c.generate(ctx, options.Model, prompt, c.config(options))
}

// GenerateCompletionWithFormat requests a JSON answer and unmarshals it into
// out. The schema reflected from out is appended to the system instruction
// because Gemini's native schema dialect is narrower than JSON Schema.
func (c *GraphGeminiClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	schema, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}
	options.SystemPrompts = append(slices.Clone(options.SystemPrompts),
		"Respond with a single JSON object named "+name+" ("+description+") matching this JSON schema:\n"+string(schema))

	cfg := c.config(options)
	cfg.ResponseMIMEType = "application/json"

	text, err := c.generate(ctx, options.Model, prompt, cfg)
	if err != nil {
		return err
	}
	if err := ai.UnmarshalFlexible(text, out); err != nil {
		return ai.SchemaError(err)
	}
	return nil
}
