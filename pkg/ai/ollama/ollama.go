package ollama

import (
	"net/http"
	"net/url"

	"github.com/deepgraph/backend/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// GraphOllamaClient implements the ai.GraphAIClient interface using Ollama as the backend.
// Requests are bounded by a weighted semaphore so a pool of extraction workers
// cannot overload a single local model server.
type GraphOllamaClient struct {
	ai.MetricsRecorder

	extractionModel string
	reasoningModel  string

	reqLock *semaphore.Weighted
	count   func(string) int

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	ExtractionModel string
	ReasoningModel  string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaClient creates a new Ollama-based AI client with the specified configuration.
// It connects to the Ollama server at the given BaseURL (or the default if empty).
func NewGraphOllamaClient(
	params NewGraphOllamaClientParams,
) (*GraphOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	headers := map[string]string{}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}
	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: headers,
			rt:      http.DefaultTransport,
		},
	}

	maxRequests := params.MaxConcurrentRequests
	if maxRequests <= 0 {
		maxRequests = 1
	}

	reasoning := params.ReasoningModel
	if reasoning == "" {
		reasoning = params.ExtractionModel
	}

	return &GraphOllamaClient{
		extractionModel: params.ExtractionModel,
		reasoningModel:  reasoning,
		reqLock:         semaphore.NewWeighted(maxRequests),
		count:           ai.LazyTokenCounter(ai.DefaultEncoding),
		Client:          api.NewClient(u, httpClient),
	}, nil
}
