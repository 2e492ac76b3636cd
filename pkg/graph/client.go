package graph

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/deepgraph/backend/pkg/ai"
)

// Options configures one pipeline run.
type Options struct {
	MinChunkSize   int // chunk size after which a boundary may be placed
	MaxChunkSize   int // chunk size a boundary is forced before
	BoundaryBudget int // oracle boundary checks allowed per document

	MinWeight       int      // relations at or above this weight always survive pruning
	TopPerEvent     int      // relations kept per event by rank
	SparseThreshold int      // nodes with degree at or below this are sparse
	FocusKeywords   []string // caller supplied keywords scored as extra

	MaxWorkers    int           // parallel extraction calls
	OracleTimeout time.Duration // bound per oracle attempt
	MaxRetries    int           // attempts per extraction call
	MinTextLength int           // documents shorter than this are not processed

	// ContextCap bounds how many existing nodes are listed in linking prompts.
	ContextCap int
	// LinkBatchSize bounds how many orphan or sparse nodes go into one prompt.
	LinkBatchSize int
	// LinkModel and LinkThinking override the model and reasoning effort of
	// orphan and sparse linking calls. Empty keeps the client's defaults.
	LinkModel    string
	LinkThinking string

	// TokenEncoder measures chunk sizes in tiktoken tokens instead of runes
	// when set, e.g. "o200k_base".
	TokenEncoder string
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MinChunkSize:    1500,
		MaxChunkSize:    3500,
		BoundaryBudget:  8,
		MinWeight:       7,
		TopPerEvent:     3,
		SparseThreshold: 1,
		MaxWorkers:      6,
		OracleTimeout:   90 * time.Second,
		MaxRetries:      2,
		MinTextLength:   100,
		ContextCap:      150,
		LinkBatchSize:   40,
	}
}

func (o Options) linkOptions() []ai.GenerateOption {
	var opts []ai.GenerateOption
	if o.LinkModel != "" {
		opts = append(opts, ai.WithModel(o.LinkModel))
	}
	if o.LinkThinking != "" {
		opts = append(opts, ai.WithThinking(o.LinkThinking))
	}
	return opts
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = d.MaxChunkSize
	}
	if o.MinChunkSize < 0 || o.MinChunkSize > o.MaxChunkSize {
		o.MinChunkSize = min(d.MinChunkSize, o.MaxChunkSize)
	}
	if o.BoundaryBudget < 0 {
		o.BoundaryBudget = 0
	}
	if o.TopPerEvent < 0 {
		o.TopPerEvent = 0
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = 1
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 1
	}
	if o.ContextCap <= 0 {
		o.ContextCap = d.ContextCap
	}
	if o.LinkBatchSize <= 0 {
		o.LinkBatchSize = d.LinkBatchSize
	}
	return o
}

// GraphClient runs the extraction pipeline. It holds configuration only and
// is safe for concurrent use; every ProcessDocument call owns its state.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	options Options
	policy  *Policy
	measure func(string) int
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient. A nil Policy means DefaultPolicy.
type NewGraphClientParams struct {
	Options Options
	Policy  *Policy
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		Options: graph.DefaultOptions(),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	policy := params.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}

	options := params.Options.normalized()

	measure := utf8.RuneCountInString
	if options.TokenEncoder != "" {
		count, err := ai.TokenCounter(options.TokenEncoder)
		if err != nil {
			return nil, fmt.Errorf("chunk encoder: %w", err)
		}
		measure = count
	}

	return &GraphClient{
		options: options,
		policy:  policy,
		measure: measure,
	}, nil
}

// Options returns a copy of the client's options.
func (g *GraphClient) Options() Options {
	return g.options
}

// Policy returns the client's scoring and quarantine policy.
func (g *GraphClient) Policy() *Policy {
	return g.policy
}

// WithOptions returns a client sharing the policy but using options, for
// per-request overrides.
func (g *GraphClient) WithOptions(options Options) (*GraphClient, error) {
	return NewGraphClient(NewGraphClientParams{Options: options, Policy: g.policy})
}
