package graph

import (
	"time"

	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/common"
)

// Status is the terminal state of a pipeline run.
type Status string

const (
	// StatusCompleted means a graph with at least one relation was produced.
	StatusCompleted Status = "completed"
	// StatusInputTooShort means the document was below the minimum length.
	StatusInputTooShort Status = "input_too_short"
	// StatusEmptyResult means no relation survived pruning.
	StatusEmptyResult Status = "empty_result"
)

// Document is the input of one pipeline run.
type Document struct {
	Name string
	Text string
	// Context is passed to every extraction call. Empty means a context
	// derived from Name.
	Context string
	// OnProgress is called as extraction tasks finish. Advisory only.
	OnProgress func(done, total int) `json:"-"`
}

// Result is the outcome of ProcessDocument. Graph is only populated when
// Status is StatusCompleted; Reason explains the other states.
type Result struct {
	RunID      string `json:"run_id"`
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Reason     string `json:"reason,omitempty"`
	TextLength int    `json:"text_length"`

	Graph common.Graph `json:"graph"`
	Stats Stats        `json:"stats"`

	Chunks          int                  `json:"chunks"`
	FailedChunks    int                  `json:"failed_chunks"`
	OrphanRelations int                  `json:"orphan_relations"`
	LinkedRelations []common.Relation    `json:"linked_relations"`
	Retained        []common.NodeSummary `json:"retained"`
	Metrics         ai.ModelMetrics      `json:"metrics"`
	ProcessedAt     time.Time            `json:"processed_at"`
}

// pipelineState is threaded through the sequential stages. Every stage takes
// a state by value and returns a new one; no stage mutates the slices it
// received.
type pipelineState struct {
	doc     Document
	chunks  []common.Chunk
	batches []common.Batch
	failed  int

	entities  []common.Entity
	events    []common.Event
	relations []common.Relation
	orphans   []common.Relation

	pruned []common.Relation
	stats  Stats

	sparse SparseResult
}
