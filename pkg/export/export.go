// Package export writes pipeline results as a JSON graph document and a
// Markdown report, either to a directory or to an S3 bucket.
package export

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/common"
	"github.com/deepgraph/backend/pkg/graph"
)

const (
	graphSuffix  = "_graph.json"
	reportSuffix = "_report.md"
)

// Document is the exported form of one run.
type Document struct {
	File            string                   `json:"file"`
	RunID           string                   `json:"run_id"`
	Status          graph.Status             `json:"status"`
	Reason          string                   `json:"reason,omitempty"`
	TextLength      int                      `json:"text_length"`
	Chunks          int                      `json:"chunks"`
	FailedChunks    int                      `json:"failed_chunks"`
	Entities        []common.Entity          `json:"entities"`
	Events          []common.Event           `json:"events"`
	Relations       []common.Relation        `json:"relations"`
	Nodes           []common.Node            `json:"nodes"`
	Edges           []common.Edge            `json:"edges"`
	Quarantine      *common.QuarantineBucket `json:"quarantine"`
	LinkedRelations []common.Relation        `json:"linked_relations"`
	Retained        []common.NodeSummary     `json:"retained"`
	Stats           graph.Stats              `json:"stats"`
	Metrics         ai.ModelMetrics          `json:"metrics"`
	ProcessedAt     time.Time                `json:"processed_at"`
}

// NewDocument converts a result into its exported form. Collections are
// never null in the JSON output.
func NewDocument(res *graph.Result) Document {
	return Document{
		File:            res.Name,
		RunID:           res.RunID,
		Status:          res.Status,
		Reason:          res.Reason,
		TextLength:      res.TextLength,
		Chunks:          res.Chunks,
		FailedChunks:    res.FailedChunks,
		Entities:        orEmpty(res.Graph.Entities),
		Events:          orEmpty(res.Graph.Events),
		Relations:       orEmpty(res.Graph.Relations),
		Nodes:           orEmpty(res.Graph.Nodes),
		Edges:           orEmpty(res.Graph.Edges),
		Quarantine:      res.Graph.Quarantine,
		LinkedRelations: orEmpty(res.LinkedRelations),
		Retained:        orEmpty(res.Retained),
		Stats:           res.Stats,
		Metrics:         res.Metrics,
		ProcessedAt:     res.ProcessedAt,
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Marshal renders the graph document as indented JSON.
func Marshal(res *graph.Result) ([]byte, error) {
	return json.MarshalIndent(NewDocument(res), "", "  ")
}

// Location names where the two artifacts of a run were written.
type Location struct {
	Graph  string `json:"graph"`
	Report string `json:"report"`
}

// Exporter persists the artifacts of a run.
type Exporter interface {
	Export(ctx context.Context, res *graph.Result) (Location, error)
}

var unsafeChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// BaseName returns a file system safe base name for a result. It falls back
// to the run id when the document has no usable name.
func BaseName(res *graph.Result) string {
	name := strings.TrimSpace(unsafeChars.ReplaceAllString(res.Name, "_"))
	name = strings.Trim(name, ". ")
	if name == "" {
		return res.RunID
	}
	return name
}
