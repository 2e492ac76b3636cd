package graph

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/common"
	"github.com/deepgraph/backend/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// ExtractAll runs Extract for every chunk on a pool of MaxWorkers goroutines.
// Each task writes only its own slot of the result slice, so batches come back
// in chunk order whatever the completion order. The only error is ctx's.
func (g *GraphClient) ExtractAll(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	chunks []common.Chunk,
	globalContext string,
	onProgress func(done, total int),
) ([]ExtractResult, error) {
	results := make([]ExtractResult, len(chunks))
	progress := util.NewProgress(len(chunks), onProgress)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.options.MaxWorkers)
	for i, chunk := range chunks {
		eg.Go(func() error {
			if egCtx.Err() != nil {
				results[i] = ExtractResult{Err: ai.CallError(egCtx.Err())}
				return nil
			}
			results[i] = g.Extract(egCtx, aiClient, chunk, globalContext)
			done := progress.Inc()
			logger.Debug("[Extract] Progress", "done", done, "total", progress.Total(), "percent", progress.Percentage())
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ProcessDocument runs the whole pipeline on one document:
// segment, extract in parallel, aggregate, link orphans, prioritize, resolve
// sparse nodes and assemble.
//
// Oracle failures never abort the run. The returned error is non-nil only
// when ctx is canceled; too short input and empty graphs are reported through
// Result.Status.
func (g *GraphClient) ProcessDocument(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	doc Document,
) (*Result, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}

	text := strings.TrimSpace(doc.Text)
	res := &Result{
		RunID:      runID,
		Name:       doc.Name,
		TextLength: utf8.RuneCountInString(text),
	}
	before := aiClient.GetMetrics()
	defer func() {
		res.Metrics = aiClient.GetMetrics().Since(before)
		res.ProcessedAt = time.Now().UTC()
	}()

	if res.TextLength < g.options.MinTextLength {
		res.Status = StatusInputTooShort
		res.Reason = fmt.Sprintf("document has %d characters, at least %d are required",
			res.TextLength, g.options.MinTextLength)
		logger.Warn("[Graph] Input too short", "run", runID, "name", doc.Name, "length", res.TextLength)
		return res, nil
	}

	if doc.Context == "" {
		doc.Context = "Document: " + doc.Name
	}
	st := pipelineState{doc: doc}

	logger.Info("[Graph] Processing document", "run", runID, "name", doc.Name, "length", res.TextLength)

	st = g.segmentStage(ctx, aiClient, st, text)
	if st, err = g.extractStage(ctx, aiClient, st); err != nil {
		return nil, err
	}
	st = aggregateStage(st)
	st = g.orphanStage(ctx, aiClient, st)
	st = g.prioritizeStage(st)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Chunks = len(st.chunks)
	res.FailedChunks = st.failed
	res.OrphanRelations = len(st.orphans)
	res.Stats = st.stats

	if len(st.pruned) == 0 {
		res.Status = StatusEmptyResult
		res.Reason = "no relations survived extraction and pruning"
		logger.Warn("[Graph] No graph produced", "run", runID, "name", doc.Name,
			"chunks", res.Chunks, "failed", res.FailedChunks)
		return res, nil
	}

	st = g.sparseStage(ctx, aiClient, st)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Graph = Assemble(st.sparse.Entities, st.sparse.Events, st.sparse.Relations, st.sparse.Quarantine)
	res.LinkedRelations = st.sparse.Linked
	res.Retained = st.sparse.Retained
	res.Status = StatusCompleted

	logger.Info("[Graph] Graph built", "run", runID, "name", doc.Name,
		"nodes", len(res.Graph.Nodes), "edges", len(res.Graph.Edges),
		"quarantined", res.Graph.Quarantine.Size())
	return res, nil
}

func (g *GraphClient) segmentStage(ctx context.Context, aiClient ai.GraphAIClient, st pipelineState, text string) pipelineState {
	st.chunks = g.Segment(ctx, aiClient, text)
	logger.Info("[Segment] Document segmented", "chunks", len(st.chunks))
	return st
}

func (g *GraphClient) extractStage(ctx context.Context, aiClient ai.GraphAIClient, st pipelineState) (pipelineState, error) {
	results, err := g.ExtractAll(ctx, aiClient, st.chunks, st.doc.Context, st.doc.OnProgress)
	if err != nil {
		return st, err
	}
	st.batches = make([]common.Batch, len(results))
	for i, r := range results {
		st.batches[i] = r.Batch
		if !r.Ok() {
			st.failed++
		}
	}
	logger.Info("[Extract] Extraction done", "chunks", len(results), "failed", st.failed)
	return st, nil
}

func aggregateStage(st pipelineState) pipelineState {
	st.entities, st.events, st.relations = Aggregate(st.batches)
	logger.Info("[Aggregate] Batches merged",
		"entities", len(st.entities), "events", len(st.events), "relations", len(st.relations))
	return st
}

// orphanStage appends orphan proposals to the relation set so they are
// scored and pruned exactly like extracted relations.
func (g *GraphClient) orphanStage(ctx context.Context, aiClient ai.GraphAIClient, st pipelineState) pipelineState {
	st.orphans = g.LinkOrphans(ctx, aiClient, st.entities, st.events, st.relations)
	if len(st.orphans) > 0 {
		st.relations = append(append(make([]common.Relation, 0, len(st.relations)+len(st.orphans)), st.relations...), st.orphans...)
	}
	return st
}

func (g *GraphClient) prioritizeStage(st pipelineState) pipelineState {
	st.pruned, st.stats = g.Prioritize(st.entities, st.events, st.relations)
	logger.Info("[Score] Relations prioritized",
		"qualifying", st.stats.Qualifying, "kept", st.stats.Kept, "focus", st.stats.FocusRelations)
	return st
}

func (g *GraphClient) sparseStage(ctx context.Context, aiClient ai.GraphAIClient, st pipelineState) pipelineState {
	st.sparse = g.ResolveSparse(ctx, aiClient, st.entities, st.events, st.pruned)
	return st
}
