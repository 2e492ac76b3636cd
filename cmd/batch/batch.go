package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/deepgraph/backend/internal/ledger"
	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/export"
	"github.com/deepgraph/backend/pkg/graph"
	"github.com/deepgraph/backend/pkg/loader"
	fileloader "github.com/deepgraph/backend/pkg/loader/io"
	"github.com/deepgraph/backend/pkg/loader/reader"
	"github.com/deepgraph/backend/pkg/logger"
)

type batchSummary struct {
	Files     int
	Processed int
	Skipped   int
	Failed    int
}

// batchRunner processes every supported document of a directory once.
type batchRunner struct {
	graph    *graph.GraphClient
	ai       ai.GraphAIClient
	exporter export.Exporter
	ledger   *ledger.Ledger
	force    bool
}

// listDocuments returns the supported files directly inside dir, sorted by
// name.
func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !reader.IsSupported(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

// Run only fails when the directory cannot be listed or ctx is canceled;
// per file failures are logged and counted.
func (r *batchRunner) Run(ctx context.Context, dir string) (batchSummary, error) {
	paths, err := listDocuments(dir)
	if err != nil {
		return batchSummary{}, err
	}

	source := fileloader.NewIOGraphFileLoader()
	rd := reader.NewReader(source)
	summary := batchSummary{Files: len(paths)}
	logger.Info("[Batch] Found documents", "dir", dir, "count", len(paths))

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		logger.Info("[Batch] Document", "index", i+1, "total", len(paths), "file", filepath.Base(path))

		skipped, err := r.processFile(ctx, source, rd, path)
		switch {
		case err != nil && ctx.Err() != nil:
			return summary, ctx.Err()
		case err != nil:
			summary.Failed++
			logger.Error("[Batch] Failed to process document", "file", path, "err", err)
		case skipped:
			summary.Skipped++
		default:
			summary.Processed++
		}
	}
	return summary, nil
}

func (r *batchRunner) processFile(ctx context.Context, source loader.GraphFileLoader, rd *reader.Reader, path string) (bool, error) {
	raw := loader.GraphFile{ID: path, FilePath: path, Loader: source}
	content, err := raw.GetText(ctx)
	if err != nil {
		return false, err
	}
	id := ledger.DocumentID(content)
	if entry, ok := r.ledger.Lookup(id); ok && !r.force {
		logger.Info("[Batch] Skipping processed document", "file", path, "processed_at", entry.ProcessedAt.Format(time.RFC3339))
		return true, nil
	}

	file, err := rd.File(path, path, "")
	if err != nil {
		return false, err
	}
	text, err := loader.LoadText(ctx, file)
	if err != nil {
		return false, err
	}
	res, err := r.graph.ProcessDocument(ctx, r.ai, graph.Document{
		Name: file.Name,
		Text: text,
		OnProgress: func(done, total int) {
			logger.Info("[Batch] Extraction progress", "file", file.Name, "done", done, "total", total)
		},
	})
	if err != nil {
		return false, err
	}

	loc, err := r.exporter.Export(ctx, res)
	if err != nil {
		return false, err
	}
	logger.Info("[Batch] Document done",
		"file", file.Name,
		"status", res.Status,
		"entities", len(res.Graph.Entities),
		"events", len(res.Graph.Events),
		"relations", len(res.Graph.Relations),
	)

	return false, r.ledger.Record(id, ledger.Entry{
		Name:   file.Name,
		File:   path,
		Status: string(res.Status),
		Output: loc.Graph,
	})
}
