package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deepgraph/backend/internal/ledger"
	"github.com/deepgraph/backend/pkg/ai/aitest"
	"github.com/deepgraph/backend/pkg/export"
	"github.com/deepgraph/backend/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batch = `{
  "entities": [{"id": "PER_X", "name": "X", "type": "PERSON", "aliases": []}],
  "events": [{"id": "EVT_Y", "name": "Y", "type": "MEETING", "time": "1978",
              "description": "", "political_significance": "", "risk_level": "SAFE"}],
  "relations": [{"source_id": "PER_X", "target_id": "EVT_Y", "relation": "organized",
                 "details": "", "evidence": ""}]
}`

func newRunner(t *testing.T, outDir string) (*batchRunner, *aitest.MockGraphAIClient) {
	t.Helper()
	opts := graph.DefaultOptions()
	opts.BoundaryBudget = 0
	opts.OracleTimeout = 0
	opts.MaxRetries = 1
	opts.SparseThreshold = 0
	client, err := graph.NewGraphClient(graph.NewGraphClientParams{Options: opts})
	require.NoError(t, err)

	l, err := ledger.Open(filepath.Join(outDir, "processed.json"))
	require.NoError(t, err)

	mock := &aitest.MockGraphAIClient{Structured: map[string]aitest.Reply{
		"graph_batch": aitest.Fixed(batch),
	}}
	return &batchRunner{
		graph:    client,
		ai:       mock,
		exporter: export.NewFileExporter(outDir),
		ledger:   l,
	}, mock
}

func TestBatchRun(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	text := strings.Repeat("The delegates met in Beijing to discuss the economy.\n\n", 5)
	require.NoError(t, os.WriteFile(filepath.Join(in, "memoir.txt"), []byte(text), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(in, "short.md"), []byte("tiny"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(in, "cover.png"), []byte("png"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(in, "nested.txt"), 0o755))

	runner, mock := newRunner(t, out)
	summary, err := runner.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, batchSummary{Files: 2, Processed: 2}, summary)
	assert.Equal(t, 1, mock.CallCount("graph_batch"))

	_, err = os.Stat(filepath.Join(out, "memoir_graph.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "short_report.md"))
	assert.NoError(t, err)

	again, mock := newRunner(t, out)
	summary, err = again.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, batchSummary{Files: 2, Skipped: 2}, summary)
	assert.Empty(t, mock.Calls())
}

func TestBatchRunMissingDir(t *testing.T) {
	runner, _ := newRunner(t, t.TempDir())
	_, err := runner.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestBatchRunCanceled(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.txt"), []byte("x"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner, _ := newRunner(t, t.TempDir())
	_, err := runner.Run(ctx, in)
	assert.ErrorIs(t, err, context.Canceled)
}
