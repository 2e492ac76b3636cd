package export

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/deepgraph/backend/pkg/common"
	"github.com/deepgraph/backend/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *graph.Result {
	entities := []common.Entity{{ID: "PER_A", Name: "A", Type: common.EntityPerson}}
	events := []common.Event{{ID: "EVT_1", Name: "Congress", Type: common.EventMeeting, RiskLevel: common.RiskSafe}}
	relations := []common.Relation{{SourceID: "PER_A", TargetID: "EVT_1", Relation: "attended", Weight: 8}}
	return &graph.Result{
		RunID:       "run1",
		Name:        "Book: Volume 1",
		Status:      graph.StatusCompleted,
		TextLength:  1234,
		Chunks:      2,
		Graph:       graph.Assemble(entities, events, relations, nil),
		ProcessedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNewDocumentNeverNull(t *testing.T) {
	data, err := Marshal(&graph.Result{RunID: "r", Status: graph.StatusInputTooShort})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"entities", "events", "relations", "nodes", "edges", "linked_relations", "retained"} {
		assert.Equal(t, []any{}, raw[key], key)
	}
	assert.Nil(t, raw["quarantine"])
	assert.Equal(t, "input_too_short", raw["status"])
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "Book_ Volume 1", BaseName(sampleResult()))
	assert.Equal(t, "a_b_c", BaseName(&graph.Result{Name: "a/b\\c"}))
	assert.Equal(t, "run9", BaseName(&graph.Result{Name: " .. ", RunID: "run9"}))
}

func TestFileExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	loc, err := NewFileExporter(dir).Export(context.Background(), sampleResult())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Book_ Volume 1_graph.json"), loc.Graph)
	assert.Equal(t, filepath.Join(dir, "Book_ Volume 1_report.md"), loc.Report)

	data, err := os.ReadFile(loc.Graph)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Book: Volume 1", doc.File)
	assert.Equal(t, 1234, doc.TextLength)
	assert.Len(t, doc.Relations, 1)
	assert.Len(t, doc.Nodes, 2)

	report, err := os.ReadFile(loc.Report)
	require.NoError(t, err)
	assert.Contains(t, string(report), "Book: Volume 1")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileExporterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileExporter(t.TempDir()).Export(ctx, sampleResult())
	assert.ErrorIs(t, err, context.Canceled)
}

type fakePutter struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*params.Key] = body
	f.types[*params.Key] = *params.ContentType
	return &s3.PutObjectOutput{}, nil
}

func TestS3Exporter(t *testing.T) {
	fake := &fakePutter{objects: map[string][]byte{}, types: map[string]string{}}
	loc, err := NewS3Exporter(fake, "graphs", "results/run1").Export(context.Background(), sampleResult())
	require.NoError(t, err)

	assert.Equal(t, "results/run1/Book_ Volume 1_graph.json", loc.Graph)
	assert.Equal(t, "application/json", fake.types[loc.Graph])
	assert.Contains(t, string(fake.objects[loc.Report]), "# Knowledge graph report")

	fake.err = errors.New("denied")
	_, err = NewS3Exporter(fake, "graphs", "").Export(context.Background(), sampleResult())
	assert.ErrorContains(t, err, "denied")
}
