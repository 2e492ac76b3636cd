package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/ai/aitest"
	"github.com/deepgraph/backend/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ScenarioA(t *testing.T) {
	mock := &aitest.MockGraphAIClient{Structured: map[string]aitest.Reply{
		"graph_batch": aitest.Fixed(scenarioABatch),
	}}
	client := newTestClient(t, nil)

	res := client.Extract(context.Background(), mock, common.Chunk{Text: "..."}, "ctx")

	require.True(t, res.Ok())
	assert.Equal(t, []common.Entity{{ID: "PER_X", Name: "X", Type: common.EntityPerson, Aliases: []string{}}}, res.Batch.Entities)
	require.Len(t, res.Batch.Events, 1)
	assert.Equal(t, common.EventMeeting, res.Batch.Events[0].Type)
	assert.Equal(t, common.RiskSafe, res.Batch.Events[0].RiskLevel)
	assert.Equal(t, []string{"PER_X|organized|EVT_Y_1978"}, keysOf(res.Batch.Relations))
}

func TestExtract_NormalizesAtBoundary(t *testing.T) {
	mock := &aitest.MockGraphAIClient{Structured: map[string]aitest.Reply{
		"graph_batch": aitest.Fixed(`{
			"entities": [
				{"id": "ORG_CC", "name": " Central Committee ", "type": "organization", "aliases": ["CC", "CC", " "]},
				{"id": "EVT_FAKE", "name": "wrong space", "type": "PERSON", "aliases": []},
				{"id": "CON_X", "name": "X", "type": "IDEOLOGY", "aliases": []}
			],
			"events": [
				{"id": "PLENUM", "name": "Plenum", "type": "gathering", "time": "1978", "description": "",
				 "political_significance": "", "risk_level": "high-risk"},
				{"id": "EVT_B", "name": "B", "type": "SPEECH", "time": "", "description": "",
				 "political_significance": "", "risk_level": "unknown"}
			],
			"relations": []
		}`),
	}}
	client := newTestClient(t, nil)

	res := client.Extract(context.Background(), mock, common.Chunk{}, "")

	require.True(t, res.Ok())
	require.Len(t, res.Batch.Entities, 2)
	assert.Equal(t, common.Entity{ID: "ORG_CC", Name: "Central Committee", Type: common.EntityOrg, Aliases: []string{"CC"}}, res.Batch.Entities[0])
	assert.Equal(t, common.EntityConcept, res.Batch.Entities[1].Type)

	require.Len(t, res.Batch.Events, 2)
	assert.Equal(t, "EVT_PLENUM", res.Batch.Events[0].ID)
	assert.Equal(t, common.EventOther, res.Batch.Events[0].Type)
	assert.Equal(t, common.RiskHigh, res.Batch.Events[0].RiskLevel)
	assert.Equal(t, common.RiskSafe, res.Batch.Events[1].RiskLevel)
}

func TestExtract_RelationsFollowPrefixedEventIDs(t *testing.T) {
	mock := &aitest.MockGraphAIClient{Structured: map[string]aitest.Reply{
		"graph_batch": aitest.Fixed(`{
			"entities": [{"id": "PER_X", "name": "X", "type": "PERSON", "aliases": []}],
			"events": [{"id": "Y_1978", "name": "Y", "type": "MEETING", "time": "1978", "description": "",
			            "political_significance": "", "risk_level": "SAFE"}],
			"relations": [
				{"source_id": "PER_X", "target_id": "Y_1978", "relation": "organized", "details": "", "evidence": ""},
				{"source_id": " Y_1978 ", "target_id": "PER_X", "relation": "honored", "details": "", "evidence": ""}
			]
		}`),
	}}
	client := newTestClient(t, nil)

	res := client.Extract(context.Background(), mock, common.Chunk{}, "")

	require.True(t, res.Ok())
	require.Len(t, res.Batch.Events, 1)
	assert.Equal(t, "EVT_Y_1978", res.Batch.Events[0].ID)
	assert.Equal(t, []string{"PER_X|organized|EVT_Y_1978", "EVT_Y_1978|honored|PER_X"}, keysOf(res.Batch.Relations))

	entities, events, relations := Aggregate([]common.Batch{res.Batch})
	assert.Empty(t, Orphans(entities, events, relations))
}

func TestExtract_FailuresYieldEmptyBatch(t *testing.T) {
	tests := []struct {
		name  string
		reply aitest.Reply
		kind  error
	}{
		{
			name:  "call error",
			reply: aitest.Failing(errors.New("503")),
			kind:  ai.ErrCall,
		},
		{
			name:  "missing required field",
			reply: aitest.Fixed(`{"entities": [{"id": "PER_X", "name": "", "type": "PERSON", "aliases": []}], "events": [], "relations": []}`),
			kind:  ai.ErrSchema,
		},
		{
			name:  "relation without target",
			reply: aitest.Fixed(`{"entities": [], "events": [], "relations": [{"source_id": "PER_X", "target_id": "", "relation": "met", "details": "", "evidence": ""}]}`),
			kind:  ai.ErrSchema,
		},
		{
			name:  "wrong shape",
			reply: aitest.Fixed(`{"entities": "none"}`),
			kind:  ai.ErrSchema,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock := &aitest.MockGraphAIClient{Structured: map[string]aitest.Reply{"graph_batch": tc.reply}}
			client := newTestClient(t, func(o *Options) { o.MaxRetries = 2 })

			res := client.Extract(context.Background(), mock, common.Chunk{Index: 4}, "")

			assert.False(t, res.Ok())
			assert.ErrorIs(t, res.Err, tc.kind)
			assert.True(t, res.Batch.IsEmpty())
			assert.Equal(t, 2, mock.CallCount("graph_batch"), "every attempt is used")
		})
	}
}

func TestExtractAll_ResultsFollowChunkOrder(t *testing.T) {
	mock := &aitest.MockGraphAIClient{Structured: map[string]aitest.Reply{
		"graph_batch": func(prompt string) (string, error) {
			if len(prompt) == 0 {
				return "", errors.New("empty prompt")
			}
			return scenarioABatch, nil
		},
	}}
	client := newTestClient(t, func(o *Options) { o.MaxWorkers = 3 })

	chunks := make([]common.Chunk, 10)
	for i := range chunks {
		chunks[i] = common.Chunk{Index: i, Text: "chunk"}
	}

	var (
		mu   sync.Mutex
		last int
	)
	results, err := client.ExtractAll(context.Background(), mock, chunks, "", func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		last = max(last, done)
	})

	require.NoError(t, err)
	require.Len(t, results, 10)
	for _, r := range results {
		assert.True(t, r.Ok())
	}
	assert.Equal(t, 10, mock.CallCount("graph_batch"))
	assert.Equal(t, 10, last)
}

func TestExtractAll_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, nil)
	_, err := client.ExtractAll(ctx, &aitest.MockGraphAIClient{}, []common.Chunk{{}}, "", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
