package graph

import (
	"testing"

	"github.com/deepgraph/backend/pkg/common"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mutate func(*Options)) *GraphClient {
	t.Helper()
	opts := DefaultOptions()
	opts.BoundaryBudget = 0
	opts.OracleTimeout = 0
	opts.MaxRetries = 1
	if mutate != nil {
		mutate(&opts)
	}
	client, err := NewGraphClient(NewGraphClientParams{Options: opts})
	require.NoError(t, err)
	return client
}

func rel(src, relation, tgt string) common.Relation {
	return common.Relation{SourceID: src, Relation: relation, TargetID: tgt}
}

func keysOf(relations []common.Relation) []string {
	out := make([]string, 0, len(relations))
	for _, r := range relations {
		out = append(out, r.Key())
	}
	return out
}

const scenarioABatch = `{
  "entities": [{"id": "PER_X", "name": "X", "type": "PERSON", "aliases": []}],
  "events": [{"id": "EVT_Y_1978", "name": "Y", "type": "MEETING", "time": "1978",
              "description": "", "political_significance": "", "risk_level": "SAFE"}],
  "relations": [{"source_id": "PER_X", "target_id": "EVT_Y_1978", "relation": "organized",
                 "details": "", "evidence": ""}]
}`
