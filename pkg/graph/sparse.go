package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/common"
	"github.com/deepgraph/backend/pkg/logger"
)

type sparseLinkResponse struct {
	Relations  []extractRelation `json:"relations" validate:"dive"`
	Unlinkable []string          `json:"unlinkable"`
}

// SparseResult is the main graph view after sparse resolution.
//
// Entities and Events hold the main nodes, sparse nodes linked by the oracle
// and high-risk carve-outs. Relations only contains relations with no sparse
// endpoint. Linked holds the oracle proposals for sparse nodes and is kept
// apart from Relations.
type SparseResult struct {
	Entities   []common.Entity
	Events     []common.Event
	Relations  []common.Relation
	Linked     []common.Relation
	Sparse     []string
	Retained   []common.NodeSummary
	Quarantine *common.QuarantineBucket
}

// PartitionByDegree splits node ids into main (degree above threshold) and
// sparse (degree at or below threshold). Every id lands in exactly one side.
func PartitionByDegree(
	entities []common.Entity,
	events []common.Event,
	relations []common.Relation,
	threshold int,
) (mainIDs, sparseIDs map[string]struct{}) {
	deg := degrees(relations)
	mainIDs = make(map[string]struct{})
	sparseIDs = make(map[string]struct{})
	for _, n := range nodeRefs(entities, events) {
		if deg[n.id] <= threshold {
			sparseIDs[n.id] = struct{}{}
		} else {
			mainIDs[n.id] = struct{}{}
		}
	}
	return mainIDs, sparseIDs
}

// isHighRisk reports whether a node qualifies for the high-risk carve-out.
func (p *Policy) isHighRisk(n nodeRef, eventsByID map[string]common.Event, entitiesByID map[string]common.Entity) bool {
	if e, ok := eventsByID[n.id]; ok {
		if e.RiskLevel == common.RiskHigh {
			return true
		}
		return containsAny(p.HighRiskKeywords, e.Name, e.Description, e.PoliticalSignificance)
	}
	if e, ok := entitiesByID[n.id]; ok {
		return containsAny(p.HighRiskKeywords, append([]string{e.Name}, e.Aliases...)...)
	}
	return false
}

// BucketLabel renders the quarantine label from the policy prefix and the
// number of absorbed nodes, e.g. "Sensitive bucket (7)".
func (p *Policy) BucketLabel(entities, events int) string {
	prefix := strings.TrimSpace(p.QuarantineLabel)
	if prefix == "" {
		prefix = "Sensitive bucket"
	}
	return fmt.Sprintf("%s (%d)", prefix, entities+events)
}

// ResolveSparse separates weakly connected nodes from the main graph, tries
// to link them through the oracle and collects the rest into a quarantine
// bucket. Oracle failures leave the affected nodes unlinked.
func (g *GraphClient) ResolveSparse(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	entities []common.Entity,
	events []common.Event,
	relations []common.Relation,
) SparseResult {
	mainIDs, sparseIDs := PartitionByDegree(entities, events, relations, g.options.SparseThreshold)

	res := SparseResult{
		Entities:  make([]common.Entity, 0, len(entities)),
		Events:    make([]common.Event, 0, len(events)),
		Relations: make([]common.Relation, 0, len(relations)),
		Linked:    make([]common.Relation, 0),
	}
	for _, r := range relations {
		_, srcSparse := sparseIDs[r.SourceID]
		_, tgtSparse := sparseIDs[r.TargetID]
		if !srcSparse && !tgtSparse {
			res.Relations = append(res.Relations, r)
		}
	}

	var mainNodes, sparseNodes []nodeRef
	for _, n := range nodeRefs(entities, events) {
		if _, ok := mainIDs[n.id]; ok {
			mainNodes = append(mainNodes, n)
		} else {
			sparseNodes = append(sparseNodes, n)
			res.Sparse = append(res.Sparse, n.id)
		}
	}

	linked := make(map[string]struct{})
	unlinkable := make(map[string]struct{})
	if len(sparseNodes) > 0 && len(mainNodes) > 0 && aiClient != nil {
		res.Linked = g.linkSparse(ctx, aiClient, mainNodes, sparseNodes, mainIDs, sparseIDs, linked, unlinkable)
	}

	entitiesByID := make(map[string]common.Entity, len(entities))
	for _, e := range entities {
		entitiesByID[e.ID] = e
	}
	eventsByID := make(map[string]common.Event, len(events))
	for _, e := range events {
		eventsByID[e.ID] = e
	}

	keep := make(map[string]struct{}, len(mainIDs))
	for id := range mainIDs {
		keep[id] = struct{}{}
	}
	bucket := &common.QuarantineBucket{
		ID:       common.QuarantineID,
		Entities: make([]common.NodeSummary, 0),
		Events:   make([]common.NodeSummary, 0),
	}
	for _, n := range sparseNodes {
		_, isLinked := linked[n.id]
		if _, no := unlinkable[n.id]; isLinked && !no {
			keep[n.id] = struct{}{}
			continue
		}
		if g.policy.CarveOutHighRisk && g.policy.isHighRisk(n, eventsByID, entitiesByID) {
			keep[n.id] = struct{}{}
			res.Retained = append(res.Retained, n.summary())
			continue
		}
		if n.kind == common.NodeEvent {
			bucket.Events = append(bucket.Events, n.summary())
		} else {
			bucket.Entities = append(bucket.Entities, n.summary())
		}
	}

	for _, e := range entities {
		if _, ok := keep[e.ID]; ok {
			res.Entities = append(res.Entities, e)
		}
	}
	for _, e := range events {
		if _, ok := keep[e.ID]; ok {
			res.Events = append(res.Events, e)
		}
	}

	if !bucket.IsEmpty() {
		bucket.Label = g.policy.BucketLabel(len(bucket.Entities), len(bucket.Events))
		res.Quarantine = bucket
	}

	logger.Info("[Sparse] Sparse resolution done",
		"main", len(mainNodes), "sparse", len(sparseNodes), "linked", len(res.Linked),
		"retained", len(res.Retained), "quarantined", res.Quarantine.Size())
	return res
}

// linkSparse asks the oracle for relations between sparse and main nodes.
// It fills linked and unlinkable and returns the accepted relations. A node
// reported unlinkable is never considered linked.
func (g *GraphClient) linkSparse(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	mainNodes, sparseNodes []nodeRef,
	mainIDs, sparseIDs map[string]struct{},
	linked, unlinkable map[string]struct{},
) []common.Relation {
	mainList := formatNodes(mainNodes, g.options.ContextCap)
	proposed := make([]common.Relation, 0)
	seen := make(map[string]struct{})

	for i, batch := range batchNodes(sparseNodes, g.options.LinkBatchSize) {
		prompt := fmt.Sprintf(ai.SparsePrompt, mainList, formatNodes(batch, 0))
		res, err := askStructured[sparseLinkResponse](ctx, g, aiClient,
			"sparse_links", "Relations for weakly connected nodes and the ids that cannot be linked", prompt)
		if err != nil {
			logger.Warn("[Sparse] Linking failed, nodes stay unlinked", "batch", i, "nodes", len(batch), "err", err)
			continue
		}

		for _, id := range res.Unlinkable {
			id = strings.TrimSpace(id)
			if _, ok := sparseIDs[id]; ok {
				unlinkable[id] = struct{}{}
			}
		}

		candidates := make([]common.Relation, 0, len(res.Relations))
		for _, raw := range res.Relations {
			r := toRelation(raw)
			if sparse, ok := sparseMainEndpoint(r, mainIDs, sparseIDs); ok {
				candidates = append(candidates, r)
				linked[sparse] = struct{}{}
			}
		}
		proposed = appendUniqueRelations(proposed, seen, candidates)
	}

	accepted := make([]common.Relation, 0, len(proposed))
	for _, r := range proposed {
		sparse, _ := sparseMainEndpoint(r, mainIDs, sparseIDs)
		if _, no := unlinkable[sparse]; no {
			continue
		}
		accepted = append(accepted, r)
	}
	return accepted
}

// sparseMainEndpoint returns the sparse endpoint of a relation connecting a
// sparse node with a main node.
func sparseMainEndpoint(r common.Relation, mainIDs, sparseIDs map[string]struct{}) (string, bool) {
	_, srcSparse := sparseIDs[r.SourceID]
	_, tgtSparse := sparseIDs[r.TargetID]
	_, srcMain := mainIDs[r.SourceID]
	_, tgtMain := mainIDs[r.TargetID]
	switch {
	case srcSparse && tgtMain:
		return r.SourceID, true
	case tgtSparse && srcMain:
		return r.TargetID, true
	}
	return "", false
}
