package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/common"
	"github.com/deepgraph/backend/pkg/logger"
)

type linkResponse struct {
	Relations []extractRelation `json:"relations" validate:"dive"`
}

// nodeRef is the prompt view of an entity or event.
type nodeRef struct {
	id   string
	kind common.NodeKind
	typ  string
	name string
}

func entityRef(e common.Entity) nodeRef {
	return nodeRef{id: e.ID, kind: common.NodeEntity, typ: string(e.Type), name: e.Name}
}

func eventRef(e common.Event) nodeRef {
	return nodeRef{id: e.ID, kind: common.NodeEvent, typ: string(e.Type), name: e.Name}
}

func (n nodeRef) summary() common.NodeSummary {
	return common.NodeSummary{ID: n.id, Name: n.name, Kind: n.kind, Type: n.typ}
}

// nodeRefs lists entities then events.
func nodeRefs(entities []common.Entity, events []common.Event) []nodeRef {
	refs := make([]nodeRef, 0, len(entities)+len(events))
	for _, e := range entities {
		refs = append(refs, entityRef(e))
	}
	for _, e := range events {
		refs = append(refs, eventRef(e))
	}
	return refs
}

// formatNodes renders at most limit nodes as "id | type | name" lines.
func formatNodes(nodes []nodeRef, limit int) string {
	if limit > 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}
	var b strings.Builder
	for _, n := range nodes {
		fmt.Fprintf(&b, "%s | %s | %s\n", n.id, n.typ, n.name)
	}
	return b.String()
}

func batchNodes(nodes []nodeRef, size int) [][]nodeRef {
	var out [][]nodeRef
	for start := 0; start < len(nodes); start += size {
		out = append(out, nodes[start:min(start+size, len(nodes))])
	}
	return out
}

// askStructured runs a structured oracle request under the client's retry
// and timeout policy and validates the reply.
func askStructured[T any](
	ctx context.Context,
	g *GraphClient,
	aiClient ai.GraphAIClient,
	name, description, prompt string,
) (T, error) {
	return util.RetryWithContext(ctx, g.options.MaxRetries, func(ctx context.Context) (T, error) {
		return util.WithTimeout(ctx, g.options.OracleTimeout, func(ctx context.Context) (T, error) {
			var out T
			if err := aiClient.GenerateCompletionWithFormat(ctx, name, description, prompt, &out, g.options.linkOptions()...); err != nil {
				return out, err
			}
			if err := validate.Struct(out); err != nil {
				return out, ai.SchemaError(err)
			}
			return out, nil
		})
	})
}

// Orphans returns the ids of entities and events that no relation touches,
// entities first, each group in input order.
func Orphans(entities []common.Entity, events []common.Event, relations []common.Relation) []string {
	deg := degrees(relations)
	var out []string
	for _, n := range nodeRefs(entities, events) {
		if deg[n.id] == 0 {
			out = append(out, n.id)
		}
	}
	return out
}

// LinkOrphans asks the oracle to connect nodes without relations to the rest
// of the graph. Proposals are accepted as returned, minus those duplicating an
// existing relation key. A failed call contributes nothing; orphans may remain.
func (g *GraphClient) LinkOrphans(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	entities []common.Entity,
	events []common.Event,
	relations []common.Relation,
) []common.Relation {
	deg := degrees(relations)
	var orphans, connected []nodeRef
	for _, n := range nodeRefs(entities, events) {
		if deg[n.id] == 0 {
			orphans = append(orphans, n)
		} else {
			connected = append(connected, n)
		}
	}
	if len(orphans) == 0 || len(connected) == 0 {
		return nil
	}

	logger.Info("[Orphan] Linking orphan nodes", "orphans", len(orphans), "connected", len(connected))

	existing := formatNodes(connected, g.options.ContextCap)
	seen := relationKeys(relations)
	extra := make([]common.Relation, 0)

	for i, batch := range batchNodes(orphans, g.options.LinkBatchSize) {
		prompt := fmt.Sprintf(ai.OrphanPrompt, existing, formatNodes(batch, 0))
		res, err := askStructured[linkResponse](ctx, g, aiClient,
			"orphan_links", "Relations connecting isolated nodes to the graph", prompt)
		if err != nil {
			logger.Warn("[Orphan] Linking failed, leaving orphans unresolved", "batch", i, "err", err)
			continue
		}
		proposed := make([]common.Relation, 0, len(res.Relations))
		for _, r := range res.Relations {
			proposed = append(proposed, toRelation(r))
		}
		extra = appendUniqueRelations(extra, seen, proposed)
	}

	logger.Info("[Orphan] Orphan linking done", "relations", len(extra))
	return extra
}
