package graph

import (
	"fmt"
	"strings"

	"github.com/deepgraph/backend/pkg/common"
)

// Assemble shapes the curated collections into the final graph. Every
// entity, event and the non-empty quarantine bucket become nodes; relation
// endpoints that match no node get a stub node instead of being dropped.
func Assemble(
	entities []common.Entity,
	events []common.Event,
	relations []common.Relation,
	quarantine *common.QuarantineBucket,
) common.Graph {
	deg := degrees(relations)

	g := common.Graph{
		Entities:  entities,
		Events:    events,
		Relations: relations,
		Nodes:     make([]common.Node, 0, len(entities)+len(events)+1),
		Edges:     make([]common.Edge, 0, len(relations)),
	}
	if g.Entities == nil {
		g.Entities = []common.Entity{}
	}
	if g.Events == nil {
		g.Events = []common.Event{}
	}
	if g.Relations == nil {
		g.Relations = []common.Relation{}
	}

	known := make(map[string]struct{}, cap(g.Nodes))
	add := func(n common.Node) {
		if _, ok := known[n.ID]; ok {
			return
		}
		known[n.ID] = struct{}{}
		g.Nodes = append(g.Nodes, n)
	}

	for _, e := range entities {
		add(common.Node{
			ID:     e.ID,
			Label:  e.Name,
			Kind:   common.NodeEntity,
			Type:   string(e.Type),
			Title:  entityTitle(e, deg[e.ID]),
			Degree: deg[e.ID],
		})
	}
	for _, e := range events {
		add(common.Node{
			ID:     e.ID,
			Label:  e.Name,
			Kind:   common.NodeEvent,
			Type:   string(e.Type),
			Title:  eventTitle(e, deg[e.ID]),
			Degree: deg[e.ID],
		})
	}
	if !quarantine.IsEmpty() {
		add(common.Node{
			ID:    quarantine.ID,
			Label: quarantine.Label,
			Kind:  common.NodeQuarantine,
			Title: quarantineTitle(quarantine),
		})
		g.Quarantine = quarantine
	}

	for _, r := range relations {
		for _, id := range []string{r.SourceID, r.TargetID} {
			add(common.Node{
				ID:     id,
				Label:  id,
				Kind:   common.NodeStub,
				Degree: deg[id],
			})
		}
		g.Edges = append(g.Edges, common.Edge{
			Source: r.SourceID,
			Target: r.TargetID,
			Label:  r.Relation,
			Weight: r.Weight,
			Title:  r.Details,
		})
	}

	return g
}

func entityTitle(e common.Entity, degree int) string {
	title := fmt.Sprintf("%s\ntype: %s\nrelations: %d", e.Name, e.Type, degree)
	if len(e.Aliases) > 0 {
		title += "\naliases: " + strings.Join(e.Aliases, ", ")
	}
	return title
}

func eventTitle(e common.Event, degree int) string {
	var b strings.Builder
	b.WriteString(e.Name)
	if e.Time != "" {
		fmt.Fprintf(&b, "\ntime: %s", e.Time)
	}
	fmt.Fprintf(&b, "\ntype: %s\nrisk: %s\nrelations: %d", e.Type, e.RiskLevel, degree)
	if e.PoliticalSignificance != "" {
		fmt.Fprintf(&b, "\nsignificance: %s", e.PoliticalSignificance)
	}
	return b.String()
}

func quarantineTitle(q *common.QuarantineBucket) string {
	names := make([]string, 0, q.Size())
	for _, n := range q.Entities {
		names = append(names, n.Name)
	}
	for _, n := range q.Events {
		names = append(names, n.Name)
	}
	return q.Label + "\n" + strings.Join(names, "\n")
}
