package graph

import (
	"fmt"
	"strings"

	"github.com/deepgraph/backend/pkg/common"
)

// Report renders a Markdown summary of a run: counts, entities grouped by
// type, events, relations and the quarantine bucket.
func Report(res *Result) string {
	var b strings.Builder

	title := res.Name
	if title == "" {
		title = res.RunID
	}
	fmt.Fprintf(&b, "# Knowledge graph report: %s\n\n", title)

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Status: %s\n", res.Status)
	if res.Reason != "" {
		fmt.Fprintf(&b, "- Reason: %s\n", res.Reason)
	}
	fmt.Fprintf(&b, "- Text length: %d\n", res.TextLength)
	fmt.Fprintf(&b, "- Chunks: %d (failed: %d)\n", res.Chunks, res.FailedChunks)
	fmt.Fprintf(&b, "- Entities: %d\n", len(res.Graph.Entities))
	fmt.Fprintf(&b, "- Events: %d\n", len(res.Graph.Events))
	fmt.Fprintf(&b, "- Relations: %d\n", len(res.Graph.Relations))
	fmt.Fprintf(&b, "- Focus entities/events/relations: %d/%d/%d\n\n",
		res.Stats.FocusEntities, res.Stats.FocusEvents, res.Stats.FocusRelations)

	if res.Status != StatusCompleted {
		return b.String()
	}

	b.WriteString("## Entities\n\n")
	for _, t := range common.EntityTypes {
		var names []string
		for _, e := range res.Graph.Entities {
			if e.Type == t {
				names = append(names, e.Name)
			}
		}
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s (%d)\n%s\n\n", t, len(names), strings.Join(names, ", "))
	}

	b.WriteString("## Events\n\n")
	for _, e := range res.Graph.Events {
		when := ""
		if e.Time != "" {
			when = " (" + e.Time + ")"
		}
		fmt.Fprintf(&b, "- **%s**%s [%s, %s]\n", e.Name, when, e.Type, e.RiskLevel)
	}
	b.WriteString("\n")

	names := make(map[string]string, len(res.Graph.Nodes))
	for _, n := range res.Graph.Nodes {
		names[n.ID] = n.Label
	}
	b.WriteString("## Relations\n\n")
	for _, r := range res.Graph.Relations {
		detail := ""
		if r.Details != "" {
			detail = " *(" + r.Details + ")*"
		}
		fmt.Fprintf(&b, "- %s → **%s** → %s [%d]%s\n",
			names[r.SourceID], r.Relation, names[r.TargetID], r.Weight, detail)
	}

	if q := res.Graph.Quarantine; !q.IsEmpty() {
		fmt.Fprintf(&b, "\n## %s\n\n", q.Label)
		for _, n := range append(append([]common.NodeSummary{}, q.Entities...), q.Events...) {
			fmt.Fprintf(&b, "- %s (%s)\n", n.Name, n.Type)
		}
	}

	return b.String()
}
