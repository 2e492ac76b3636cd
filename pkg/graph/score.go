package graph

import (
	"math"
	"sort"

	"github.com/deepgraph/backend/pkg/common"
)

const maxScore = 10

// Stats summarizes scoring and pruning for observability.
type Stats struct {
	Entities       int `json:"entities"`
	Events         int `json:"events"`
	FocusEntities  int `json:"focus_entities"`
	FocusEvents    int `json:"focus_events"`
	Relations      int `json:"relations"`
	Qualifying     int `json:"qualifying_relations"`
	Kept           int `json:"kept_relations"`
	FocusRelations int `json:"focus_relations"`
}

func clamp(v int) int {
	return max(0, min(maxScore, v))
}

func keywordBonus(p *Policy, bonus KeywordBonus, extra []string, texts ...string) int {
	score := 0
	if containsAny(p.StrongKeywords, texts...) {
		score += bonus.Strong
	}
	if containsAny(p.MediumKeywords, texts...) {
		score += bonus.Medium
	}
	if containsAny(extra, texts...) {
		score += bonus.Extra
	}
	return score
}

// EntityScore rates an entity from 0 to 10: type base plus keyword bonuses
// matched against its name and aliases.
func (p *Policy) EntityScore(e common.Entity, extra []string) int {
	texts := append([]string{e.Name}, e.Aliases...)
	return clamp(p.EntityBase[string(e.Type)] + keywordBonus(p, p.EntityBonus, extra, texts...))
}

// EventScore rates an event from 0 to 10: type base, keyword bonuses matched
// against name, description and significance, and the risk bonus.
func (p *Policy) EventScore(e common.Event, extra []string) int {
	base, ok := p.EventBase[string(e.Type)]
	if !ok {
		base = p.EventBaseDefault
	}
	score := base +
		keywordBonus(p, p.EventBonus, extra, e.Name, e.Description, e.PoliticalSignificance) +
		p.RiskBonus[string(e.RiskLevel)]
	return clamp(score)
}

// scoreTable resolves node ids to scores. Unknown ids score 0.
type scoreTable struct {
	scores map[string]int
	events map[string]struct{}
}

func (t scoreTable) isEvent(id string) bool {
	if _, ok := t.events[id]; ok {
		return true
	}
	return common.IsEventID(id)
}

// RelationWeight is the rounded mean of the endpoint scores plus the
// relation type bonus, clamped to 0..10.
func (p *Policy) RelationWeight(sourceScore, targetScore int, relation string) int {
	mean := math.Round(float64(sourceScore+targetScore) / 2)
	return clamp(int(mean) + p.relationBonus(relation))
}

// Prioritize scores every node, weights the relations touching at least one
// event and prunes them per event: the topPerEvent heaviest relations of each
// event survive, as does every relation weighing at least minWeight. Kept
// relations carry their weight and keep their input order.
func (p *Policy) Prioritize(
	entities []common.Entity,
	events []common.Event,
	relations []common.Relation,
	minWeight int,
	topPerEvent int,
	focusKeywords []string,
) ([]common.Relation, Stats) {
	stats := Stats{Entities: len(entities), Events: len(events), Relations: len(relations)}
	table := scoreTable{
		scores: make(map[string]int, len(entities)+len(events)),
		events: make(map[string]struct{}, len(events)),
	}

	for _, e := range entities {
		s := p.EntityScore(e, focusKeywords)
		table.scores[e.ID] = s
		if s >= p.FocusThreshold {
			stats.FocusEntities++
		}
	}
	for _, e := range events {
		s := p.EventScore(e, focusKeywords)
		table.scores[e.ID] = s
		table.events[e.ID] = struct{}{}
		if s >= p.FocusThreshold {
			stats.FocusEvents++
		}
	}

	weighted := make([]common.Relation, 0, len(relations))
	groups := make(map[string][]int)
	var order []string
	for _, r := range relations {
		srcEvent, tgtEvent := table.isEvent(r.SourceID), table.isEvent(r.TargetID)
		if !srcEvent && !tgtEvent {
			continue
		}
		r.Weight = p.RelationWeight(table.scores[r.SourceID], table.scores[r.TargetID], r.Relation)

		group := r.TargetID
		if srcEvent {
			group = r.SourceID
		}
		if _, ok := groups[group]; !ok {
			order = append(order, group)
		}
		groups[group] = append(groups[group], len(weighted))
		weighted = append(weighted, r)
	}
	stats.Qualifying = len(weighted)

	keep := make([]bool, len(weighted))
	for _, group := range order {
		idx := groups[group]
		sort.SliceStable(idx, func(a, b int) bool {
			return weighted[idx[a]].Weight > weighted[idx[b]].Weight
		})
		for rank, i := range idx {
			if rank < topPerEvent || weighted[i].Weight >= minWeight {
				keep[i] = true
			}
		}
	}

	kept := make([]common.Relation, 0, len(weighted))
	for i, r := range weighted {
		if !keep[i] {
			continue
		}
		kept = append(kept, r)
		if r.Weight >= p.FocusThreshold {
			stats.FocusRelations++
		}
	}
	stats.Kept = len(kept)

	return kept, stats
}

// Prioritize applies the client's policy with its configured thresholds.
func (g *GraphClient) Prioritize(
	entities []common.Entity,
	events []common.Event,
	relations []common.Relation,
) ([]common.Relation, Stats) {
	return g.policy.Prioritize(entities, events, relations,
		g.options.MinWeight, g.options.TopPerEvent, g.options.FocusKeywords)
}
