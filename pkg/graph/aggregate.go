package graph

import (
	"github.com/deepgraph/backend/pkg/common"
)

// Aggregate folds batches in order into single collections. The first entity
// or event seen for an id wins, as does the first relation for a
// source|relation|target key. It is pure and deterministic for a fixed input
// order.
func Aggregate(batches []common.Batch) ([]common.Entity, []common.Event, []common.Relation) {
	entities := make([]common.Entity, 0)
	events := make([]common.Event, 0)
	relations := make([]common.Relation, 0)

	seenEntities := make(map[string]struct{})
	seenEvents := make(map[string]struct{})
	seenRelations := make(map[string]struct{})

	for _, b := range batches {
		for _, e := range b.Entities {
			if _, ok := seenEntities[e.ID]; ok {
				continue
			}
			seenEntities[e.ID] = struct{}{}
			entities = append(entities, e)
		}
		for _, e := range b.Events {
			if _, ok := seenEvents[e.ID]; ok {
				continue
			}
			seenEvents[e.ID] = struct{}{}
			events = append(events, e)
		}
		relations = appendUniqueRelations(relations, seenRelations, b.Relations)
	}

	return entities, events, relations
}

// appendUniqueRelations appends the relations whose key is not in seen yet
// and records their keys.
func appendUniqueRelations(dst []common.Relation, seen map[string]struct{}, src []common.Relation) []common.Relation {
	for _, r := range src {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, r)
	}
	return dst
}

func relationKeys(relations []common.Relation) map[string]struct{} {
	keys := make(map[string]struct{}, len(relations))
	for _, r := range relations {
		keys[r.Key()] = struct{}{}
	}
	return keys
}

// degrees counts how many relations touch each id.
func degrees(relations []common.Relation) map[string]int {
	deg := make(map[string]int)
	for _, r := range relations {
		deg[r.SourceID]++
		if r.TargetID != r.SourceID {
			deg[r.TargetID]++
		}
	}
	return deg
}
