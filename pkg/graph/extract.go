package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/common"
	"github.com/deepgraph/backend/pkg/logger"

	"github.com/go-playground/validator"
)

var validate = validator.New()

type extractEntity struct {
	ID      string   `json:"id" validate:"required"`
	Name    string   `json:"name" validate:"required"`
	Type    string   `json:"type" validate:"required" jsonschema:"enum=PERSON,enum=LOCATION,enum=ORG,enum=DOCUMENT,enum=CONCEPT"`
	Aliases []string `json:"aliases"`
}

type extractEvent struct {
	ID                    string `json:"id" validate:"required"`
	Name                  string `json:"name" validate:"required"`
	Type                  string `json:"type" validate:"required" jsonschema:"enum=MEETING,enum=CONFLICT,enum=SPEECH,enum=POLICY,enum=MOVEMENT,enum=OTHER"`
	Time                  string `json:"time"`
	Description           string `json:"description"`
	PoliticalSignificance string `json:"political_significance"`
	RiskLevel             string `json:"risk_level" jsonschema:"enum=SAFE,enum=CONTROVERSIAL,enum=HIGH_RISK"`
}

type extractRelation struct {
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
	Relation string `json:"relation" validate:"required"`
	Details  string `json:"details"`
	Evidence string `json:"evidence"`
}

type extractionResponse struct {
	Entities  []extractEntity   `json:"entities" validate:"dive"`
	Events    []extractEvent    `json:"events" validate:"dive"`
	Relations []extractRelation `json:"relations" validate:"dive"`
}

// ExtractResult is the outcome of one extraction call. Err is nil on
// success, otherwise an *ai.OracleError of kind ai.ErrCall or ai.ErrSchema and
// Batch is empty.
type ExtractResult struct {
	Batch common.Batch
	Err   error
}

func (r ExtractResult) Ok() bool {
	return r.Err == nil
}

// toBatch maps a validated response onto the closed domain enums. Unknown
// enum values fall back to a default with a warning, event ids get the event
// prefix and entities claiming the event prefix are dropped. Relations of the
// batch follow renamed event ids.
func (r extractionResponse) toBatch(chunk int) common.Batch {
	batch := common.Batch{
		Entities:  make([]common.Entity, 0, len(r.Entities)),
		Events:    make([]common.Event, 0, len(r.Events)),
		Relations: make([]common.Relation, 0, len(r.Relations)),
	}

	entityIDs := make(map[string]struct{}, len(r.Entities))
	for _, e := range r.Entities {
		id := strings.TrimSpace(e.ID)
		if common.IsEventID(id) {
			logger.Warn("[Extract] Dropping entity with event id", "chunk", chunk, "id", id)
			continue
		}
		t, ok := common.ParseEntityType(e.Type)
		if !ok {
			logger.Warn("[Extract] Unknown entity type, using CONCEPT", "chunk", chunk, "id", id, "type", e.Type)
			t = common.EntityConcept
		}
		entityIDs[id] = struct{}{}
		batch.Entities = append(batch.Entities, common.Entity{
			ID:      id,
			Name:    strings.TrimSpace(e.Name),
			Type:    t,
			Aliases: cleanAliases(e.Aliases),
		})
	}

	renamed := make(map[string]string)
	for _, e := range r.Events {
		id := strings.TrimSpace(e.ID)
		if !common.IsEventID(id) {
			if _, clash := entityIDs[id]; !clash {
				renamed[id] = common.EventPrefix + id
			}
			id = common.EventPrefix + id
		}
		t, ok := common.ParseEventType(e.Type)
		if !ok {
			logger.Warn("[Extract] Unknown event type, using OTHER", "chunk", chunk, "id", id, "type", e.Type)
			t = common.EventOther
		}
		risk, ok := common.ParseRiskLevel(e.RiskLevel)
		if !ok {
			logger.Warn("[Extract] Unknown risk level, using SAFE", "chunk", chunk, "id", id, "risk", e.RiskLevel)
			risk = common.RiskSafe
		}
		batch.Events = append(batch.Events, common.Event{
			ID:                    id,
			Name:                  strings.TrimSpace(e.Name),
			Type:                  t,
			Time:                  strings.TrimSpace(e.Time),
			Description:           strings.TrimSpace(e.Description),
			PoliticalSignificance: strings.TrimSpace(e.PoliticalSignificance),
			RiskLevel:             risk,
		})
	}

	for _, rel := range r.Relations {
		relation := toRelation(rel)
		if id, ok := renamed[relation.SourceID]; ok {
			relation.SourceID = id
		}
		if id, ok := renamed[relation.TargetID]; ok {
			relation.TargetID = id
		}
		batch.Relations = append(batch.Relations, relation)
	}

	return batch
}

func toRelation(r extractRelation) common.Relation {
	return common.Relation{
		SourceID: strings.TrimSpace(r.SourceID),
		TargetID: strings.TrimSpace(r.TargetID),
		Relation: strings.TrimSpace(r.Relation),
		Details:  strings.TrimSpace(r.Details),
		Evidence: strings.TrimSpace(r.Evidence),
	}
}

func cleanAliases(aliases []string) []string {
	out := make([]string, 0, len(aliases))
	seen := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// requestExtraction performs one oracle call and validates the reply.
func requestExtraction(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	chunk common.Chunk,
	globalContext string,
) (common.Batch, error) {
	prompt := fmt.Sprintf(ai.ExtractPrompt, globalContext, chunk.Text)

	var res extractionResponse
	err := aiClient.GenerateCompletionWithFormat(
		ctx,
		"graph_batch",
		"Entities, events and relations found in one passage",
		prompt,
		&res,
		ai.WithSystemPrompts(ai.ExtractSystemPrompt),
	)
	if err != nil {
		return common.Batch{}, err
	}
	if err := validate.Struct(res); err != nil {
		return common.Batch{}, ai.SchemaError(err)
	}
	return res.toBatch(chunk.Index), nil
}

// Extract runs the oracle on one chunk. It never fails: any error is logged
// and reported in the result alongside an empty batch.
func (g *GraphClient) Extract(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	chunk common.Chunk,
	globalContext string,
) ExtractResult {
	batch, err := util.RetryWithContext(ctx, g.options.MaxRetries, func(ctx context.Context) (common.Batch, error) {
		return util.WithTimeout(ctx, g.options.OracleTimeout, func(ctx context.Context) (common.Batch, error) {
			return requestExtraction(ctx, aiClient, chunk, globalContext)
		})
	})
	if err != nil {
		var oe *ai.OracleError
		if !errors.As(err, &oe) {
			err = ai.CallError(err)
		}
		logger.Warn("[Extract] Extraction failed, using empty batch", "chunk", chunk.Index, "err", err)
		return ExtractResult{Err: err}
	}

	logger.Debug("[Extract] Chunk extracted", "chunk", chunk.Index,
		"entities", len(batch.Entities), "events", len(batch.Events), "relations", len(batch.Relations))
	return ExtractResult{Batch: batch}
}
