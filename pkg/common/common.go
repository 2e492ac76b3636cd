package common

import (
	"strings"
)

// Identifier prefixes keep the entity and event id spaces disjoint. The
// extraction prompt asks the model to use them and the extractor enforces the
// event prefix at the response boundary.
const (
	PersonPrefix   = "PER_"
	LocationPrefix = "LOC_"
	OrgPrefix      = "ORG_"
	DocumentPrefix = "DOC_"
	ConceptPrefix  = "CON_"
	EventPrefix    = "EVT_"

	// QuarantineID is the id of the synthetic quarantine bucket node.
	QuarantineID = "BUCKET_QUARANTINE"
)

// IsEventID reports whether id lives in the event id space.
func IsEventID(id string) bool {
	return strings.HasPrefix(id, EventPrefix)
}

// EntityType is the closed set of entity categories.
type EntityType string

const (
	EntityPerson   EntityType = "PERSON"
	EntityLocation EntityType = "LOCATION"
	EntityOrg      EntityType = "ORG"
	EntityDocument EntityType = "DOCUMENT"
	EntityConcept  EntityType = "CONCEPT"
)

// EntityTypes lists every valid EntityType in declaration order.
var EntityTypes = []EntityType{EntityPerson, EntityLocation, EntityOrg, EntityDocument, EntityConcept}

// ParseEntityType maps a raw model value onto the closed enum. The second
// return value is false when the value is unknown.
func ParseEntityType(value string) (EntityType, bool) {
	switch normalizeEnum(value) {
	case "PERSON", "PER":
		return EntityPerson, true
	case "LOCATION", "LOC", "PLACE":
		return EntityLocation, true
	case "ORG", "ORGANIZATION", "ORGANISATION":
		return EntityOrg, true
	case "DOCUMENT", "DOC":
		return EntityDocument, true
	case "CONCEPT", "CON":
		return EntityConcept, true
	}
	return "", false
}

// EventType is the closed set of event categories. EventOther absorbs values
// the model produced outside the known categories.
type EventType string

const (
	EventMeeting  EventType = "MEETING"
	EventConflict EventType = "CONFLICT"
	EventSpeech   EventType = "SPEECH"
	EventPolicy   EventType = "POLICY"
	EventMovement EventType = "MOVEMENT"
	EventOther    EventType = "OTHER"
)

var EventTypes = []EventType{EventMeeting, EventConflict, EventSpeech, EventPolicy, EventMovement, EventOther}

func ParseEventType(value string) (EventType, bool) {
	switch normalizeEnum(value) {
	case "MEETING":
		return EventMeeting, true
	case "CONFLICT":
		return EventConflict, true
	case "SPEECH":
		return EventSpeech, true
	case "POLICY":
		return EventPolicy, true
	case "MOVEMENT":
		return EventMovement, true
	case "OTHER":
		return EventOther, true
	}
	return "", false
}

// RiskLevel classifies how sensitive an event is.
type RiskLevel string

const (
	RiskSafe          RiskLevel = "SAFE"
	RiskControversial RiskLevel = "CONTROVERSIAL"
	RiskHigh          RiskLevel = "HIGH_RISK"
)

var RiskLevels = []RiskLevel{RiskSafe, RiskControversial, RiskHigh}

func ParseRiskLevel(value string) (RiskLevel, bool) {
	switch normalizeEnum(value) {
	case "SAFE":
		return RiskSafe, true
	case "CONTROVERSIAL":
		return RiskControversial, true
	case "HIGH_RISK", "HIGHRISK", "HIGH":
		return RiskHigh, true
	}
	return "", false
}

func normalizeEnum(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	return strings.NewReplacer("-", "_", " ", "_").Replace(value)
}

// Entity is a person, place, organization, document or concept mentioned in
// the source text. The first extraction of an id wins; later occurrences with
// the same id are ignored during aggregation.
type Entity struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Type    EntityType `json:"type"`
	Aliases []string   `json:"aliases"`
}

// Event is a dated occurrence. Time is free text and is not necessarily
// parseable to a calendar date.
type Event struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Type                  EventType `json:"type"`
	Time                  string    `json:"time"`
	Description           string    `json:"description"`
	PoliticalSignificance string    `json:"political_significance"`
	RiskLevel             RiskLevel `json:"risk_level"`
}

// Relation is a directed edge between two entity or event ids. Referential
// integrity is not enforced until graph assembly. Weight is derived by the
// scorer and is zero on freshly extracted relations.
type Relation struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Relation string `json:"relation"`
	Details  string `json:"details"`
	Evidence string `json:"evidence"`
	Weight   int    `json:"weight"`
}

// Key returns the deduplication key source|relation|target.
func (r Relation) Key() string {
	return r.SourceID + "|" + r.Relation + "|" + r.TargetID
}

// Batch is the output of one extraction call. It has no identity beyond the
// chunk it was produced from.
type Batch struct {
	Entities  []Entity   `json:"entities"`
	Events    []Event    `json:"events"`
	Relations []Relation `json:"relations"`
}

func (b Batch) IsEmpty() bool {
	return len(b.Entities) == 0 && len(b.Events) == 0 && len(b.Relations) == 0
}

// Chunk is a contiguous run of paragraphs. Text is the paragraphs joined by a
// blank line.
type Chunk struct {
	Index      int      `json:"index"`
	Paragraphs []string `json:"paragraphs"`
	Text       string   `json:"text"`
}

// NodeKind tells renderers which collection a node came from.
type NodeKind string

const (
	NodeEntity     NodeKind = "entity"
	NodeEvent      NodeKind = "event"
	NodeQuarantine NodeKind = "quarantine"
	NodeStub       NodeKind = "stub"
)

// NodeSummary is the compact form of a node absorbed into the quarantine
// bucket.
type NodeSummary struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind NodeKind `json:"kind"`
	Type string   `json:"type"`
}

// QuarantineBucket aggregates nodes that could not be connected to the main
// graph. It is rendered as a single node.
type QuarantineBucket struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Entities []NodeSummary `json:"entities"`
	Events   []NodeSummary `json:"events"`
}

func (q *QuarantineBucket) Size() int {
	if q == nil {
		return 0
	}
	return len(q.Entities) + len(q.Events)
}

func (q *QuarantineBucket) IsEmpty() bool {
	return q.Size() == 0
}

// Node is the render view of an entity, event, quarantine bucket or stub.
type Node struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Kind   NodeKind `json:"kind"`
	Type   string   `json:"type,omitempty"`
	Title  string   `json:"title,omitempty"`
	Degree int      `json:"degree"`
}

// Edge is the render view of a relation.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Weight int    `json:"weight"`
	Title  string `json:"title,omitempty"`
}

// Graph is the final output of the pipeline: the three ordered collections
// plus derived node and edge views for rendering.
//
// A graph contains:
//   - Entities, Events, Relations: the curated main graph
//   - Nodes, Edges: one node per entity/event, the quarantine bucket and any
//     stub created for a dangling relation endpoint
//   - Quarantine: the bucket itself, nil when nothing was quarantined
type Graph struct {
	Entities   []Entity          `json:"entities"`
	Events     []Event           `json:"events"`
	Relations  []Relation        `json:"relations"`
	Nodes      []Node            `json:"nodes"`
	Edges      []Edge            `json:"edges"`
	Quarantine *QuarantineBucket `json:"quarantine,omitempty"`
}
