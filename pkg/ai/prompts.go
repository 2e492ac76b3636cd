package ai

// ExtractSystemPrompt frames every extraction request.
const ExtractSystemPrompt = `You are a careful historian and analyst. You build event-centric knowledge graphs from long documents. You only report what the text states or directly implies, and you always answer with JSON matching the requested schema.`

// ExtractPrompt asks for one batch of entities, events and relations.
// Arguments: document context, chunk text.
const ExtractPrompt = `
# Task Context
You are extracting an **event-centric knowledge graph** from one passage of a longer document. Events are the centre of the graph; people, places, organizations, documents and concepts attach to them.

# Background Data
- **Document_context:** [%s]

# Detailed Task Description & Rules
## Entity Extraction
1. Extract every person, location, organization, document and concept that takes part in an event.
2. For each entity return:
   - **id:** a stable identifier built from a type prefix and a short uppercase name, e.g. "PER_ZHANG_SAN", "LOC_BEIJING", "ORG_CENTRAL_COMMITTEE", "DOC_1978_COMMUNIQUE", "CON_REFORM". Use the same id for the same real-world entity every time.
   - **name:** the display name as written in the text.
   - **type:** one of PERSON, LOCATION, ORG, DOCUMENT, CONCEPT.
   - **aliases:** other names used for the same entity in the passage (may be empty).

## Event Extraction
1. Extract every dated or datable occurrence: meetings, conflicts, speeches, policies, movements.
2. For each event return:
   - **id:** "EVT_" followed by a short uppercase name and the year if known, e.g. "EVT_THIRD_PLENUM_1978".
   - **name:** a short title.
   - **type:** one of MEETING, CONFLICT, SPEECH, POLICY, MOVEMENT, OTHER.
   - **time:** the time as written in the text (free text, may be approximate).
   - **description:** what happened.
   - **political_significance:** why it mattered.
   - **risk_level:** SAFE, CONTROVERSIAL or HIGH_RISK, reflecting how sensitive the event is.

## Relation Extraction
1. Connect entities to events (and events to events) with directed relations.
2. For each relation return **source_id**, **target_id**, a short verb phrase **relation** (e.g. "organized", "attended", "opposed", "caused"), **details** and a short quote as **evidence**.
3. Only use ids that you also return in this answer.

# Output Formatting
Return a JSON object with the keys "entities", "events" and "relations". Use empty arrays when nothing is found.

# Passage
%s
`

// BoundaryPrompt asks whether two adjacent passages belong to different
// topics. Arguments: end of the current chunk, start of the next paragraph.
const BoundaryPrompt = `
# Task Context
You decide where a long document should be split into topical sections.

# Background Data
## End of the current section
%s

## Start of the next paragraph
%s

# Immediate Task Description or Request
Does the next paragraph start a new event, scene or topic that should begin a new section?
Answer with exactly one word: YES or NO.
`

// OrphanPrompt asks for relations connecting isolated nodes to the graph.
// Arguments: existing nodes, orphan nodes.
const OrphanPrompt = `
# Task Context
You maintain an event-centric knowledge graph. Some nodes ended up without any relation.

# Background Data
## Existing nodes (id | type | name)
%s

## Isolated nodes (id | type | name)
%s

# Detailed Task Description & Rules
- For each isolated node propose 1 to 3 plausible relations to **existing** nodes.
- Every relation must use an isolated node id on one side and an existing node id on the other.
- Use short verb phrases for "relation" and explain the link in "details".
- Skip an isolated node when no relation is plausible.

# Output Formatting
Return a JSON object with the key "relations", each item having source_id, target_id, relation, details and evidence.
`

// SparsePrompt asks for grounded relations for weakly connected nodes and
// for the ids that cannot be linked at all. Arguments: main nodes, sparse nodes.
const SparsePrompt = `
# Task Context
You curate an event-centric knowledge graph. The main graph is listed below, followed by weakly connected nodes.

# Background Data
## Main graph nodes (id | type | name)
%s

## Weakly connected nodes (id | type | name)
%s

# Detailed Task Description & Rules
- For each weakly connected node propose up to 3 relations to main graph nodes that are factually grounded in well-known history or in the node descriptions.
- Do not invent connections. When a node cannot be linked with confidence, list its id in "unlinkable".
- Every relation must connect a weakly connected node with a main graph node.

# Output Formatting
Return a JSON object with the keys "relations" (items with source_id, target_id, relation, details, evidence) and "unlinkable" (array of ids).
`
