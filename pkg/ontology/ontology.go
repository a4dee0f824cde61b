package ontology

import "time"

// MaxNameLength bounds Group and Thing names. Names must also be non-empty.
const MaxNameLength = 500

// Group represents a tenant container in a hierarchical nesting tree.
// Groups are the isolation boundary of the engine: every Thing,
// Connection, Event, and Knowledge row belongs to exactly one Group, and
// every query is scoped by group id before any other predicate.
//
// Groups nest through ParentGroupID. The parent chain is kept acyclic and
// finite; a group never appears in its own ancestor chain. Groups are
// archived rather than deleted while children or entities reference them.
type Group struct {
	ID            string      `json:"id"`
	Slug          string      `json:"slug"`
	Name          string      `json:"name"`
	Type          GroupType   `json:"type"`
	ParentGroupID *string     `json:"parent_group_id,omitempty"`
	Status        GroupStatus `json:"status"`
	Settings      Properties  `json:"settings,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Thing represents a polymorphic domain entity: a person, a product, a
// course, a token, an agent, or any other concept from the type taxonomy.
// The shape of a Thing is deliberately open; domain-specific attributes
// live in the Properties map with no enforced sub-schema.
//
// GroupID is set once at creation and never changes.
type Thing struct {
	ID         string      `json:"id"`
	GroupID    string      `json:"group_id"`
	Type       ThingType   `json:"type"`
	Name       string      `json:"name"`
	Properties Properties  `json:"properties,omitempty"`
	Status     ThingStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Connection represents a typed, directed edge between two Things inside
// one Group. At most one live connection exists per
// (group, from, to, type) key; Upsert enforces that.
//
// Strength is advisory weighting in [0,1] with no business meaning
// attached by the engine. ValidFrom/ValidTo describe a validity window
// that queries do not filter on; expiry is the caller's responsibility.
type Connection struct {
	ID        string         `json:"id"`
	GroupID   string         `json:"group_id"`
	FromID    string         `json:"from_id"`
	ToID      string         `json:"to_id"`
	Type      ConnectionType `json:"type"`
	Metadata  Properties     `json:"metadata,omitempty"`
	Strength  *float64       `json:"strength,omitempty"`
	ValidFrom *time.Time     `json:"valid_from,omitempty"`
	ValidTo   *time.Time     `json:"valid_to,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Event represents an immutable audit record. Events are written exactly
// once as a consequence of a state-changing operation and are never
// updated or deleted; they are the sole record of what happened.
//
// ActorID optionally references a person-category Thing that caused the
// action; TargetID optionally references the Thing the action touched.
type Event struct {
	ID        string     `json:"id"`
	GroupID   string     `json:"group_id"`
	Type      EventType  `json:"type"`
	ActorID   *string    `json:"actor_id,omitempty"`
	TargetID  *string    `json:"target_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Metadata  Properties `json:"metadata,omitempty"`
}

// Knowledge represents a searchable fragment: a label, an imported
// document, a chunk of one, or a bare vector. Knowledge rows optionally
// link to the Thing they describe and carry an embedding for similarity
// search plus labels for exact-match filtering.
//
// Unlike Events, Knowledge is fully mutable and deletable. When Content
// changes the embedding must be regenerated with it.
type Knowledge struct {
	ID             string        `json:"id"`
	GroupID        string        `json:"group_id"`
	SourceThingID  *string       `json:"source_thing_id,omitempty"`
	Content        string        `json:"content"`
	Embedding      []float32     `json:"embedding,omitempty"`
	EmbeddingModel string        `json:"embedding_model,omitempty"`
	Labels         []string      `json:"labels,omitempty"`
	Type           KnowledgeType `json:"knowledge_type"`
	Metadata       Properties    `json:"metadata,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// GroupStats aggregates per-kind row counts for one group.
type GroupStats struct {
	GroupID     string `json:"group_id"`
	Things      int64  `json:"things"`
	Connections int64  `json:"connections"`
	Events      int64  `json:"events"`
	Knowledge   int64  `json:"knowledge"`
	ChildGroups int64  `json:"child_groups"`
}
