package store

import (
	"context"
	"time"

	"github.com/trellishq/trellis/backend/pkg/ontology"
)

// OntologyStore defines the persistence interface for the six-dimension
// ontology engine: tenant groups, polymorphic things, typed connections,
// the append-only event log, and the knowledge index.
//
// Every read is scoped by group id before any other predicate; no query
// crosses tenant boundaries. Every mutation appends exactly one Event in
// the same transaction as the primary write, so the audit trail never
// diverges from state. Events themselves have no update or delete path.
type OntologyStore interface {
	// Groups
	CreateGroup(ctx context.Context, params CreateGroupParams) (*ontology.Group, error)
	GetGroup(ctx context.Context, id string) (*ontology.Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*ontology.Group, error)
	ListGroups(ctx context.Context, params ListGroupsParams) ([]ontology.Group, error)
	GetHierarchy(ctx context.Context, rootID string, maxDepth int) ([]ontology.Group, error)
	GetPath(ctx context.Context, groupID string) ([]ontology.Group, error)
	IsDescendantOf(ctx context.Context, groupID, ancestorID string) (bool, error)
	UpdateGroup(ctx context.Context, params UpdateGroupParams) (*ontology.Group, error)
	ArchiveGroup(ctx context.Context, id, actorID string) (*ontology.Group, error)
	RestoreGroup(ctx context.Context, id, actorID string) (*ontology.Group, error)

	// Things
	CreateThing(ctx context.Context, params CreateThingParams) (*ontology.Thing, error)
	BulkCreateThings(ctx context.Context, groupID string, items []ThingInput, actorID string) ([]ontology.Thing, error)
	GetThing(ctx context.Context, groupID, id string) (*ontology.Thing, error)
	ListThings(ctx context.Context, params ListThingsParams) ([]ontology.Thing, error)
	SearchThings(ctx context.Context, groupID, query string, limit int) ([]ontology.Thing, error)
	UpdateThing(ctx context.Context, params UpdateThingParams) (*ontology.Thing, error)
	ArchiveThing(ctx context.Context, groupID, id, actorID string) (*ontology.Thing, error)
	RestoreThing(ctx context.Context, groupID, id, actorID string) (*ontology.Thing, error)

	// Connections
	CreateConnection(ctx context.Context, params CreateConnectionParams) (*ontology.Connection, error)
	UpsertConnection(ctx context.Context, params CreateConnectionParams) (*ontology.Connection, error)
	BulkCreateConnections(ctx context.Context, groupID string, items []ConnectionInput, actorID string) ([]ontology.Connection, error)
	GetConnection(ctx context.Context, groupID, id string) (*ontology.Connection, error)
	ListConnectionsFrom(ctx context.Context, params ListConnectionsParams) ([]ontology.Connection, error)
	ListConnectionsTo(ctx context.Context, params ListConnectionsParams) ([]ontology.Connection, error)
	ListConnectionsBetween(ctx context.Context, params ListConnectionsParams) ([]ontology.Connection, error)
	DeleteConnection(ctx context.Context, groupID, id, actorID string) error

	// Events
	AppendEvent(ctx context.Context, params AppendEventParams) (*ontology.Event, error)
	ListEvents(ctx context.Context, params ListEventsParams) ([]ontology.Event, error)
	RecentEvents(ctx context.Context, groupID string, limit int) ([]ontology.Event, error)
	EventStats(ctx context.Context, groupID string) ([]EventTypeCount, error)

	// Knowledge
	CreateKnowledge(ctx context.Context, params CreateKnowledgeParams) (*ontology.Knowledge, error)
	GetKnowledge(ctx context.Context, groupID, id string) (*ontology.Knowledge, error)
	UpdateKnowledge(ctx context.Context, params UpdateKnowledgeParams) (*ontology.Knowledge, error)
	DeleteKnowledge(ctx context.Context, groupID, id, actorID string) error
	SearchKnowledge(ctx context.Context, groupID, query string, limit int) ([]KnowledgeMatch, error)
	KnowledgeByLabel(ctx context.Context, groupID, label string, limit int) ([]ontology.Knowledge, error)
	ListLabels(ctx context.Context, groupID string) ([]string, error)
	KnowledgeByThing(ctx context.Context, groupID, thingID string) ([]ontology.Knowledge, error)
	LinkKnowledgeToThing(ctx context.Context, groupID, knowledgeID, thingID, actorID string) (*ontology.Knowledge, error)
	ReembedKnowledge(ctx context.Context, groupID string) (int, error)

	// Aggregates
	GroupStats(ctx context.Context, groupID string) (*ontology.GroupStats, error)
}

// CreateGroupParams carries the input for a new tenant group. ActorID is
// the person Thing acting, recorded on the companion Event; it may be
// empty for service calls.
type CreateGroupParams struct {
	Slug          string
	Name          string
	Type          ontology.GroupType
	ParentGroupID *string
	Settings      ontology.Properties
	ActorID       string
}

// UpdateGroupParams is a partial patch; nil fields stay untouched.
type UpdateGroupParams struct {
	ID       string
	Name     *string
	Settings ontology.Properties
	ActorID  string
}

type ListGroupsParams struct {
	ParentGroupID *string
	Status        *ontology.GroupStatus
	Limit         int
	Offset        int
}

// ThingInput is one item of a create or bulk create request.
type ThingInput struct {
	Type       ontology.ThingType
	Name       string
	Properties ontology.Properties
	Status     ontology.ThingStatus
}

type CreateThingParams struct {
	GroupID string
	ThingInput
	ActorID string
}

// UpdateThingParams is a partial patch; nil fields stay untouched.
// GroupID scopes the lookup and is never updated itself.
type UpdateThingParams struct {
	GroupID    string
	ID         string
	Name       *string
	Properties ontology.Properties
	Status     *ontology.ThingStatus
	ActorID    string
}

type ListThingsParams struct {
	GroupID string
	Type    *ontology.ThingType
	Status  *ontology.ThingStatus
	Limit   int
	Offset  int
}

// ConnectionInput is one item of a create, upsert, or bulk create request.
type ConnectionInput struct {
	FromID    string
	ToID      string
	Type      ontology.ConnectionType
	Metadata  ontology.Properties
	Strength  *float64
	ValidFrom *time.Time
	ValidTo   *time.Time
}

type CreateConnectionParams struct {
	GroupID string
	ConnectionInput
	ActorID string
}

// ListConnectionsParams drives the directional graph queries. FromID
// and/or ToID narrow the edge set; Type optionally narrows further.
type ListConnectionsParams struct {
	GroupID string
	FromID  string
	ToID    string
	Type    *ontology.ConnectionType
	Limit   int
	Offset  int
}

type AppendEventParams struct {
	GroupID  string
	Type     ontology.EventType
	ActorID  *string
	TargetID *string
	Metadata ontology.Properties
}

type ListEventsParams struct {
	GroupID  string
	Type     *ontology.EventType
	ActorID  *string
	TargetID *string
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

// EventTypeCount is one row of the per-type event aggregate.
type EventTypeCount struct {
	Type  ontology.EventType `json:"type"`
	Count int64              `json:"count"`
}

// CreateKnowledgeParams carries the input for a new knowledge row. When
// Embedding is nil and the row type requires one, the store computes it
// from Content through its configured embedder.
type CreateKnowledgeParams struct {
	GroupID       string
	SourceThingID *string
	Content       string
	Labels        []string
	Metadata      ontology.Properties
	Type          ontology.KnowledgeType
	Embedding     []float32
	// EmbeddingModel names the model behind a caller-supplied Embedding.
	// Ignored when the store computes the embedding itself.
	EmbeddingModel string
	ActorID        string
}

// UpdateKnowledgeParams is a partial patch. A non-nil Content triggers
// re-embedding; stale embeddings would silently corrupt search rankings.
type UpdateKnowledgeParams struct {
	GroupID  string
	ID       string
	Content  *string
	Labels   []string
	Metadata ontology.Properties
	ActorID  string
}

// KnowledgeMatch is one similarity search result. Similarity is cosine
// similarity in [-1,1], higher is closer.
type KnowledgeMatch struct {
	ontology.Knowledge
	Similarity float64 `json:"similarity"`
}
