package pgx

import (
	"encoding/json"

	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// Column lists shared between SELECT and RETURNING clauses so the scan
// functions below stay in sync with every query.
const (
	groupColumns      = `id, slug, name, type, parent_group_id, status, settings, created_at, updated_at`
	thingColumns      = `id, group_id, type, name, properties, status, created_at, updated_at`
	connectionColumns = `id, group_id, from_id, to_id, type, metadata, strength, valid_from, valid_to, created_at, updated_at`
	eventColumns      = `id, group_id, type, actor_id, target_id, timestamp, metadata`
	knowledgeColumns  = `id, group_id, source_thing_id, content, embedding, embedding_model, labels, type, metadata, created_at, updated_at`
)

type scanner interface {
	Scan(dest ...any) error
}

func marshalProps(p ontology.Properties) ([]byte, error) {
	if len(p) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func unmarshalProps(data []byte) (ontology.Properties, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var p ontology.Properties
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if len(p) == 0 {
		return nil, nil
	}
	return p, nil
}

func scanGroup(row scanner) (*ontology.Group, error) {
	var (
		g        ontology.Group
		settings []byte
	)
	err := row.Scan(
		&g.ID, &g.Slug, &g.Name, &g.Type, &g.ParentGroupID,
		&g.Status, &settings, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if g.Settings, err = unmarshalProps(settings); err != nil {
		return nil, err
	}
	return &g, nil
}

func scanThing(row scanner) (*ontology.Thing, error) {
	var (
		t     ontology.Thing
		props []byte
	)
	err := row.Scan(
		&t.ID, &t.GroupID, &t.Type, &t.Name, &props,
		&t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if t.Properties, err = unmarshalProps(props); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanConnection(row scanner) (*ontology.Connection, error) {
	var (
		c    ontology.Connection
		meta []byte
	)
	err := row.Scan(
		&c.ID, &c.GroupID, &c.FromID, &c.ToID, &c.Type, &meta,
		&c.Strength, &c.ValidFrom, &c.ValidTo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Metadata, err = unmarshalProps(meta); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanEvent(row scanner) (*ontology.Event, error) {
	var (
		e    ontology.Event
		meta []byte
	)
	err := row.Scan(
		&e.ID, &e.GroupID, &e.Type, &e.ActorID, &e.TargetID,
		&e.Timestamp, &meta,
	)
	if err != nil {
		return nil, err
	}
	if e.Metadata, err = unmarshalProps(meta); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanKnowledge(row scanner) (*ontology.Knowledge, error) {
	var (
		k         ontology.Knowledge
		embedding *pgvector.Vector
		model     *string
		meta      []byte
	)
	err := row.Scan(
		&k.ID, &k.GroupID, &k.SourceThingID, &k.Content, &embedding,
		&model, &k.Labels, &k.Type, &meta, &k.CreatedAt, &k.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if embedding != nil {
		k.Embedding = embedding.Slice()
	}
	if model != nil {
		k.EmbeddingModel = *model
	}
	if k.Metadata, err = unmarshalProps(meta); err != nil {
		return nil, err
	}
	return &k, nil
}

func scanKnowledgeMatch(row scanner) (*store.KnowledgeMatch, error) {
	var (
		m         store.KnowledgeMatch
		embedding *pgvector.Vector
		model     *string
		meta      []byte
	)
	err := row.Scan(
		&m.ID, &m.GroupID, &m.SourceThingID, &m.Content, &embedding,
		&model, &m.Labels, &m.Type, &meta, &m.CreatedAt, &m.UpdatedAt,
		&m.Similarity,
	)
	if err != nil {
		return nil, err
	}
	if embedding != nil {
		m.Embedding = embedding.Slice()
	}
	if model != nil {
		m.EmbeddingModel = *model
	}
	if m.Metadata, err = unmarshalProps(meta); err != nil {
		return nil, err
	}
	return &m, nil
}

func collectRows[T any](rows pgxv5.Rows, scan func(scanner) (*T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func optionalEnum[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
