package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trellishq/trellis/backend/internal/util"
	"github.com/trellishq/trellis/backend/pkg/embed"
	"github.com/trellishq/trellis/backend/pkg/logger"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// reembedBatchSize bounds how many rows each re-embedding round trips
// through the model and the database at once.
const reembedBatchSize = 64

const createKnowledgeQuery = `
INSERT INTO knowledge (id, group_id, source_thing_id, content, embedding, embedding_model, labels, type, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + knowledgeColumns

const getKnowledgeQuery = `SELECT ` + knowledgeColumns + ` FROM knowledge WHERE group_id = $1 AND id = $2`

const updateKnowledgeQuery = `
UPDATE knowledge SET
	content = COALESCE($3, content),
	embedding = COALESCE($4, embedding),
	embedding_model = COALESCE($5, embedding_model),
	labels = COALESCE($6, labels),
	metadata = COALESCE($7, metadata),
	updated_at = now()
WHERE group_id = $1 AND id = $2
RETURNING ` + knowledgeColumns

const deleteKnowledgeQuery = `DELETE FROM knowledge WHERE group_id = $1 AND id = $2 RETURNING ` + knowledgeColumns

const searchKnowledgeQuery = `
SELECT ` + knowledgeColumns + `, 1 - (embedding <=> $2) AS similarity
FROM knowledge
WHERE group_id = $1 AND embedding IS NOT NULL
ORDER BY embedding <=> $2, updated_at DESC
LIMIT $3`

const knowledgeByLabelQuery = `
SELECT ` + knowledgeColumns + `
FROM knowledge
WHERE group_id = $1 AND $2 = ANY(labels)
ORDER BY updated_at DESC, id
LIMIT $3`

const listLabelsQuery = `
SELECT DISTINCT unnest(labels) AS label
FROM knowledge
WHERE group_id = $1
ORDER BY label`

const knowledgeByThingQuery = `
SELECT ` + knowledgeColumns + `
FROM knowledge
WHERE group_id = $1 AND source_thing_id = $2
ORDER BY updated_at DESC, id
LIMIT $3`

const linkKnowledgeQuery = `
UPDATE knowledge SET source_thing_id = $3, updated_at = now()
WHERE group_id = $1 AND id = $2
RETURNING ` + knowledgeColumns

const countKnowledgeQuery = `SELECT COUNT(*) FROM knowledge WHERE group_id = $1`

const staleKnowledgeQuery = `
SELECT id, content
FROM knowledge
WHERE group_id = $1 AND content <> ''
  AND (embedding IS NULL OR embedding_model IS DISTINCT FROM $2)
ORDER BY id`

const setEmbeddingQuery = `
UPDATE knowledge SET embedding = $3, embedding_model = $4, updated_at = now()
WHERE group_id = $1 AND id = $2`

func vecArg(embedding []float32) any {
	if embedding == nil {
		return nil
	}
	return pgvector.NewVector(embedding)
}

// CreateKnowledge indexes a new fragment. When no embedding is supplied
// and an embedder is configured, the content is embedded before the
// insert; vector_only rows must bring their own embedding or content to
// embed.
func (s *Store) CreateKnowledge(ctx context.Context, params store.CreateKnowledgeParams) (*ontology.Knowledge, error) {
	kType := params.Type
	if kType == "" {
		kType = ontology.KnowledgeTypeLabel
	}
	if !kType.Valid() {
		return nil, store.NewValidationError("knowledgeType", "unknown knowledge type %q", kType)
	}
	content := util.SanitizePostgresText(params.Content)
	if kType != ontology.KnowledgeTypeVectorOnly && strings.TrimSpace(content) == "" {
		return nil, store.NewValidationError("content", "must not be empty")
	}
	if err := validateProps("metadata", params.Metadata); err != nil {
		return nil, err
	}

	embedding := params.Embedding
	model := params.EmbeddingModel
	if embedding != nil {
		if len(embedding) != embed.Dimensions() {
			return nil, store.NewValidationError("embedding", "expected %d dimensions, got %d", embed.Dimensions(), len(embedding))
		}
	} else if s.embedder != nil && strings.TrimSpace(content) != "" {
		var err error
		embedding, err = s.embedder.Embed(ctx, []byte(content))
		if err != nil {
			return nil, fmt.Errorf("embedding content: %w", err)
		}
		model = s.embedder.ModelID()
	}
	if kType == ontology.KnowledgeTypeVectorOnly && embedding == nil {
		return nil, store.NewValidationError("embedding", "required for vector_only knowledge")
	}

	labels := store.NormalizeLabels(params.Labels)
	metadata, err := marshalProps(params.Metadata)
	if err != nil {
		return nil, err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.requireActiveGroup(ctx, tx, params.GroupID); err != nil {
		return nil, err
	}
	if err := s.checkKnowledgeQuota(ctx, tx, params.GroupID, 1); err != nil {
		return nil, err
	}
	if params.SourceThingID != nil {
		missing, err := s.missingThings(ctx, tx, params.GroupID, []string{*params.SourceThingID})
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return nil, store.NewValidationError("sourceThingId", "thing %s not found in group %s", *params.SourceThingID, params.GroupID)
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, createKnowledgeQuery,
		id, params.GroupID, params.SourceThingID, content, vecArg(embedding),
		optionalID(model), labels, kType, metadata,
	)
	knowledge, err := scanKnowledge(row)
	if err != nil {
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  params.GroupID,
		Type:     ontology.EventKnowledgeCreated,
		ActorID:  optionalID(params.ActorID),
		TargetID: params.SourceThingID,
		Metadata: ontology.Properties{"knowledge_id": knowledge.ID, "knowledge_type": string(kType)},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Debug("[Store][CreateKnowledge] Knowledge created",
		"group", knowledge.GroupID, "knowledge", knowledge.ID, "type", string(kType))
	return knowledge, nil
}

func (s *Store) getKnowledge(ctx context.Context, q querier, groupID, id string) (*ontology.Knowledge, error) {
	knowledge, err := scanKnowledge(q.QueryRow(ctx, getKnowledgeQuery, groupID, id))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.NewNotFoundError("knowledge", id)
		}
		return nil, err
	}
	return knowledge, nil
}

// GetKnowledge returns one knowledge row within the given group.
func (s *Store) GetKnowledge(ctx context.Context, groupID, id string) (*ontology.Knowledge, error) {
	return s.getKnowledge(ctx, s.conn, groupID, id)
}

// UpdateKnowledge applies a partial patch. A content change regenerates
// the embedding in the same write; updating content on an embedded row
// without an embedder configured is an error, because the stale vector
// would silently corrupt every later search.
func (s *Store) UpdateKnowledge(ctx context.Context, params store.UpdateKnowledgeParams) (*ontology.Knowledge, error) {
	if params.Metadata != nil {
		if err := validateProps("metadata", params.Metadata); err != nil {
			return nil, err
		}
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	existing, err := s.getKnowledge(ctx, tx, params.GroupID, params.ID)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, 3)
	var contentArg *string
	var newEmbedding []float32
	newModel := ""
	if params.Content != nil {
		content := util.SanitizePostgresText(*params.Content)
		if existing.Type != ontology.KnowledgeTypeVectorOnly && strings.TrimSpace(content) == "" {
			return nil, store.NewValidationError("content", "must not be empty")
		}
		if content != existing.Content {
			changed = append(changed, "content")
			contentArg = &content
			if s.embedder != nil && strings.TrimSpace(content) != "" {
				newEmbedding, err = s.embedder.Embed(ctx, []byte(content))
				if err != nil {
					return nil, fmt.Errorf("re-embedding content: %w", err)
				}
				newModel = s.embedder.ModelID()
			} else if len(existing.Embedding) > 0 {
				return nil, fmt.Errorf("content of %s changed but no embedder is configured to regenerate its embedding", params.ID)
			}
		}
	}

	var labels []string
	if params.Labels != nil {
		labels = store.NormalizeLabels(params.Labels)
		changed = append(changed, "labels")
	}
	var metadata []byte
	if params.Metadata != nil {
		if metadata, err = marshalProps(params.Metadata); err != nil {
			return nil, err
		}
		changed = append(changed, "metadata")
	}
	if len(changed) == 0 {
		return existing, nil
	}

	row := tx.QueryRow(ctx, updateKnowledgeQuery,
		params.GroupID, params.ID, contentArg, vecArg(newEmbedding),
		optionalID(newModel), labels, metadata,
	)
	knowledge, err := scanKnowledge(row)
	if err != nil {
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  params.GroupID,
		Type:     ontology.EventKnowledgeUpdated,
		ActorID:  optionalID(params.ActorID),
		TargetID: knowledge.SourceThingID,
		Metadata: ontology.Properties{"knowledge_id": knowledge.ID, "fields": changed},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return knowledge, nil
}

// DeleteKnowledge removes one knowledge row. Unlike Events, knowledge
// is deletable; the deletion itself is still recorded in the log.
func (s *Store) DeleteKnowledge(ctx context.Context, groupID, id, actorID string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	knowledge, err := scanKnowledge(tx.QueryRow(ctx, deleteKnowledgeQuery, groupID, id))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return store.NewNotFoundError("knowledge", id)
		}
		return err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  groupID,
		Type:     ontology.EventKnowledgeDeleted,
		ActorID:  optionalID(actorID),
		TargetID: knowledge.SourceThingID,
		Metadata: ontology.Properties{"knowledge_id": knowledge.ID},
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SearchKnowledge embeds the query text and ranks the group's embedded
// rows by cosine similarity, ties broken by most recent update.
func (s *Store) SearchKnowledge(ctx context.Context, groupID, query string, limit int) ([]store.KnowledgeMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, store.NewValidationError("query", "must not be empty")
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedder configured for similarity search")
	}

	queryVec, err := s.embedder.Embed(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.conn.Query(ctx, searchKnowledgeQuery,
		groupID, pgvector.NewVector(queryVec), clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanKnowledgeMatch)
}

// KnowledgeByLabel returns rows carrying an exact label, most recently
// updated first.
func (s *Store) KnowledgeByLabel(ctx context.Context, groupID, label string, limit int) ([]ontology.Knowledge, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, store.NewValidationError("label", "must not be empty")
	}

	rows, err := s.conn.Query(ctx, knowledgeByLabelQuery, groupID, label, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanKnowledge)
}

// ListLabels returns the distinct labels used within a group, sorted.
func (s *Store) ListLabels(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.conn.Query(ctx, listLabelsQuery, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		out = append(out, label)
	}
	return out, rows.Err()
}

// KnowledgeByThing returns the rows sourced from one Thing, most
// recently updated first.
func (s *Store) KnowledgeByThing(ctx context.Context, groupID, thingID string) ([]ontology.Knowledge, error) {
	rows, err := s.conn.Query(ctx, knowledgeByThingQuery, groupID, thingID, maxListLimit)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanKnowledge)
}

// LinkKnowledgeToThing sets or overwrites the source Thing of a
// knowledge row.
func (s *Store) LinkKnowledgeToThing(ctx context.Context, groupID, knowledgeID, thingID, actorID string) (*ontology.Knowledge, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.getThing(ctx, tx, groupID, thingID); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, linkKnowledgeQuery, groupID, knowledgeID, thingID)
	knowledge, err := scanKnowledge(row)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.NewNotFoundError("knowledge", knowledgeID)
		}
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  groupID,
		Type:     ontology.EventKnowledgeLinked,
		ActorID:  optionalID(actorID),
		TargetID: &thingID,
		Metadata: ontology.Properties{"knowledge_id": knowledge.ID},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return knowledge, nil
}

// ReembedKnowledge regenerates embeddings for every row of a group
// whose embedding is missing or was produced by a different model than
// the configured one. It returns the number of rows updated. Rows
// without content cannot be re-embedded and are skipped.
func (s *Store) ReembedKnowledge(ctx context.Context, groupID string) (int, error) {
	if s.embedder == nil {
		return 0, fmt.Errorf("no embedder configured")
	}
	model := s.embedder.ModelID()

	rows, err := s.conn.Query(ctx, staleKnowledgeQuery, groupID, model)
	if err != nil {
		return 0, err
	}
	type staleRow struct {
		id      string
		content string
	}
	stale := make([]staleRow, 0)
	for rows.Next() {
		var row staleRow
		if err := rows.Scan(&row.id, &row.content); err != nil {
			rows.Close()
			return 0, err
		}
		stale = append(stale, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	updated := 0
	err = store.ChunkRange(len(stale), reembedBatchSize, func(start, end int) error {
		batch := stale[start:end]
		inputs := make([][]byte, len(batch))
		for i := range batch {
			inputs[i] = []byte(batch[i].content)
		}
		embeddings, err := embed.EmbedTexts(ctx, s.embedder, inputs)
		if err != nil {
			return err
		}

		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		for i := range batch {
			_, err := tx.Exec(ctx, setEmbeddingQuery, groupID, batch[i].id, pgvector.NewVector(embeddings[i]), model)
			if err != nil {
				return err
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		updated += len(batch)
		logger.Debug("[Store][ReembedKnowledge] Batch re-embedded", "group", groupID, "count", len(batch))
		return nil
	})
	if err != nil {
		return updated, err
	}

	_, err = s.appendEvent(ctx, s.conn, store.AppendEventParams{
		GroupID:  groupID,
		Type:     ontology.EventKnowledgeUpdated,
		Metadata: ontology.Properties{"reembedded": updated, "embedding_model": model},
	})
	if err != nil {
		return updated, err
	}
	return updated, nil
}

func (s *Store) checkKnowledgeQuota(ctx context.Context, q querier, groupID string, adding int64) error {
	if s.quotas.MaxKnowledge <= 0 {
		return nil
	}
	var current int64
	if err := q.QueryRow(ctx, countKnowledgeQuery, groupID).Scan(&current); err != nil {
		return err
	}
	if current+adding > s.quotas.MaxKnowledge {
		return store.NewQuotaExceededError("knowledge", s.quotas.MaxKnowledge, current)
	}
	return nil
}
