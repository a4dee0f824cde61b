package pgx

import (
	"context"
	"errors"
	"strings"

	"github.com/trellishq/trellis/backend/internal/util"
	"github.com/trellishq/trellis/backend/pkg/logger"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

// maxBulkItems bounds a single bulk create so one request cannot hold a
// transaction open indefinitely.
const maxBulkItems = 1000

const createThingQuery = `
INSERT INTO things (id, group_id, type, name, properties, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + thingColumns

const getThingQuery = `SELECT ` + thingColumns + ` FROM things WHERE group_id = $1 AND id = $2`

const listThingsQuery = `
SELECT ` + thingColumns + `
FROM things
WHERE group_id = $1
  AND ($2::text IS NULL OR type = $2)
  AND ($3::text IS NULL OR status = $3)
ORDER BY created_at DESC, id
LIMIT $4 OFFSET $5`

const searchThingsQuery = `
SELECT ` + thingColumns + `
FROM things
WHERE group_id = $1
  AND (name ILIKE $2 OR properties::text ILIKE $2)
ORDER BY updated_at DESC, id
LIMIT $3`

const updateThingQuery = `
UPDATE things SET
	name = COALESCE($3, name),
	properties = COALESCE($4, properties),
	status = COALESCE($5, status),
	updated_at = now()
WHERE group_id = $1 AND id = $2
RETURNING ` + thingColumns

const setThingStatusQuery = `
UPDATE things SET status = $3, updated_at = now()
WHERE group_id = $1 AND id = $2
RETURNING ` + thingColumns

const countThingsQuery = `SELECT COUNT(*) FROM things WHERE group_id = $1`

const latestArchiveEventQuery = `
SELECT metadata FROM events
WHERE group_id = $1 AND target_id = $2 AND type = $3
ORDER BY seq DESC
LIMIT 1`

func validateThingInput(input store.ThingInput) error {
	if !input.Type.Valid() {
		return store.NewValidationError("type", "unknown thing type %q", input.Type)
	}
	if err := validateName("name", input.Name); err != nil {
		return err
	}
	if err := validateProps("properties", input.Properties); err != nil {
		return err
	}
	if input.Status != "" && !input.Status.Valid() {
		return store.NewValidationError("status", "unknown status %q", input.Status)
	}
	return nil
}

func (s *Store) requireActiveGroup(ctx context.Context, q querier, groupID string) (*ontology.Group, error) {
	group, err := s.getGroup(ctx, q, groupID)
	if err != nil {
		return nil, err
	}
	if group.Status != ontology.GroupStatusActive {
		return nil, store.NewValidationError("groupId", "group %s is archived", groupID)
	}
	return group, nil
}

// CreateThing validates and persists one Thing and its creation Event in
// a single transaction.
func (s *Store) CreateThing(ctx context.Context, params store.CreateThingParams) (*ontology.Thing, error) {
	if err := validateThingInput(params.ThingInput); err != nil {
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
	if err := s.checkThingQuota(ctx, tx, params.GroupID, 1); err != nil {
		return nil, err
	}

	thing, err := s.insertThing(ctx, tx, params.GroupID, params.ThingInput)
	if err != nil {
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  params.GroupID,
		Type:     ontology.EventThingCreated,
		ActorID:  optionalID(params.ActorID),
		TargetID: &thing.ID,
		Metadata: ontology.Properties{"thing_type": string(thing.Type)},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Debug("[Store][CreateThing] Thing created", "group", thing.GroupID, "thing", thing.ID, "type", string(thing.Type))
	return thing, nil
}

func (s *Store) insertThing(ctx context.Context, q querier, groupID string, input store.ThingInput) (*ontology.Thing, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	props, err := marshalProps(input.Properties)
	if err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = ontology.ThingStatusActive
	}

	row := q.QueryRow(ctx, createThingQuery,
		id, groupID, input.Type, util.SanitizePostgresText(input.Name), props, status,
	)
	return scanThing(row)
}

// BulkCreateThings creates all items or none. Validation runs over the
// whole batch before the first insert, so a bad item late in the batch
// never leaves earlier items behind.
func (s *Store) BulkCreateThings(ctx context.Context, groupID string, items []store.ThingInput, actorID string) ([]ontology.Thing, error) {
	if len(items) == 0 {
		return []ontology.Thing{}, nil
	}
	if len(items) > maxBulkItems {
		return nil, store.NewValidationError("items", "at most %d items per bulk create, got %d", maxBulkItems, len(items))
	}
	for _, item := range items {
		if err := validateThingInput(item); err != nil {
			return nil, err
		}
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.requireActiveGroup(ctx, tx, groupID); err != nil {
		return nil, err
	}
	if err := s.checkThingQuota(ctx, tx, groupID, int64(len(items))); err != nil {
		return nil, err
	}

	created := make([]ontology.Thing, 0, len(items))
	for _, item := range items {
		thing, err := s.insertThing(ctx, tx, groupID, item)
		if err != nil {
			return nil, err
		}
		_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
			GroupID:  groupID,
			Type:     ontology.EventThingCreated,
			ActorID:  optionalID(actorID),
			TargetID: &thing.ID,
			Metadata: ontology.Properties{"thing_type": string(thing.Type), "bulk": true},
		})
		if err != nil {
			return nil, err
		}
		created = append(created, *thing)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Debug("[Store][BulkCreateThings] Things created", "group", groupID, "count", len(created))
	return created, nil
}

func (s *Store) getThing(ctx context.Context, q querier, groupID, id string) (*ontology.Thing, error) {
	thing, err := scanThing(q.QueryRow(ctx, getThingQuery, groupID, id))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.NewNotFoundError("thing", id)
		}
		return nil, err
	}
	return thing, nil
}

// GetThing returns one Thing within the given group. Things in other
// groups are reported as not found.
func (s *Store) GetThing(ctx context.Context, groupID, id string) (*ontology.Thing, error) {
	return s.getThing(ctx, s.conn, groupID, id)
}

// ListThings returns Things in a group, optionally narrowed by type
// and/or status, most recently created first.
func (s *Store) ListThings(ctx context.Context, params store.ListThingsParams) ([]ontology.Thing, error) {
	rows, err := s.conn.Query(ctx, listThingsQuery,
		params.GroupID, optionalEnum(params.Type), optionalEnum(params.Status),
		clampLimit(params.Limit), max(params.Offset, 0),
	)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanThing)
}

// SearchThings performs a case-insensitive text match over name and
// properties. Semantic search lives in the knowledge index; this is the
// exact-text fallback.
func (s *Store) SearchThings(ctx context.Context, groupID, query string, limit int) ([]ontology.Thing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, store.NewValidationError("query", "must not be empty")
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.conn.Query(ctx, searchThingsQuery, groupID, pattern, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanThing)
}

// UpdateThing applies a partial patch. Nil fields stay untouched;
// Properties replace wholesale when present. GroupID is immutable and
// only scopes the lookup.
func (s *Store) UpdateThing(ctx context.Context, params store.UpdateThingParams) (*ontology.Thing, error) {
	changed := make([]string, 0, 3)
	if params.Name != nil {
		if err := validateName("name", *params.Name); err != nil {
			return nil, err
		}
		sanitized := util.SanitizePostgresText(*params.Name)
		params.Name = &sanitized
		changed = append(changed, "name")
	}
	var props []byte
	if params.Properties != nil {
		if err := validateProps("properties", params.Properties); err != nil {
			return nil, err
		}
		var err error
		if props, err = marshalProps(params.Properties); err != nil {
			return nil, err
		}
		changed = append(changed, "properties")
	}
	if params.Status != nil {
		if !params.Status.Valid() {
			return nil, store.NewValidationError("status", "unknown status %q", *params.Status)
		}
		changed = append(changed, "status")
	}
	if len(changed) == 0 {
		return s.GetThing(ctx, params.GroupID, params.ID)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, updateThingQuery,
		params.GroupID, params.ID, params.Name, props, optionalEnum(params.Status),
	)
	thing, err := scanThing(row)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.NewNotFoundError("thing", params.ID)
		}
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  params.GroupID,
		Type:     ontology.EventThingUpdated,
		ActorID:  optionalID(params.ActorID),
		TargetID: &thing.ID,
		Metadata: ontology.Properties{"fields": changed},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return thing, nil
}

// ArchiveThing soft-deletes a Thing, recording its pre-archive status
// on the Event so restore can put it back. Archiving an archived Thing
// succeeds without writing anything.
func (s *Store) ArchiveThing(ctx context.Context, groupID, id, actorID string) (*ontology.Thing, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	thing, err := s.getThing(ctx, tx, groupID, id)
	if err != nil {
		return nil, err
	}
	if thing.Status == ontology.ThingStatusArchived {
		return thing, nil
	}
	priorStatus := thing.Status

	row := tx.QueryRow(ctx, setThingStatusQuery, groupID, id, ontology.ThingStatusArchived)
	thing, err = scanThing(row)
	if err != nil {
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  groupID,
		Type:     ontology.EventThingArchived,
		ActorID:  optionalID(actorID),
		TargetID: &thing.ID,
		Metadata: ontology.Properties{"prior_status": string(priorStatus)},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return thing, nil
}

// RestoreThing reverses an archive, returning the Thing to the status
// recorded on its most recent archive Event (active when none exists).
// Restoring a Thing that is not archived succeeds without writing.
func (s *Store) RestoreThing(ctx context.Context, groupID, id, actorID string) (*ontology.Thing, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	thing, err := s.getThing(ctx, tx, groupID, id)
	if err != nil {
		return nil, err
	}
	if thing.Status != ontology.ThingStatusArchived {
		return thing, nil
	}

	var rawMetadata []byte
	err = tx.QueryRow(ctx, latestArchiveEventQuery, groupID, id, ontology.EventThingArchived).Scan(&rawMetadata)
	if err != nil && !errors.Is(err, pgxv5.ErrNoRows) {
		return nil, err
	}
	metadata, err := unmarshalProps(rawMetadata)
	if err != nil {
		return nil, err
	}
	restoredStatus := priorStatusFromMetadata(metadata)

	row := tx.QueryRow(ctx, setThingStatusQuery, groupID, id, restoredStatus)
	thing, err = scanThing(row)
	if err != nil {
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  groupID,
		Type:     ontology.EventThingRestored,
		ActorID:  optionalID(actorID),
		TargetID: &thing.ID,
		Metadata: ontology.Properties{"restored_status": string(restoredStatus)},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return thing, nil
}

// priorStatusFromMetadata extracts the pre-archive status recorded on an
// archive Event. Missing, malformed, or archived values fall back to
// active so restore always lands on a live status.
func priorStatusFromMetadata(metadata ontology.Properties) ontology.ThingStatus {
	raw, ok := metadata["prior_status"]
	if !ok {
		return ontology.ThingStatusActive
	}
	value, ok := raw.(string)
	if !ok {
		return ontology.ThingStatusActive
	}
	status := ontology.ThingStatus(value)
	if !status.Valid() || status == ontology.ThingStatusArchived {
		return ontology.ThingStatusActive
	}
	return status
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *Store) checkThingQuota(ctx context.Context, q querier, groupID string, adding int64) error {
	if s.quotas.MaxThings <= 0 {
		return nil
	}
	var current int64
	if err := q.QueryRow(ctx, countThingsQuery, groupID).Scan(&current); err != nil {
		return err
	}
	if current+adding > s.quotas.MaxThings {
		return store.NewQuotaExceededError("things", s.quotas.MaxThings, current)
	}
	return nil
}
