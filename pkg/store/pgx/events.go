package pgx

import (
	"context"
	"errors"

	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"
)

const appendEventQuery = `
INSERT INTO events (id, group_id, type, actor_id, target_id, metadata)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + eventColumns

const listEventsQuery = `
SELECT ` + eventColumns + `
FROM events
WHERE group_id = $1
  AND ($2::text IS NULL OR type = $2)
  AND ($3::text IS NULL OR actor_id = $3)
  AND ($4::text IS NULL OR target_id = $4)
  AND ($5::timestamptz IS NULL OR timestamp >= $5)
  AND ($6::timestamptz IS NULL OR timestamp <= $6)
ORDER BY seq DESC
LIMIT $7 OFFSET $8`

const recentEventsQuery = `
SELECT ` + eventColumns + `
FROM events
WHERE group_id = $1
ORDER BY seq DESC
LIMIT $2`

const eventStatsQuery = `
SELECT type, COUNT(*)
FROM events
WHERE group_id = $1
GROUP BY type
ORDER BY COUNT(*) DESC, type`

// appendEvent is the single internal write hook for the event log.
// Every mutation calls it on its own transaction so the Event commits
// or rolls back together with the state change. The supplied actor is
// trusted; the caller has already authenticated it.
func (s *Store) appendEvent(ctx context.Context, q querier, params store.AppendEventParams) (*ontology.Event, error) {
	if err := validateEventInput(params.Type, params.Metadata); err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	metadata, err := marshalProps(params.Metadata)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, appendEventQuery,
		id, params.GroupID, params.Type, params.ActorID, params.TargetID, metadata,
	)
	return scanEvent(row)
}

// AppendEvent records a domain activity event. This is the only public
// write path into the log; Events are never updated or deleted. An
// actor, when given, must be an existing person-category Thing of the
// same group.
func (s *Store) AppendEvent(ctx context.Context, params store.AppendEventParams) (*ontology.Event, error) {
	if err := validateEventInput(params.Type, params.Metadata); err != nil {
		return nil, err
	}
	if _, err := s.getGroup(ctx, s.conn, params.GroupID); err != nil {
		return nil, err
	}
	if params.ActorID != nil {
		if err := s.requirePersonActor(ctx, s.conn, params.GroupID, *params.ActorID); err != nil {
			return nil, err
		}
	}
	return s.appendEvent(ctx, s.conn, params)
}

func (s *Store) requirePersonActor(ctx context.Context, q querier, groupID, actorID string) error {
	thing, err := s.getThing(ctx, q, groupID, actorID)
	if err != nil {
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			return store.NewValidationError("actorId", "actor %s not found in group %s", actorID, groupID)
		}
		return err
	}
	if !thing.Type.Person() {
		return store.NewValidationError("actorId", "actor must be a person-category thing, got type %q", thing.Type)
	}
	return nil
}

// ListEvents returns events newest first, narrowed by any combination
// of type, actor, target, and an inclusive time range.
func (s *Store) ListEvents(ctx context.Context, params store.ListEventsParams) ([]ontology.Event, error) {
	rows, err := s.conn.Query(ctx, listEventsQuery,
		params.GroupID, optionalEnum(params.Type), params.ActorID, params.TargetID,
		params.Since, params.Until,
		clampLimit(params.Limit), max(params.Offset, 0),
	)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanEvent)
}

// RecentEvents returns the newest events of a group in append order,
// newest first.
func (s *Store) RecentEvents(ctx context.Context, groupID string, limit int) ([]ontology.Event, error) {
	rows, err := s.conn.Query(ctx, recentEventsQuery, groupID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanEvent)
}

// EventStats returns per-type event counts for a group, most frequent
// first.
func (s *Store) EventStats(ctx context.Context, groupID string) ([]store.EventTypeCount, error) {
	rows, err := s.conn.Query(ctx, eventStatsQuery, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]store.EventTypeCount, 0)
	for rows.Next() {
		var row store.EventTypeCount
		if err := rows.Scan(&row.Type, &row.Count); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
