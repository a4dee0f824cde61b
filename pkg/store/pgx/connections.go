package pgx

import (
	"context"
	"errors"

	"github.com/trellishq/trellis/backend/pkg/logger"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const createConnectionQuery = `
INSERT INTO connections (id, group_id, from_id, to_id, type, metadata, strength, valid_from, valid_to)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + connectionColumns

const upsertConnectionQuery = `
INSERT INTO connections (id, group_id, from_id, to_id, type, metadata, strength, valid_from, valid_to)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (group_id, from_id, to_id, type) DO UPDATE SET
	metadata = EXCLUDED.metadata,
	strength = EXCLUDED.strength,
	valid_from = EXCLUDED.valid_from,
	valid_to = EXCLUDED.valid_to,
	updated_at = now()
RETURNING ` + connectionColumns + `, (xmax = 0) AS inserted`

const getConnectionQuery = `SELECT ` + connectionColumns + ` FROM connections WHERE group_id = $1 AND id = $2`

const listConnectionsFromQuery = `
SELECT ` + connectionColumns + `
FROM connections
WHERE group_id = $1 AND from_id = $2
  AND ($3::text IS NULL OR type = $3)
ORDER BY created_at DESC, id
LIMIT $4 OFFSET $5`

const listConnectionsToQuery = `
SELECT ` + connectionColumns + `
FROM connections
WHERE group_id = $1 AND to_id = $2
  AND ($3::text IS NULL OR type = $3)
ORDER BY created_at DESC, id
LIMIT $4 OFFSET $5`

const listConnectionsBetweenQuery = `
SELECT ` + connectionColumns + `
FROM connections
WHERE group_id = $1
  AND ((from_id = $2 AND to_id = $3) OR (from_id = $3 AND to_id = $2))
  AND ($4::text IS NULL OR type = $4)
ORDER BY created_at DESC, id
LIMIT $5 OFFSET $6`

const deleteConnectionQuery = `DELETE FROM connections WHERE group_id = $1 AND id = $2 RETURNING ` + connectionColumns

const countConnectionsQuery = `SELECT COUNT(*) FROM connections WHERE group_id = $1`

const thingsExistQuery = `SELECT id FROM things WHERE group_id = $1 AND id = ANY($2)`

func validateConnectionInput(input store.ConnectionInput) error {
	if input.FromID == "" {
		return store.NewValidationError("fromId", "must not be empty")
	}
	if input.ToID == "" {
		return store.NewValidationError("toId", "must not be empty")
	}
	if input.FromID == input.ToID {
		return store.NewValidationError("toId", "self-loops are not allowed")
	}
	if !input.Type.Valid() {
		return store.NewValidationError("type", "unknown connection type %q", input.Type)
	}
	if err := validateStrength(input.Strength); err != nil {
		return err
	}
	if err := validateProps("metadata", input.Metadata); err != nil {
		return err
	}
	if input.ValidFrom != nil && input.ValidTo != nil && input.ValidTo.Before(*input.ValidFrom) {
		return store.NewValidationError("validTo", "must not precede validFrom")
	}
	return nil
}

// missingThings returns the subset of ids with no Thing row in the
// group. Used to verify connection endpoints before writing.
func (s *Store) missingThings(ctx context.Context, q querier, groupID string, ids []string) (map[string]struct{}, error) {
	ids = store.DedupeStrings(ids)
	rows, err := q.Query(ctx, thingsExistQuery, groupID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	missing := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing[id] = struct{}{}
		}
	}
	return missing, nil
}

func endpointError(missing map[string]struct{}, input store.ConnectionInput, groupID string) error {
	if _, ok := missing[input.FromID]; ok {
		return store.NewValidationError("fromId", "thing %s not found in group %s", input.FromID, groupID)
	}
	if _, ok := missing[input.ToID]; ok {
		return store.NewValidationError("toId", "thing %s not found in group %s", input.ToID, groupID)
	}
	return nil
}

// CreateConnection creates a typed directed edge between two Things of
// the same group. A live edge with the same (from, to, type) key makes
// this a DuplicateError; use UpsertConnection to converge instead.
func (s *Store) CreateConnection(ctx context.Context, params store.CreateConnectionParams) (*ontology.Connection, error) {
	if err := validateConnectionInput(params.ConnectionInput); err != nil {
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
	if err := s.checkConnectionQuota(ctx, tx, params.GroupID, 1); err != nil {
		return nil, err
	}
	missing, err := s.missingThings(ctx, tx, params.GroupID, []string{params.FromID, params.ToID})
	if err != nil {
		return nil, err
	}
	if err := endpointError(missing, params.ConnectionInput, params.GroupID); err != nil {
		return nil, err
	}

	conn, err := s.insertConnection(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, connectionEventParams(ontology.EventConnectionCreated, conn, params.ActorID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Debug("[Store][CreateConnection] Connection created",
		"group", conn.GroupID, "connection", conn.ID, "type", string(conn.Type))
	return conn, nil
}

func (s *Store) insertConnection(ctx context.Context, q querier, params store.CreateConnectionParams) (*ontology.Connection, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	metadata, err := marshalProps(params.Metadata)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, createConnectionQuery,
		id, params.GroupID, params.FromID, params.ToID, params.Type,
		metadata, params.Strength, params.ValidFrom, params.ValidTo,
	)
	conn, err := scanConnection(row)
	if err != nil {
		if isUniqueViolation(err, "connections_edge_key") {
			return nil, store.NewDuplicateError("connection", "key", edgeKey(params.FromID, params.ToID, params.Type))
		}
		return nil, err
	}
	return conn, nil
}

// UpsertConnection converges on the (group, from, to, type) key: it
// creates the edge when absent and otherwise overwrites metadata,
// strength, and the validity window. Each call appends an Event either
// way.
func (s *Store) UpsertConnection(ctx context.Context, params store.CreateConnectionParams) (*ontology.Connection, error) {
	if err := validateConnectionInput(params.ConnectionInput); err != nil {
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
	missing, err := s.missingThings(ctx, tx, params.GroupID, []string{params.FromID, params.ToID})
	if err != nil {
		return nil, err
	}
	if err := endpointError(missing, params.ConnectionInput, params.GroupID); err != nil {
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

	var (
		conn     ontology.Connection
		meta     []byte
		inserted bool
	)
	err = tx.QueryRow(ctx, upsertConnectionQuery,
		id, params.GroupID, params.FromID, params.ToID, params.Type,
		metadata, params.Strength, params.ValidFrom, params.ValidTo,
	).Scan(
		&conn.ID, &conn.GroupID, &conn.FromID, &conn.ToID, &conn.Type, &meta,
		&conn.Strength, &conn.ValidFrom, &conn.ValidTo, &conn.CreatedAt, &conn.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, err
	}
	if conn.Metadata, err = unmarshalProps(meta); err != nil {
		return nil, err
	}

	// New rows count against the quota; overwrites do not.
	if inserted {
		if err := s.checkConnectionQuota(ctx, tx, params.GroupID, 0); err != nil {
			return nil, err
		}
	}

	eventType := ontology.EventConnectionUpdated
	if inserted {
		eventType = ontology.EventConnectionCreated
	}
	_, err = s.appendEvent(ctx, tx, connectionEventParams(eventType, &conn, params.ActorID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &conn, nil
}

// BulkCreateConnections creates all edges or none, verifying every
// endpoint in one query before the first insert.
func (s *Store) BulkCreateConnections(ctx context.Context, groupID string, items []store.ConnectionInput, actorID string) ([]ontology.Connection, error) {
	if len(items) == 0 {
		return []ontology.Connection{}, nil
	}
	if len(items) > maxBulkItems {
		return nil, store.NewValidationError("items", "at most %d items per bulk create, got %d", maxBulkItems, len(items))
	}
	endpointIDs := make([]string, 0, len(items)*2)
	for _, item := range items {
		if err := validateConnectionInput(item); err != nil {
			return nil, err
		}
		endpointIDs = append(endpointIDs, item.FromID, item.ToID)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.requireActiveGroup(ctx, tx, groupID); err != nil {
		return nil, err
	}
	if err := s.checkConnectionQuota(ctx, tx, groupID, int64(len(items))); err != nil {
		return nil, err
	}
	missing, err := s.missingThings(ctx, tx, groupID, endpointIDs)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := endpointError(missing, item, groupID); err != nil {
			return nil, err
		}
	}

	created := make([]ontology.Connection, 0, len(items))
	for _, item := range items {
		conn, err := s.insertConnection(ctx, tx, store.CreateConnectionParams{
			GroupID:         groupID,
			ConnectionInput: item,
		})
		if err != nil {
			return nil, err
		}
		_, err = s.appendEvent(ctx, tx, connectionEventParams(ontology.EventConnectionCreated, conn, actorID))
		if err != nil {
			return nil, err
		}
		created = append(created, *conn)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Debug("[Store][BulkCreateConnections] Connections created", "group", groupID, "count", len(created))
	return created, nil
}

// GetConnection returns one edge within the given group.
func (s *Store) GetConnection(ctx context.Context, groupID, id string) (*ontology.Connection, error) {
	conn, err := scanConnection(s.conn.QueryRow(ctx, getConnectionQuery, groupID, id))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.NewNotFoundError("connection", id)
		}
		return nil, err
	}
	return conn, nil
}

// ListConnectionsFrom returns edges leaving FromID, optionally narrowed
// by type. Expired validity windows are not filtered; the window is
// advisory.
func (s *Store) ListConnectionsFrom(ctx context.Context, params store.ListConnectionsParams) ([]ontology.Connection, error) {
	rows, err := s.conn.Query(ctx, listConnectionsFromQuery,
		params.GroupID, params.FromID, optionalEnum(params.Type),
		clampLimit(params.Limit), max(params.Offset, 0),
	)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanConnection)
}

// ListConnectionsTo returns edges arriving at ToID, optionally narrowed
// by type.
func (s *Store) ListConnectionsTo(ctx context.Context, params store.ListConnectionsParams) ([]ontology.Connection, error) {
	rows, err := s.conn.Query(ctx, listConnectionsToQuery,
		params.GroupID, params.ToID, optionalEnum(params.Type),
		clampLimit(params.Limit), max(params.Offset, 0),
	)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanConnection)
}

// ListConnectionsBetween returns edges between FromID and ToID in either
// direction, optionally narrowed by type.
func (s *Store) ListConnectionsBetween(ctx context.Context, params store.ListConnectionsParams) ([]ontology.Connection, error) {
	rows, err := s.conn.Query(ctx, listConnectionsBetweenQuery,
		params.GroupID, params.FromID, params.ToID, optionalEnum(params.Type),
		clampLimit(params.Limit), max(params.Offset, 0),
	)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanConnection)
}

// DeleteConnection hard-deletes one edge. Expiry through validTo is the
// preferred way to end a relationship; delete exists for actual
// mistakes.
func (s *Store) DeleteConnection(ctx context.Context, groupID, id, actorID string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	conn, err := scanConnection(tx.QueryRow(ctx, deleteConnectionQuery, groupID, id))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return store.NewNotFoundError("connection", id)
		}
		return err
	}

	_, err = s.appendEvent(ctx, tx, connectionEventParams(ontology.EventConnectionDeleted, conn, actorID))
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// connectionEventParams builds the audit Event for a connection
// mutation. The from endpoint serves as the Event target so a Thing's
// event history includes its relationship changes.
func connectionEventParams(eventType ontology.EventType, conn *ontology.Connection, actorID string) store.AppendEventParams {
	return store.AppendEventParams{
		GroupID:  conn.GroupID,
		Type:     eventType,
		ActorID:  optionalID(actorID),
		TargetID: &conn.FromID,
		Metadata: ontology.Properties{
			"connection_id":   conn.ID,
			"connection_type": string(conn.Type),
			"to_id":           conn.ToID,
		},
	}
}

func edgeKey(fromID, toID string, connType ontology.ConnectionType) string {
	return fromID + "/" + toID + "/" + string(connType)
}

func (s *Store) checkConnectionQuota(ctx context.Context, q querier, groupID string, adding int64) error {
	if s.quotas.MaxConnections <= 0 {
		return nil
	}
	var current int64
	if err := q.QueryRow(ctx, countConnectionsQuery, groupID).Scan(&current); err != nil {
		return err
	}
	if current+adding > s.quotas.MaxConnections {
		return store.NewQuotaExceededError("connections", s.quotas.MaxConnections, current)
	}
	return nil
}
