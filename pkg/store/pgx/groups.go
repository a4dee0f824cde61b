package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/trellishq/trellis/backend/pkg/logger"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

// maxHierarchyDepth bounds every hierarchy traversal. A well-formed
// tenant tree is far shallower; the bound exists so a corrupted parent
// chain can never loop a request.
const maxHierarchyDepth = 32

const createGroupQuery = `
INSERT INTO groups (id, slug, name, type, parent_group_id, status, settings)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + groupColumns

const getGroupQuery = `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`

const getGroupBySlugQuery = `SELECT ` + groupColumns + ` FROM groups WHERE slug = $1`

const listGroupsQuery = `
SELECT ` + groupColumns + `
FROM groups
WHERE ($1::text IS NULL OR parent_group_id = $1)
  AND ($2::text IS NULL OR status = $2)
ORDER BY created_at, id
LIMIT $3 OFFSET $4`

const subtreeQuery = `
WITH RECURSIVE subtree AS (
	SELECT ` + groupColumns + `, 0 AS depth, ARRAY[id] AS path
	FROM groups
	WHERE id = $1
	UNION ALL
	SELECT g.id, g.slug, g.name, g.type, g.parent_group_id, g.status,
	       g.settings, g.created_at, g.updated_at, s.depth + 1, s.path || g.id
	FROM groups g
	JOIN subtree s ON g.parent_group_id = s.id
	WHERE s.depth < $2 AND NOT g.id = ANY(s.path)
)
SELECT ` + groupColumns + ` FROM subtree`

const isDescendantQuery = `
WITH RECURSIVE ancestors AS (
	SELECT id, parent_group_id, ARRAY[id] AS path
	FROM groups
	WHERE id = $1
	UNION ALL
	SELECT g.id, g.parent_group_id, a.path || g.id
	FROM groups g
	JOIN ancestors a ON g.id = a.parent_group_id
	WHERE cardinality(a.path) <= $3 AND NOT g.id = ANY(a.path)
)
SELECT EXISTS (SELECT 1 FROM ancestors WHERE id = $2 AND id <> $1)`

const updateGroupQuery = `
UPDATE groups SET
	name = COALESCE($2, name),
	settings = COALESCE($3, settings),
	updated_at = now()
WHERE id = $1
RETURNING ` + groupColumns

const setGroupStatusQuery = `
UPDATE groups SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + groupColumns

const countChildGroupsQuery = `SELECT COUNT(*) FROM groups WHERE parent_group_id = $1`

// CreateGroup creates a tenant group. The slug must be globally unique;
// when a parent is given it must exist and be active.
func (s *Store) CreateGroup(ctx context.Context, params store.CreateGroupParams) (*ontology.Group, error) {
	if err := validateSlug(params.Slug); err != nil {
		return nil, err
	}
	if err := validateName("name", params.Name); err != nil {
		return nil, err
	}
	if !params.Type.Valid() {
		return nil, store.NewValidationError("type", "unknown group type %q", params.Type)
	}
	if err := validateProps("settings", params.Settings); err != nil {
		return nil, err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if params.ParentGroupID != nil {
		parent, err := s.getGroup(ctx, tx, *params.ParentGroupID)
		if err != nil {
			return nil, err
		}
		if parent.Status != ontology.GroupStatusActive {
			return nil, store.NewValidationError("parentGroupId", "parent group %s is archived", parent.ID)
		}
		if err := s.checkChildGroupQuota(ctx, tx, parent.ID, 1); err != nil {
			return nil, err
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	settings, err := marshalProps(params.Settings)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, createGroupQuery,
		id, params.Slug, params.Name, params.Type, params.ParentGroupID,
		ontology.GroupStatusActive, settings,
	)
	group, err := scanGroup(row)
	if err != nil {
		if isUniqueViolation(err, "groups_slug_key") {
			return nil, store.NewDuplicateError("group", "slug", params.Slug)
		}
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  group.ID,
		Type:     ontology.EventGroupCreated,
		ActorID:  optionalID(params.ActorID),
		Metadata: ontology.Properties{"slug": group.Slug, "group_type": string(group.Type)},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Debug("[Store][CreateGroup] Group created", "group", group.ID, "slug", group.Slug)
	return group, nil
}

func (s *Store) getGroup(ctx context.Context, q querier, id string) (*ontology.Group, error) {
	group, err := scanGroup(q.QueryRow(ctx, getGroupQuery, id))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.NewNotFoundError("group", id)
		}
		return nil, err
	}
	return group, nil
}

// GetGroup returns one group by id.
func (s *Store) GetGroup(ctx context.Context, id string) (*ontology.Group, error) {
	return s.getGroup(ctx, s.conn, id)
}

// GetGroupBySlug returns one group by its globally unique slug.
func (s *Store) GetGroupBySlug(ctx context.Context, slug string) (*ontology.Group, error) {
	group, err := scanGroup(s.conn.QueryRow(ctx, getGroupBySlugQuery, slug))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.NewNotFoundError("group", slug)
		}
		return nil, err
	}
	return group, nil
}

// ListGroups returns groups filtered by parent and/or status, ordered by
// creation time. Nil filters are ignored.
func (s *Store) ListGroups(ctx context.Context, params store.ListGroupsParams) ([]ontology.Group, error) {
	rows, err := s.conn.Query(ctx, listGroupsQuery,
		params.ParentGroupID, optionalEnum(params.Status),
		clampLimit(params.Limit), max(params.Offset, 0),
	)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanGroup)
}

// GetHierarchy returns the root group and its descendants in
// breadth-first order. maxDepth bounds the traversal; values outside
// (0, maxHierarchyDepth] are clamped to maxHierarchyDepth. Rows whose
// parent chain forms a cycle are unreachable from the root and are
// silently excluded rather than looping the query.
func (s *Store) GetHierarchy(ctx context.Context, rootID string, maxDepth int) ([]ontology.Group, error) {
	if maxDepth <= 0 || maxDepth > maxHierarchyDepth {
		maxDepth = maxHierarchyDepth
	}

	rows, err := s.conn.Query(ctx, subtreeQuery, rootID, maxDepth)
	if err != nil {
		return nil, err
	}
	groups, err := collectRows(rows, scanGroup)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, store.NewNotFoundError("group", rootID)
	}
	return orderSubtree(rootID, groups, maxDepth), nil
}

// GetPath returns the ancestor chain of a group, root first, ending with
// the group itself. A cycle in the parent chain is a data integrity
// failure and returns an error rather than a partial path.
func (s *Store) GetPath(ctx context.Context, groupID string) ([]ontology.Group, error) {
	group, err := s.getGroup(ctx, s.conn, groupID)
	if err != nil {
		return nil, err
	}

	path := []ontology.Group{*group}
	seen := map[string]struct{}{group.ID: {}}
	current := group
	for current.ParentGroupID != nil {
		if len(path) > maxHierarchyDepth {
			return nil, fmt.Errorf("ancestor chain of group %s exceeds depth %d", groupID, maxHierarchyDepth)
		}
		parentID := *current.ParentGroupID
		if _, ok := seen[parentID]; ok {
			return nil, fmt.Errorf("cycle in ancestor chain of group %s at %s", groupID, parentID)
		}
		parent, err := s.getGroup(ctx, s.conn, parentID)
		if err != nil {
			return nil, err
		}
		seen[parentID] = struct{}{}
		path = append(path, *parent)
		current = parent
	}

	reversePath(path)
	return path, nil
}

// IsDescendantOf reports whether groupID sits strictly below ancestorID
// in the tenant tree. A group is not its own descendant; unknown ids
// simply report false.
func (s *Store) IsDescendantOf(ctx context.Context, groupID, ancestorID string) (bool, error) {
	var isDescendant bool
	err := s.conn.QueryRow(ctx, isDescendantQuery, groupID, ancestorID, maxHierarchyDepth).Scan(&isDescendant)
	if err != nil {
		return false, err
	}
	return isDescendant, nil
}

// UpdateGroup applies a partial patch to name and settings. Nil fields
// stay untouched. Slug, type, and parent are immutable.
func (s *Store) UpdateGroup(ctx context.Context, params store.UpdateGroupParams) (*ontology.Group, error) {
	changed := make([]string, 0, 2)
	if params.Name != nil {
		if err := validateName("name", *params.Name); err != nil {
			return nil, err
		}
		changed = append(changed, "name")
	}
	var settings []byte
	if params.Settings != nil {
		if err := validateProps("settings", params.Settings); err != nil {
			return nil, err
		}
		var err error
		if settings, err = marshalProps(params.Settings); err != nil {
			return nil, err
		}
		changed = append(changed, "settings")
	}
	if len(changed) == 0 {
		return s.GetGroup(ctx, params.ID)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, updateGroupQuery, params.ID, params.Name, settings)
	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.NewNotFoundError("group", params.ID)
		}
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  group.ID,
		Type:     ontology.EventGroupUpdated,
		ActorID:  optionalID(params.ActorID),
		Metadata: ontology.Properties{"fields": changed},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return group, nil
}

// ArchiveGroup soft-deletes a group. Archiving an already archived
// group succeeds without writing anything.
func (s *Store) ArchiveGroup(ctx context.Context, id, actorID string) (*ontology.Group, error) {
	return s.setGroupStatus(ctx, id, actorID, ontology.GroupStatusArchived, ontology.EventGroupArchived)
}

// RestoreGroup reverses an archive. Restoring an active group succeeds
// without writing anything.
func (s *Store) RestoreGroup(ctx context.Context, id, actorID string) (*ontology.Group, error) {
	return s.setGroupStatus(ctx, id, actorID, ontology.GroupStatusActive, ontology.EventGroupRestored)
}

func (s *Store) setGroupStatus(
	ctx context.Context,
	id string,
	actorID string,
	status ontology.GroupStatus,
	eventType ontology.EventType,
) (*ontology.Group, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	group, err := s.getGroup(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if group.Status == status {
		return group, nil
	}

	row := tx.QueryRow(ctx, setGroupStatusQuery, id, status)
	group, err = scanGroup(row)
	if err != nil {
		return nil, err
	}

	_, err = s.appendEvent(ctx, tx, store.AppendEventParams{
		GroupID:  group.ID,
		Type:     eventType,
		ActorID:  optionalID(actorID),
		Metadata: ontology.Properties{"slug": group.Slug},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Debug("[Store][SetGroupStatus] Group status changed", "group", group.ID, "status", string(status))
	return group, nil
}

func (s *Store) checkChildGroupQuota(ctx context.Context, q querier, parentID string, adding int64) error {
	if s.quotas.MaxChildGroups <= 0 {
		return nil
	}
	var current int64
	if err := q.QueryRow(ctx, countChildGroupsQuery, parentID).Scan(&current); err != nil {
		return err
	}
	if current+adding > s.quotas.MaxChildGroups {
		return store.NewQuotaExceededError("child_groups", s.quotas.MaxChildGroups, current)
	}
	return nil
}
