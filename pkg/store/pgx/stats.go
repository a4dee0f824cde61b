package pgx

import (
	"context"

	"github.com/trellishq/trellis/backend/pkg/ontology"
)

const groupStatsQuery = `
SELECT
	(SELECT COUNT(*) FROM things WHERE group_id = $1),
	(SELECT COUNT(*) FROM connections WHERE group_id = $1),
	(SELECT COUNT(*) FROM events WHERE group_id = $1),
	(SELECT COUNT(*) FROM knowledge WHERE group_id = $1),
	(SELECT COUNT(*) FROM groups WHERE parent_group_id = $1)`

// GroupStats returns per-dimension row counts for one group. Child
// groups are direct children only, not the whole subtree.
func (s *Store) GroupStats(ctx context.Context, groupID string) (*ontology.GroupStats, error) {
	if _, err := s.getGroup(ctx, s.conn, groupID); err != nil {
		return nil, err
	}

	stats := ontology.GroupStats{GroupID: groupID}
	err := s.conn.QueryRow(ctx, groupStatsQuery, groupID).Scan(
		&stats.Things, &stats.Connections, &stats.Events, &stats.Knowledge, &stats.ChildGroups,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
