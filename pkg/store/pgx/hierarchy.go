package pgx

import (
	"sort"

	"github.com/trellishq/trellis/backend/pkg/ontology"
)

// orderSubtree arranges groups fetched by the subtree query into
// breadth-first order: the root first, then each level in turn with
// siblings ordered by creation time. Groups not reachable from the root
// within maxDepth levels are dropped, so cyclic parent chains in the
// input cannot loop the traversal.
func orderSubtree(rootID string, groups []ontology.Group, maxDepth int) []ontology.Group {
	children := make(map[string][]int, len(groups))
	rootIdx := -1
	for i := range groups {
		if groups[i].ID == rootID {
			rootIdx = i
			continue
		}
		if groups[i].ParentGroupID == nil {
			continue
		}
		parentID := *groups[i].ParentGroupID
		children[parentID] = append(children[parentID], i)
	}
	if rootIdx == -1 {
		return nil
	}

	for _, idxs := range children {
		sort.Slice(idxs, func(a, b int) bool {
			ga, gb := groups[idxs[a]], groups[idxs[b]]
			if !ga.CreatedAt.Equal(gb.CreatedAt) {
				return ga.CreatedAt.Before(gb.CreatedAt)
			}
			return ga.ID < gb.ID
		})
	}

	type queueItem struct {
		idx   int
		depth int
	}
	out := make([]ontology.Group, 0, len(groups))
	visited := make(map[string]struct{}, len(groups))
	queue := []queueItem{{rootIdx, 0}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		group := groups[item.idx]
		if _, ok := visited[group.ID]; ok {
			continue
		}
		visited[group.ID] = struct{}{}
		out = append(out, group)
		if item.depth >= maxDepth {
			continue
		}
		for _, childIdx := range children[group.ID] {
			queue = append(queue, queueItem{childIdx, item.depth + 1})
		}
	}
	return out
}

func reversePath(path []ontology.Group) {
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
}
