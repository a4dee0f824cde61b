package pgx

import (
	"reflect"
	"testing"
	"time"

	"github.com/trellishq/trellis/backend/pkg/ontology"
)

func makeGroup(id string, parentID string, createdOffset int) ontology.Group {
	g := ontology.Group{
		ID:        id,
		Slug:      id,
		Name:      id,
		Type:      ontology.GroupTypeOrganization,
		Status:    ontology.GroupStatusActive,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(createdOffset) * time.Minute),
	}
	if parentID != "" {
		g.ParentGroupID = &parentID
	}
	return g
}

func idsOf(groups []ontology.Group) []string {
	out := make([]string, len(groups))
	for i := range groups {
		out[i] = groups[i].ID
	}
	return out
}

func TestOrderSubtree_BreadthFirst(t *testing.T) {
	groups := []ontology.Group{
		makeGroup("c2", "root", 3),
		makeGroup("root", "", 0),
		makeGroup("gc1", "c1", 4),
		makeGroup("c1", "root", 1),
		makeGroup("gc2", "c2", 5),
	}

	got := idsOf(orderSubtree("root", groups, maxHierarchyDepth))
	want := []string{"root", "c1", "c2", "gc1", "gc2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestOrderSubtree_DepthBound(t *testing.T) {
	groups := []ontology.Group{
		makeGroup("root", "", 0),
		makeGroup("c1", "root", 1),
		makeGroup("gc1", "c1", 2),
		makeGroup("ggc1", "gc1", 3),
	}

	got := idsOf(orderSubtree("root", groups, 1))
	want := []string{"root", "c1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestOrderSubtree_DropsCycleRows(t *testing.T) {
	// x and y reference each other and never attach to the root; they
	// must be excluded without hanging the traversal.
	groups := []ontology.Group{
		makeGroup("root", "", 0),
		makeGroup("c1", "root", 1),
		makeGroup("x", "y", 2),
		makeGroup("y", "x", 3),
	}

	got := idsOf(orderSubtree("root", groups, maxHierarchyDepth))
	want := []string{"root", "c1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestOrderSubtree_MissingRoot(t *testing.T) {
	groups := []ontology.Group{
		makeGroup("c1", "root", 1),
	}

	if got := orderSubtree("root", groups, maxHierarchyDepth); got != nil {
		t.Fatalf("expected nil for missing root, got %v", idsOf(got))
	}
}

func TestOrderSubtree_SiblingTieBreaksByID(t *testing.T) {
	groups := []ontology.Group{
		makeGroup("root", "", 0),
		makeGroup("b", "root", 1),
		makeGroup("a", "root", 1),
	}

	got := idsOf(orderSubtree("root", groups, maxHierarchyDepth))
	want := []string{"root", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestReversePath(t *testing.T) {
	path := []ontology.Group{
		makeGroup("leaf", "mid", 2),
		makeGroup("mid", "root", 1),
		makeGroup("root", "", 0),
	}

	reversePath(path)
	got := idsOf(path)
	want := []string{"root", "mid", "leaf"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}
