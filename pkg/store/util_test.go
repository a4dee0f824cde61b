package store

import (
	"errors"
	"reflect"
	"testing"
)

func TestChunkRange_CoversTotalOnce(t *testing.T) {
	var bounds [][2]int
	err := ChunkRange(10, 3, func(start, end int) error {
		bounds = append(bounds, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expected := [][2]int{{0, 3}, {3, 6}, {6, 9}, {9, 10}}
	if !reflect.DeepEqual(bounds, expected) {
		t.Fatalf("expected %v, got %v", expected, bounds)
	}
}

func TestChunkRange_EmptyTotal(t *testing.T) {
	err := ChunkRange(0, 3, func(start, end int) error {
		t.Fatalf("expected fn not to be called, got [%d,%d)", start, end)
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestChunkRange_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := ChunkRange(10, 2, func(start, end int) error {
		calls++
		if start == 4 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestChunkRange_ZeroChunkSizeTakesAll(t *testing.T) {
	var bounds [][2]int
	err := ChunkRange(5, 0, func(start, end int) error {
		bounds = append(bounds, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(bounds, [][2]int{{0, 5}}) {
		t.Fatalf("expected one full chunk, got %v", bounds)
	}
}

func TestDedupeStrings_PreservesFirstOccurrence(t *testing.T) {
	got := DedupeStrings([]string{"b", "a", "b", "c", "a"})
	if !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Fatalf("expected [b a c], got %v", got)
	}
}

func TestNormalizeLabels(t *testing.T) {
	got := NormalizeLabels([]string{" go ", "", "go", "  ", "postgres", "go"})
	if !reflect.DeepEqual(got, []string{"go", "postgres"}) {
		t.Fatalf("expected [go postgres], got %v", got)
	}
}
