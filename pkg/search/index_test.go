package search

import (
	"testing"

	"github.com/rossesmond/src-bot/pkg/models"
)

func testIndex() *Index {
	ix := NewIndex()
	ix.Rebuild("g", []models.Class{
		{Name: "stat-3021", Label: "Introduction to Statistical Analysis"},
		{Name: "stat-3701", Label: "Introduction to Statistical Computing"},
		{Name: "csci-1133", Label: "Introduction to Computing and Programming Concepts"},
		{Name: "writ-1301", Label: "University Writing"},
	})
	return ix
}

func TestReady(t *testing.T) {
	ix := NewIndex()
	if ix.Ready("g") {
		t.Error("unindexed guild should not be ready")
	}
	ix.Rebuild("g", nil)
	if !ix.Ready("g") {
		t.Error("guild should be ready after a rebuild, even an empty one")
	}
	if ix.Ready("other") {
		t.Error("readiness is per guild")
	}
}

func TestSearchExactNameRanksFirst(t *testing.T) {
	ix := testIndex()
	matches := ix.Search("g", "stat-3021")
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].Name != "stat-3021" {
		t.Errorf("top match = %q, want stat-3021", matches[0].Name)
	}
	if matches[0].Score != 0 {
		t.Errorf("exact match score = %d, want 0", matches[0].Score)
	}
}

func TestSearchMatchesLabels(t *testing.T) {
	ix := testIndex()
	matches := ix.Search("g", "university writing")
	if len(matches) == 0 || matches[0].Name != "writ-1301" {
		t.Fatalf("label search failed: %v", matches)
	}
}

func TestSearchNoMatch(t *testing.T) {
	ix := testIndex()
	if matches := ix.Search("g", "qqqqqqqqzzzzzzzz"); len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
	if matches := ix.Search("unknown-guild", "stat"); len(matches) != 0 {
		t.Errorf("unknown guild should yield no matches, got %v", matches)
	}
}

func TestSearchRebuildReplacesEntries(t *testing.T) {
	ix := testIndex()
	ix.Rebuild("g", []models.Class{{Name: "math-1001", Label: "College Algebra"}})
	if matches := ix.Search("g", "stat-3021"); len(matches) != 0 {
		t.Errorf("stale entries survived a rebuild: %v", matches)
	}
}

func TestQualityKeepsAllOnExactBest(t *testing.T) {
	matches := []Match{
		{Name: "stat-3021", Score: 0},
		{Name: "stat-3701", Score: 4},
	}
	kept := Quality(matches, 1000)
	if len(kept) != 2 {
		t.Fatalf("an exact best match must not eliminate the rest, kept %d", len(kept))
	}
}

func TestQualityCutsOutliers(t *testing.T) {
	matches := []Match{
		{Name: "close", Score: 1},
		{Name: "near", Score: 3},
		{Name: "far", Score: 5000},
	}
	kept := Quality(matches, 1000)
	if len(kept) != 2 || kept[0].Name != "close" || kept[1].Name != "near" {
		t.Fatalf("unexpected kept set: %v", kept)
	}
	if got := Quality(nil, 1000); len(got) != 0 {
		t.Errorf("empty input should stay empty, got %v", got)
	}
}
