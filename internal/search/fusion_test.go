package search

import (
	"testing"

	"github.com/hyperjump/interleave/internal/keyword"
)

func TestNormalizeKeywordScores(t *testing.T) {
	hits := []keyword.Hit{
		{Paragraph: 0, Score: 2},
		{Paragraph: 1, Score: 4},
		{Paragraph: 2, Score: 1},
	}
	m := NormalizeKeywordScores(hits)
	if m[1] != 1.0 {
		t.Errorf("max score should be 1.0, got %f", m[1])
	}
	if m[0] != 0.5 {
		t.Errorf("paragraph 0 should be 0.5, got %f", m[0])
	}
	if len(m) != 3 {
		t.Errorf("expected 3 entries, got %d", len(m))
	}
	if len(NormalizeKeywordScores(nil)) != 0 {
		t.Error("no hits should give an empty map")
	}
}

func TestSemanticScores(t *testing.T) {
	query := []float32{1, 0}
	paragraphs := [][]float32{
		{0.6, 0.8},
		{-1, 0},
		{1, 0},
		{0, 1},
		{1, 0, 0},
	}
	got := SemanticScores(query, paragraphs, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 positive scores, got %v", got)
	}
	if got[2] != 1 || got[0] < 0.59 || got[0] > 0.61 {
		t.Errorf("unexpected scores %v", got)
	}

	top := SemanticScores(query, paragraphs, 1)
	if len(top) != 1 || top[2] != 1 {
		t.Errorf("limit 1: got %v", top)
	}
}

func TestFuse(t *testing.T) {
	kw := map[int]float64{1: 1.0, 2: 0.5}
	sem := map[int]float64{1: 0.5, 2: 1.0, 3: 0.2}
	results := Fuse(kw, sem, 0.5, 0.5)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Paragraph != 1 || results[1].Paragraph != 2 {
		t.Errorf("equal scores should order by paragraph: %+v", results)
	}
	if results[2].Paragraph != 3 || results[2].KeywordScore != 0 || results[2].SemanticScore != 0.2 {
		t.Errorf("semantic-only hit: %+v", results[2])
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Score < results[i].Score {
			t.Error("results should be sorted by score descending")
		}
	}
}

func TestFuse_keywordOnly(t *testing.T) {
	results := Fuse(map[int]float64{4: 0.8}, nil, 1, 0)
	if len(results) != 1 || results[0].Score != 0.8 {
		t.Errorf("got %+v", results)
	}
}
