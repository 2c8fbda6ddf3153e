package keyword

import (
	"context"
	"testing"

	"github.com/hyperjump/interleave/internal/models"
)

func newIndex(t *testing.T, texts ...string) *ParagraphIndex {
	t.Helper()
	ch := &models.Chapter{}
	for i, text := range texts {
		ch.Paragraphs = append(ch.Paragraphs, models.Paragraph{Index: i, Text: text})
	}
	idx, err := NewParagraphIndex(ch)
	if err != nil {
		t.Fatalf("NewParagraphIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestParagraphIndex_Search(t *testing.T) {
	idx := newIndex(t,
		"The captain climbed onto the deck.",
		"Snow covered the harbour all winter.",
		"Nemo watched the harbour lights from the deck.",
	)
	if idx.Len() != 3 {
		t.Errorf("Len = %d", idx.Len())
	}

	hits, err := idx.Search(context.Background(), "harbour", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v, want 2", hits)
	}
	got := map[int]bool{}
	for _, h := range hits {
		got[h.Paragraph] = true
		if h.Score <= 0 {
			t.Errorf("hit %d has score %v", h.Paragraph, h.Score)
		}
	}
	if !got[1] || !got[2] {
		t.Errorf("hits = %+v, want paragraphs 1 and 2", hits)
	}

	hits, err = idx.Search(context.Background(), "NEMO", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Paragraph != 2 {
		t.Errorf("case-insensitive hits = %+v", hits)
	}
}

func TestParagraphIndex_Fuzzy(t *testing.T) {
	idx := newIndex(t, "The captain climbed onto the deck.", "Snow covered the harbour.")

	hits, err := idx.Search(context.Background(), "captian", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("exact search for a misspelling should miss, got %+v", hits)
	}

	hits, err = idx.Search(context.Background(), "captian snoww", 10, &SearchOptions{Fuzzy: true, Fuzziness: 2})
	if err != nil {
		t.Fatalf("fuzzy Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("fuzzy hits = %+v, want both paragraphs", hits)
	}
}

func TestParagraphIndex_EmptyQuery(t *testing.T) {
	idx := newIndex(t, "Anything.")
	hits, err := idx.Search(context.Background(), "   ", 10, nil)
	if err != nil || hits != nil {
		t.Errorf("blank query = %+v, %v", hits, err)
	}
}

func TestParagraphIndex_Limit(t *testing.T) {
	idx := newIndex(t, "whale", "whale whale", "whale again", "no match")
	hits, err := idx.Search(context.Background(), "whale", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("len = %d, want 2", len(hits))
	}
}
