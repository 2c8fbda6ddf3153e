package align

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/hyperjump/interleave/internal/errors"
)

func floats(xs ...int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

func TestConsensusPass_majority(t *testing.T) {
	in := ParagraphInput{
		GoodSrc:          []int{0, 1, 2, 3, 4},
		Interpolated:     floats(0, 1, 2, 3, 4),
		SrcParagraphOf:   []int{0, 0, 0, 0, 0},
		DstParagraphOf:   []int{3, 3, 3, 3, 9},
		NumSrcParagraphs: 1,
	}
	got := ConsensusPass(in, 0.6)
	if d, ok := got[0]; !ok || d != 3 {
		t.Errorf("got %v, want {0:3}", got)
	}
}

func TestConsensus(t *testing.T) {
	tests := []struct {
		name       string
		candidates []int
		want       int
		ok         bool
	}{
		{"four of five", []int{3, 3, 3, 3, 9}, 3, true},
		{"at threshold falls through", []int{3, 3, 3, 7, 9}, 0, false},
		{"contiguous run uses minimum", []int{5, 4, 5, 6, 4}, 4, true},
		{"scattered", []int{1, 4, 7}, 0, false},
		{"single vote", []int{8}, 8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := consensus(tt.candidates, 0.6)
			if got != tt.want || ok != tt.ok {
				t.Errorf("consensus(%v) = %d, %v; want %d, %v", tt.candidates, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestConsensus_tieGoesToFirstSeen(t *testing.T) {
	got, ok := consensus([]int{5, 3, 3, 5}, 0.4)
	if !ok || got != 5 {
		t.Errorf("got %d, %v; want 5", got, ok)
	}
}

func TestFillGaps(t *testing.T) {
	tests := []struct {
		name   string
		sparse map[int]int
		want   map[int]int
	}{
		{"gap of one", map[int]int{2: 2, 4: 4}, map[int]int{2: 2, 3: 3, 4: 4}},
		{"gap of two", map[int]int{0: 5, 3: 8}, map[int]int{0: 5, 1: 6, 2: 7, 3: 8}},
		{"gap of three is left", map[int]int{0: 0, 4: 4}, map[int]int{0: 0, 4: 4}},
		{"sizes disagree", map[int]int{0: 0, 2: 3}, map[int]int{0: 0, 2: 3}},
		{"no gap", map[int]int{0: 0, 1: 1}, map[int]int{0: 0, 1: 1}},
		{"leading gap needs two anchors", map[int]int{1: 1}, map[int]int{1: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FillGaps(tt.sparse); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FillGaps(%v) = %v, want %v", tt.sparse, got, tt.want)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten(map[int]int{0: 0, 2: 1, 7: 3}, 4)
	if !reflect.DeepEqual(got, []int{0, -1, 1, -1}) {
		t.Errorf("Flatten = %v", got)
	}
}

func TestAlignParagraphs_spikeAcrossTwoParagraphs(t *testing.T) {
	assign := []int{0, 1, 2, 3, 4, 5, 6, 2, 7, 8}
	flags := FlagOutOfOrder(assign, nil)
	paraOf := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	in := ParagraphInput{
		GoodSrc:          seq(10),
		Interpolated:     Interpolate(assign, flags),
		SrcParagraphOf:   paraOf,
		DstParagraphOf:   paraOf,
		NumSrcParagraphs: 2,
	}
	got, err := AlignParagraphs(in, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("mapping %v, want [0 1]", got)
	}
}

func TestAlignParagraphs_gapFilledAndUnmatched(t *testing.T) {
	// Source paragraphs 0..5 with one sentence each; paragraph 3 has no trusted
	// sentence and paragraph 5 votes for scattered destinations.
	in := ParagraphInput{
		GoodSrc:          []int{0, 1, 2, 4, 5, 6},
		Interpolated:     floats(0, 1, 2, 3, 4, 5, 7),
		SrcParagraphOf:   []int{0, 1, 2, 3, 4, 5, 5},
		DstParagraphOf:   []int{0, 1, 2, 3, 4, 6, 6, 9},
		NumSrcParagraphs: 6,
	}
	got, err := AlignParagraphs(in, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 2, 3, 4, -1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mapping %v, want %v", got, want)
	}
}

func TestAlignParagraphs_inputErrors(t *testing.T) {
	base := ParagraphInput{
		GoodSrc:          []int{0},
		Interpolated:     floats(0),
		SrcParagraphOf:   []int{0},
		DstParagraphOf:   []int{0},
		NumSrcParagraphs: 1,
	}
	tests := []struct {
		name      string
		mutate    func(*ParagraphInput)
		threshold float64
		kind      error
	}{
		{"threshold zero", func(*ParagraphInput) {}, 0, apperrors.ErrInput},
		{"threshold above one", func(*ParagraphInput) {}, 1.5, apperrors.ErrInput},
		{"no paragraphs", func(in *ParagraphInput) { in.NumSrcParagraphs = 0 }, 0.6, apperrors.ErrInput},
		{"no dst", func(in *ParagraphInput) { in.DstParagraphOf = nil }, 0.6, apperrors.ErrInput},
		{"bad sentence", func(in *ParagraphInput) { in.GoodSrc = []int{3} }, 0.6, apperrors.ErrInput},
		{"length mismatch", func(in *ParagraphInput) { in.Interpolated = nil }, 0.6, apperrors.ErrConsistency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			if _, err := AlignParagraphs(in, tt.threshold); !errors.Is(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}
