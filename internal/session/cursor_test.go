package session

import (
	"reflect"
	"testing"

	"github.com/hyperjump/interleave/internal/models"
)

func TestCursor(t *testing.T) {
	tests := []struct {
		name             string
		first, delta     int
		nSrc, nDst       int
		wantLen          int
		wantFirst        models.ChapterPair
		wantAfterForward models.ChapterPair
	}{
		{name: "aligned books", first: 0, delta: 0, nSrc: 3, nDst: 3, wantLen: 3,
			wantFirst: models.ChapterPair{Src: 0, Dst: 0}, wantAfterForward: models.ChapterPair{Src: 2, Dst: 2}},
		{name: "destination has a preface", first: 1, delta: 1, nSrc: 5, nDst: 5, wantLen: 3,
			wantFirst: models.ChapterPair{Src: 1, Dst: 2}, wantAfterForward: models.ChapterPair{Src: 3, Dst: 4}},
		{name: "negative delta", first: 0, delta: -1, nSrc: 4, nDst: 4, wantLen: 3,
			wantFirst: models.ChapterPair{Src: 1, Dst: 0}, wantAfterForward: models.ChapterPair{Src: 3, Dst: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(tt.first, tt.delta, tt.nSrc, tt.nDst)
			if c.Len() != tt.wantLen {
				t.Errorf("Len = %d, want %d", c.Len(), tt.wantLen)
			}
			if got := c.Pair(); got != tt.wantFirst {
				t.Errorf("first pair = %v, want %v", got, tt.wantFirst)
			}
			if got := c.Move(-5); got != tt.wantFirst {
				t.Errorf("moving back past the start = %v", got)
			}
			if got := c.Move(100); got != tt.wantAfterForward {
				t.Errorf("moving past the end = %v, want %v", got, tt.wantAfterForward)
			}
			if !c.Valid() {
				t.Error("cursor should stay valid")
			}
			if len(c.Pairs()) != tt.wantLen {
				t.Errorf("Pairs = %v", c.Pairs())
			}
		})
	}
}

func TestCursor_noPairs(t *testing.T) {
	c := NewCursor(5, 0, 3, 3)
	if c.Len() != 0 || c.Valid() || c.Pairs() != nil {
		t.Errorf("cursor past both books: len=%d valid=%v", c.Len(), c.Valid())
	}
}

func TestViewWindow(t *testing.T) {
	tests := []struct {
		center, size, n int
		lo, hi          int
	}{
		{center: 0, size: 10, n: 30, lo: 0, hi: 10},
		{center: 15, size: 10, n: 30, lo: 10, hi: 20},
		{center: 29, size: 10, n: 30, lo: 20, hi: 30},
		{center: 2, size: 10, n: 4, lo: 0, hi: 4},
		{center: 3, size: 0, n: 4, lo: 0, hi: 4},
	}
	for _, tt := range tests {
		lo, hi := viewWindow(tt.center, tt.size, tt.n)
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("viewWindow(%d, %d, %d) = [%d, %d), want [%d, %d)", tt.center, tt.size, tt.n, lo, hi, tt.lo, tt.hi)
		}
	}
}

func TestUnion(t *testing.T) {
	if got := union([]int{5, 1, 3}, []int{3, 2}); !reflect.DeepEqual(got, []int{1, 2, 3, 5}) {
		t.Errorf("union = %v", got)
	}
}
