package fixup

import (
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/models"
)

func TestSession_walkThroughPoints(t *testing.T) {
	s := NewSession([]int{0, 1, 9, 3, 4}, 10)
	if s.State() != Aligning {
		t.Fatalf("initial state %s", s.State())
	}
	p, ok := s.Next()
	if !ok {
		t.Fatal("expected a point")
	}
	want := models.FixupPoint{SrcIndex: 2, SuggestedDst: 2, CurrentDst: 9, LastConfirmedDst: 1, RemainingFlagged: 2}
	if *p != want {
		t.Errorf("point = %+v, want %+v", *p, want)
	}
	if s.State() != AwaitingUserChoice {
		t.Errorf("state %s", s.State())
	}

	if err := s.Pick(2, 2); err != nil {
		t.Fatal(err)
	}
	if s.State() != Done {
		t.Fatalf("expected Done after fixing the spike, got %s at %+v", s.State(), s.Point())
	}
	if !reflect.DeepEqual(s.Mapping(), []int{0, 1, 2, 3, 4}) {
		t.Errorf("mapping %v", s.Mapping())
	}
	if !reflect.DeepEqual(s.Fixed(), []int{2}) {
		t.Errorf("fixed %v", s.Fixed())
	}
	if err := s.Pick(2, 3); !errors.Is(err, apperrors.ErrInput) {
		t.Errorf("pick when done: expected input error, got %v", err)
	}
}

func TestSession_fixedPointNotRevisited(t *testing.T) {
	s := NewSession([]int{0, 1, 9, 3, 4}, 10, WithFixed([]int{2}))
	p, ok := s.Next()
	if !ok || p.SrcIndex != 3 {
		t.Fatalf("expected point at 3, got %+v", p)
	}
	if err := s.Pick(3, 9); err != nil {
		t.Fatal(err)
	}
	// 4 is now below its confirmed neighbour.
	p, ok = s.Next()
	if !ok || p.SrcIndex != 4 || p.LastConfirmedDst != 9 {
		t.Fatalf("expected point at 4 after 9, got %+v", p)
	}
}

func TestSession_sentinelsIgnored(t *testing.T) {
	s := NewSession([]int{0, -1, 2, -1, 1, 3}, 5)
	flags := s.Flags()
	for i, want := range []bool{false, false, true, false, true, false} {
		if flags[i] != want {
			t.Errorf("flag[%d] = %v, want %v", i, flags[i], want)
		}
	}
	p, _ := s.Next()
	if p.SrcIndex != 2 || p.LastConfirmedDst != 0 {
		t.Errorf("point %+v", p)
	}
	if got := s.Suggested(); got[1] != -1 || got[3] != -1 {
		t.Errorf("unmatched entries should stay unmatched in suggestions: %v", got)
	}
}

func TestSession_manualMode(t *testing.T) {
	s := NewSession([]int{-1, -1, -1}, 4, WithSentinelPoints(true))
	p, ok := s.Next()
	if !ok || p.SrcIndex != 0 || p.SuggestedDst != 0 || p.RemainingFlagged != 3 {
		t.Fatalf("point %+v", p)
	}
	for _, d := range []int{0, 1} {
		if err := s.Pick(s.Point().SrcIndex, d); err != nil {
			t.Fatal(err)
		}
	}
	p = s.Point()
	if p == nil || p.SrcIndex != 2 || p.SuggestedDst != 2 || p.LastConfirmedDst != 1 {
		t.Fatalf("point %+v", p)
	}
	// Leaving a paragraph unmatched is a valid choice.
	if err := s.Pick(2, models.Unmatched); err != nil {
		t.Fatal(err)
	}
	if s.State() != Done {
		t.Errorf("state %s", s.State())
	}
	if !reflect.DeepEqual(s.Mapping(), []int{0, 1, -1}) {
		t.Errorf("mapping %v", s.Mapping())
	}
}

func TestSession_PickAtIdempotent(t *testing.T) {
	var saves int
	persist := func([]int, []int) error { saves++; return nil }
	once := NewSession([]int{0, 5, 2, 3}, 6, WithPersist(persist))
	twice := NewSession([]int{0, 5, 2, 3}, 6, WithPersist(persist))
	once.Next()
	twice.Next()

	if err := once.PickAt(1, 1); err != nil {
		t.Fatal(err)
	}
	if err := twice.PickAt(1, 1); err != nil {
		t.Fatal(err)
	}
	if err := twice.PickAt(1, 1); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(once.Mapping(), twice.Mapping()) || !reflect.DeepEqual(once.Fixed(), twice.Fixed()) {
		t.Errorf("once %v %v, twice %v %v", once.Mapping(), once.Fixed(), twice.Mapping(), twice.Fixed())
	}
	if once.State() != twice.State() {
		t.Errorf("states differ: %s vs %s", once.State(), twice.State())
	}
	if saves != 3 {
		t.Errorf("expected every pick to persist, got %d saves", saves)
	}
}

func TestSession_repeatedPickIsNoop(t *testing.T) {
	var saves int
	persist := func([]int, []int) error { saves++; return nil }
	once := NewSession([]int{0, 5, 2, 3, 9, 4}, 10, WithPersist(persist))
	twice := NewSession([]int{0, 5, 2, 3, 9, 4}, 10, WithPersist(persist))
	p, _ := once.Next()
	twice.Next()
	if p.SrcIndex != 1 {
		t.Fatalf("first point = %+v", p)
	}

	if err := once.Pick(1, 1); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := twice.Pick(1, 1); err != nil {
			t.Fatalf("pick %d: %v", i, err)
		}
	}
	if !reflect.DeepEqual(once.Mapping(), twice.Mapping()) || !reflect.DeepEqual(once.Fixed(), twice.Fixed()) {
		t.Errorf("once %v %v, twice %v %v", once.Mapping(), once.Fixed(), twice.Mapping(), twice.Fixed())
	}
	if !reflect.DeepEqual(*once.Point(), *twice.Point()) {
		t.Errorf("points differ: %+v vs %+v", *once.Point(), *twice.Point())
	}
	if saves != 3 {
		t.Errorf("expected the repeat to persist again, got %d saves", saves)
	}

	// A different choice for the position just confirmed is not a repeat.
	if err := twice.Pick(1, 2); !errors.Is(err, apperrors.ErrInput) {
		t.Errorf("expected input error for a stale position, got %v", err)
	}
}

func TestSession_pickKeepsOrderWithConfirmed(t *testing.T) {
	s := NewSession([]int{0, 5, 2, 3}, 10)
	s.Next()
	if err := s.PickAt(1, 5); err != nil {
		t.Fatal(err)
	}
	if err := s.PickAt(2, 2); !errors.Is(err, apperrors.ErrInput) {
		t.Errorf("expected input error below a confirmed neighbour, got %v", err)
	}
	if err := s.PickAt(0, 6); !errors.Is(err, apperrors.ErrInput) {
		t.Errorf("expected input error above a confirmed neighbour, got %v", err)
	}
	if err := s.PickAt(2, models.Unmatched); err != nil {
		t.Errorf("unmatched should always be accepted: %v", err)
	}
	if !reflect.DeepEqual(s.Mapping(), []int{0, 5, -1, 3}) {
		t.Errorf("mapping %v", s.Mapping())
	}
}

func TestSession_confirmingCurrentValuesConverges(t *testing.T) {
	s := NewSession([]int{0, 5, 2, 3}, 10)
	rounds := 0
	for p, ok := s.Next(); ok; p, ok = s.Point(), s.State() == AwaitingUserChoice {
		err := s.Pick(p.SrcIndex, p.CurrentDst)
		if errors.Is(err, apperrors.ErrInput) {
			err = s.Pick(p.SrcIndex, p.SuggestedDst)
		}
		if err != nil {
			t.Fatalf("point %+v: %v", p, err)
		}
		if rounds++; rounds > 4 {
			t.Fatalf("too many rounds, mapping %v", s.Mapping())
		}
	}
	if !reflect.DeepEqual(s.Mapping(), []int{0, 5, 5, 5}) {
		t.Errorf("mapping %v, want [0 5 5 5]", s.Mapping())
	}
}

func TestSession_conflictingFixedSetIsRevisited(t *testing.T) {
	s := NewSession([]int{0, 5, 2, 3}, 10, WithFixed([]int{1, 2}))
	p, ok := s.Next()
	if !ok || p.SrcIndex != 1 || p.RemainingFlagged != 2 {
		t.Fatalf("expected the confirmed conflict at 1, got %+v", p)
	}
	if err := s.Pick(1, 2); err != nil {
		t.Fatal(err)
	}
	if s.State() != Done {
		t.Errorf("state %s at %+v", s.State(), s.Point())
	}
	if !reflect.DeepEqual(s.Mapping(), []int{0, 2, 2, 3}) {
		t.Errorf("mapping %v", s.Mapping())
	}
}

func TestSession_PickValidation(t *testing.T) {
	s := NewSession([]int{0, 2, 1}, 3)
	s.Next()
	tests := []struct {
		name     string
		src, dst int
	}{
		{"dst too large", 1, 3},
		{"dst below sentinel", 1, -2},
		{"src negative", -1, 0},
		{"src too large", 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.PickAt(tt.src, tt.dst); !errors.Is(err, apperrors.ErrInput) {
				t.Errorf("expected input error, got %v", err)
			}
		})
	}
	if !reflect.DeepEqual(s.Mapping(), []int{0, 2, 1}) {
		t.Errorf("invalid picks changed the mapping: %v", s.Mapping())
	}
}

func TestSession_persistFailureUndoesPick(t *testing.T) {
	boom := errors.New("disk full")
	s := NewSession([]int{0, 2, 1}, 3, WithPersist(func([]int, []int) error { return boom }))
	s.Next()
	if err := s.Pick(1, 1); !errors.Is(err, boom) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if !reflect.DeepEqual(s.Mapping(), []int{0, 2, 1}) || len(s.Fixed()) != 0 {
		t.Errorf("pick should be undone: %v %v", s.Mapping(), s.Fixed())
	}
}

func TestSession_convergesToMonotone(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(30)
		nDst := 1 + rng.Intn(40)

		truth := make([]int, n)
		for i := range truth {
			truth[i] = rng.Intn(nDst)
		}
		sort.Ints(truth)

		mapping := append([]int(nil), truth...)
		for i := range mapping {
			switch r := rng.Float64(); {
			case r < 0.15:
				mapping[i] = models.Unmatched
			case r < 0.4:
				mapping[i] = rng.Intn(nDst)
			}
		}

		s := NewSession(mapping, nDst)
		picks := 0
		for p, ok := s.Next(); ok; p, ok = s.Point(), s.State() == AwaitingUserChoice {
			if err := s.Pick(p.SrcIndex, truth[p.SrcIndex]); err != nil {
				t.Fatal(err)
			}
			picks++
			if picks > n {
				t.Fatalf("trial %d: more picks than positions", trial)
			}
		}

		last := -1
		for i, d := range s.Mapping() {
			if d == models.Unmatched {
				continue
			}
			if d < last {
				t.Fatalf("trial %d: mapping not monotone at %d: %v (start %v)", trial, i, s.Mapping(), mapping)
			}
			last = d
		}
	}
}

func TestState_String(t *testing.T) {
	if Done.String() != "done" || AwaitingUserChoice.String() != "awaiting_user_choice" || Aligning.String() != "aligning" {
		t.Error("unexpected state names")
	}
}
