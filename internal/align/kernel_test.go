package align

import (
	"errors"
	"math"
	"testing"

	apperrors "github.com/hyperjump/interleave/internal/errors"
)

func TestNewKernel(t *testing.T) {
	k := NewKernel(2)
	want := []float64{0.2, 0.4, 0.6, 0.8, 1, 0.8, 0.6, 0.4, 0.2}
	got := k.Weights()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("weight[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		center, w, n int
		left, right  int
	}{
		{10, 3, 30, 7, 14},
		{1, 3, 30, 0, 5},
		{29, 3, 30, 26, 30},
		{0, 20, 1, 0, 1},
	}
	for _, tt := range tests {
		l, r := Window(tt.center, tt.w, tt.n)
		if l != tt.left || r != tt.right {
			t.Errorf("Window(%d,%d,%d) = [%d,%d), want [%d,%d)", tt.center, tt.w, tt.n, l, r, tt.left, tt.right)
		}
	}
}

func TestKernel_SliceApexFollowsFit(t *testing.T) {
	k := NewKernel(3)
	left, right := Window(10, 3, 30)
	weights, err := k.Slice(10, 12, left, right, 30)
	if err != nil {
		t.Fatal(err)
	}
	if weights[12-left] != 1 {
		t.Errorf("apex should sit on the fitted index, weights %v", weights)
	}
	if math.Abs(weights[11-left]-6.0/7) > 1e-12 {
		t.Errorf("weight next to apex = %g, want 6/7", weights[11-left])
	}
	// Far from the fit the slice runs off the kernel support and weighs zero.
	weights, err = k.Slice(10, 29, left, right, 30)
	if err != nil {
		t.Fatal(err)
	}
	for i, w := range weights {
		if w != 0 {
			t.Errorf("weight[%d] = %g, want 0 outside support", i, w)
		}
	}
}

func TestKernel_SliceLengthMatchesWindow(t *testing.T) {
	combos := []struct{ nSrc, nDst, w int }{
		{10, 10, 20},
		{50, 30, 3},
		{30, 50, 3},
		{7, 100, 5},
		{100, 7, 5},
		{1, 1, 1},
		{5, 3, 2},
		{200, 180, 20},
	}
	for _, c := range combos {
		k := NewKernel(c.w)
		indices := []int{0, 1, c.nSrc - 1, c.nSrc - 2, c.nSrc / 3, c.nSrc / 2, 2 * c.nSrc / 3}
		for _, i := range indices {
			if i < 0 || i >= c.nSrc {
				continue
			}
			center := i * c.nDst / c.nSrc
			left, right := Window(center, c.w, c.nDst)
			for _, fit := range []int{0, center, c.nDst - 1, c.nDst / 2} {
				weights, err := k.Slice(center, fit, left, right, c.nDst)
				if err != nil {
					t.Fatalf("nSrc=%d nDst=%d W=%d i=%d fit=%d: %v", c.nSrc, c.nDst, c.w, i, fit, err)
				}
				if len(weights) != right-left {
					t.Errorf("nSrc=%d nDst=%d W=%d i=%d: len %d, window %d", c.nSrc, c.nDst, c.w, i, len(weights), right-left)
				}
			}
		}
	}
}

func TestKernel_SliceMismatchIsConsistencyError(t *testing.T) {
	k := NewKernel(3)
	left, right := Window(10, 3, 30)
	_, err := k.Slice(10, 10, left, right+1, 30)
	var ce *apperrors.ConsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
	if ce.Want != right+1-left || ce.Got != right-left {
		t.Errorf("unexpected error fields: %+v", ce)
	}
}
