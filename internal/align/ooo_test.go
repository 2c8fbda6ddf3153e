package align

import (
	"math"
	"reflect"
	"testing"
)

func flagged(flags []bool) []int {
	var out []int
	for i, f := range flags {
		if f {
			out = append(out, i)
		}
	}
	return out
}

func TestFlagOutOfOrder(t *testing.T) {
	tests := []struct {
		name   string
		assign []int
		fixed  map[int]bool
		want   []int
	}{
		{"monotone", []int{0, 0, 1, 3, 3, 4}, nil, nil},
		{"spike flags both sides", []int{0, 1, 2, 3, 4, 5, 6, 2, 7, 8}, nil, []int{6, 7}},
		{"peak", []int{0, 1, 9, 3, 4}, nil, []int{2, 3}},
		{"fixed never flagged", []int{0, 1, 9, 3, 4}, map[int]bool{2: true}, []int{3}},
		{"single", []int{5}, nil, nil},
		{"empty", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := flagged(FlagOutOfOrder(tt.assign, tt.fixed))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("flagged %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInterpolate_spike(t *testing.T) {
	assign := []int{0, 1, 2, 3, 4, 5, 6, 2, 7, 8}
	flags := FlagOutOfOrder(assign, nil)
	vals := Interpolate(assign, flags)
	if math.Abs(vals[6]-(5+2.0/3)) > 1e-9 || math.Abs(vals[7]-(5+4.0/3)) > 1e-9 {
		t.Errorf("interpolated values %v", vals)
	}
	idx := InterpolatedIndices(assign, flags)
	want := []int{0, 1, 2, 3, 4, 5, 5, 6, 7, 8}
	if !reflect.DeepEqual(idx, want) {
		t.Errorf("indices %v, want %v", idx, want)
	}
}

func TestInterpolate_boundariesTakeNearestValue(t *testing.T) {
	assign := []int{5, 1, 2, 3, 0}
	flags := FlagOutOfOrder(assign, nil)
	if !reflect.DeepEqual(flagged(flags), []int{0, 1, 3, 4}) {
		t.Fatalf("flags %v", flagged(flags))
	}
	got := InterpolatedIndices(assign, flags)
	if !reflect.DeepEqual(got, []int{2, 2, 2, 2, 2}) {
		t.Errorf("got %v, want all 2", got)
	}
}

func TestInterpolate_fixedAnchors(t *testing.T) {
	assign := []int{5, 1, 2, 3, 0}
	flags := FlagOutOfOrder(assign, map[int]bool{1: true})
	got := InterpolatedIndices(assign, flags)
	if got[0] != 1 {
		t.Errorf("leading flagged position should copy the fixed neighbour, got %v", got)
	}
}

func TestInterpolate_allFlaggedKeepsRaw(t *testing.T) {
	assign := []int{3, 2, 1}
	flags := FlagOutOfOrder(assign, nil)
	if CountFlags(flags) != 3 {
		t.Fatalf("expected every position flagged, got %v", flags)
	}
	if got := InterpolatedIndices(assign, flags); !reflect.DeepEqual(got, assign) {
		t.Errorf("got %v, want raw %v", got, assign)
	}
}

func TestAsIndex(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{6.5, 6},
		{6.999, 6},
		{6.9999999999, 7},
		{7, 7},
		{0, 0},
	}
	for _, tt := range tests {
		if got := AsIndex(tt.in); got != tt.want {
			t.Errorf("AsIndex(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
