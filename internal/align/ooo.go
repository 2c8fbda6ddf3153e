package align

import "math"

// FlagOutOfOrder marks every position whose value is below its left neighbour or above
// its right neighbour. Positions in fixed are never flagged but still act as neighbours.
func FlagOutOfOrder(assign []int, fixed map[int]bool) []bool {
	flags := make([]bool, len(assign))
	for i := range assign {
		if fixed[i] {
			continue
		}
		if i > 0 && assign[i] < assign[i-1] {
			flags[i] = true
		}
		if i < len(assign)-1 && assign[i] > assign[i+1] {
			flags[i] = true
		}
	}
	return flags
}

// Interpolate returns assign with flagged positions replaced by linear interpolation
// between the nearest unflagged positions. Flagged runs at either end take the nearest
// unflagged value. When every position is flagged the raw values are returned.
func Interpolate(assign []int, flags []bool) []float64 {
	out := make([]float64, len(assign))
	prev := -1
	for i := range assign {
		if !flags[i] {
			out[i] = float64(assign[i])
			prev = i
			continue
		}
		next := i + 1
		for next < len(assign) && flags[next] {
			next++
		}
		switch {
		case prev < 0 && next >= len(assign):
			out[i] = float64(assign[i])
		case prev < 0:
			out[i] = float64(assign[next])
		case next >= len(assign):
			out[i] = float64(assign[prev])
		default:
			t := float64(i-prev) / float64(next-prev)
			out[i] = float64(assign[prev]) + t*float64(assign[next]-assign[prev])
		}
	}
	return out
}

// AsIndex converts an interpolated position to an index by flooring, so a value halfway
// between two indices resolves to the lower one.
func AsIndex(v float64) int {
	return int(math.Floor(v + predictEpsilon))
}

// InterpolatedIndices is Interpolate followed by AsIndex.
func InterpolatedIndices(assign []int, flags []bool) []int {
	vals := Interpolate(assign, flags)
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = AsIndex(v)
	}
	return out
}

// CountFlags returns how many positions are flagged.
func CountFlags(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
