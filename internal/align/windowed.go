package align

import (
	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/similarity"
)

// Params tunes the windowed aligner.
type Params struct {
	// Window is the half-width W of the destination search window.
	Window int
	// MinTokens is the length a sentence must exceed on both sides for a match to be
	// trusted.
	MinTokens int
}

// SentenceAlignment is the output of AlignSentences.
type SentenceAlignment struct {
	// Assignments holds a destination sentence index for every source sentence.
	// Untrusted positions repeat the previous trusted value (0 before the first).
	Assignments []int
	// Trusted marks the positions whose second pass match passed the length filter.
	Trusted []bool
	// GoodSrc and GoodDst are the trusted (src, dst) pairs in source order.
	GoodSrc []int
	GoodDst []int
	// Fit is the line fitted through the first pass trusted pairs.
	Fit Line
}

// AlignSentences runs the two-pass windowed argmax over m.
//
// Pass 1 takes the argmax of each source row inside a window centred on the
// proportional position floor(i*nDst/nSrc) and fits a line through the trusted matches.
// Pass 2 reweights the same window with a triangular kernel whose apex sits on the
// fitted line and takes the argmax again.
func AlignSentences(m *similarity.Matrix, srcLens, dstLens []int, p Params) (*SentenceAlignment, error) {
	if err := validate(m, srcLens, dstLens, p); err != nil {
		return nil, err
	}
	nSrc, nDst := m.Rows, m.Cols

	center := func(i int) int { return i * nDst / nSrc }
	trusted := func(i, j int) bool { return srcLens[i] > p.MinTokens && dstLens[j] > p.MinTokens }

	var xs, ys []int
	for i := 0; i < nSrc; i++ {
		left, right := Window(center(i), p.Window, nDst)
		j := left + argmax32(m.Row(i)[left:right])
		if trusted(i, j) {
			xs = append(xs, i)
			ys = append(ys, j)
		}
	}

	fit, err := FitLine(xs, ys)
	if err != nil && len(xs) > 0 {
		// A single trusted source index: keep the proportional slope through it.
		slope := float64(nDst) / float64(nSrc)
		fit = Line{Slope: slope, Intercept: float64(ys[0]) - slope*float64(xs[0])}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	kernel := NewKernel(p.Window)
	matches := make([]int, nSrc)
	out := &SentenceAlignment{Trusted: make([]bool, nSrc), Fit: fit}
	weighted := make([]float64, 0, 2*p.Window+1)
	for i := 0; i < nSrc; i++ {
		c := center(i)
		left, right := Window(c, p.Window, nDst)
		weights, err := kernel.Slice(c, fit.PredictIndex(i, nDst), left, right, nDst)
		if err != nil {
			return nil, err
		}
		row := m.Row(i)[left:right]
		weighted = weighted[:0]
		for k, s := range row {
			weighted = append(weighted, float64(s)*weights[k])
		}
		j := left + argmax64(weighted)
		matches[i] = j
		if trusted(i, j) {
			out.Trusted[i] = true
			out.GoodSrc = append(out.GoodSrc, i)
			out.GoodDst = append(out.GoodDst, j)
		}
	}
	out.Assignments = ForwardFill(matches, out.Trusted)
	return out, nil
}

// ForwardFill returns matches with every untrusted position replaced by the most recent
// trusted value, or 0 before the first trusted position.
func ForwardFill(matches []int, trusted []bool) []int {
	out := make([]int, len(matches))
	last := 0
	for i, j := range matches {
		if trusted[i] {
			last = j
		}
		out[i] = last
	}
	return out
}

func validate(m *similarity.Matrix, srcLens, dstLens []int, p Params) error {
	switch {
	case m == nil || m.Rows == 0:
		return apperrors.NewInput("src", "empty source sentence sequence")
	case m.Cols == 0:
		return apperrors.NewInput("dst", "empty destination sentence sequence")
	case len(srcLens) != m.Rows:
		return apperrors.NewInput("src", "%d sentence lengths for %d matrix rows", len(srcLens), m.Rows)
	case len(dstLens) != m.Cols:
		return apperrors.NewInput("dst", "%d sentence lengths for %d matrix columns", len(dstLens), m.Cols)
	case p.Window < 1:
		return apperrors.NewInput("window", "window must be at least 1, got %d", p.Window)
	case p.MinTokens < 0:
		return apperrors.NewInput("min_tokens", "minimum token count must not be negative")
	}
	return nil
}

// argmax32 returns the index of the first maximum of xs.
func argmax32(xs []float32) int {
	best := 0
	for k := 1; k < len(xs); k++ {
		if xs[k] > xs[best] {
			best = k
		}
	}
	return best
}

func argmax64(xs []float64) int {
	best := 0
	for k := 1; k < len(xs); k++ {
		if xs[k] > xs[best] {
			best = k
		}
	}
	return best
}
