package align

import (
	apperrors "github.com/hyperjump/interleave/internal/errors"
)

// Kernel is a triangular window of full width 4W+1 with apex weight 1 at index 2W.
// Weights follow the symmetric triangle (k+1)/(2W+1), so the outermost support
// points keep a small positive weight and anything beyond the support weighs 0.
type Kernel struct {
	w       int
	weights []float64
}

// NewKernel builds the kernel for half-window w (w >= 1).
func NewKernel(w int) Kernel {
	size := 4*w + 1
	weights := make([]float64, size)
	for k := range weights {
		d := k
		if k > 2*w {
			d = size - 1 - k
		}
		weights[k] = float64(d+1) / float64(2*w+1)
	}
	return Kernel{w: w, weights: weights}
}

// Weights returns the full kernel.
func (k Kernel) Weights() []float64 {
	return k.weights
}

// Window returns the destination search window [left, right) around center for a
// destination sequence of length nDst: center-W through center+W, clipped.
func Window(center, w, nDst int) (left, right int) {
	left = center - w
	if left < 0 {
		left = 0
	}
	right = center + w + 1
	if right > nDst {
		right = nDst
	}
	return left, right
}

// Slice returns the kernel weights for the destination window [winLeft, winRight) whose
// nominal center is center, with the apex moved onto fit. The 2W+1 slice starting at
// W+(center-fit) is cut on each side by however much the nominal window overhangs the
// sequence. A result whose length differs from the window is a ConsistencyError.
func (k Kernel) Slice(center, fit, winLeft, winRight, nDst int) ([]float64, error) {
	w := k.w
	start := w + (center - fit)
	shifted := make([]float64, 2*w+1)
	for p := range shifted {
		if idx := start + p; idx >= 0 && idx < len(k.weights) {
			shifted[p] = k.weights[idx]
		}
	}

	leftCut := 0
	if center < w {
		leftCut = w - center
	}
	rightCut := 0
	if over := center + w + 1 - nDst; over > 0 {
		rightCut = over
	}
	if leftCut+rightCut > len(shifted) {
		return nil, apperrors.NewConsistency("kernel slice", winRight-winLeft, len(shifted)-leftCut-rightCut)
	}
	chopped := shifted[leftCut : len(shifted)-rightCut]

	if len(chopped) != winRight-winLeft {
		return nil, apperrors.NewConsistency("kernel slice", winRight-winLeft, len(chopped))
	}
	return chopped, nil
}
