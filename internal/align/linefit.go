// Package align turns a sentence similarity matrix into sentence and paragraph
// alignments between two editions of a chapter.
package align

import (
	"math"

	apperrors "github.com/hyperjump/interleave/internal/errors"
)

// predictEpsilon absorbs floating point noise before flooring a predicted index, so a
// fit through exact integer points predicts those integers.
const predictEpsilon = 1e-9

// Line is dst ≈ Slope*src + Intercept.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Predict returns the fitted destination position for source index x.
func (l Line) Predict(x int) float64 {
	return l.Slope*float64(x) + l.Intercept
}

// PredictIndex returns the floored prediction for x clipped to [0, n).
func (l Line) PredictIndex(x, n int) int {
	return clamp(int(math.Floor(l.Predict(x)+predictEpsilon)), 0, n-1)
}

// FitLine fits a degree-1 polynomial through (xs[k], ys[k]) by least squares.
// It returns a FitError when there are no pairs or every pair shares one x, since
// the slope is then undefined.
func FitLine(xs, ys []int) (Line, error) {
	if len(xs) != len(ys) {
		return Line{}, apperrors.NewConsistency("line fit pairs", len(xs), len(ys))
	}
	n := float64(len(xs))
	if len(xs) == 0 {
		return Line{}, apperrors.NewFit(0, "no sentence pairs survived the length filter")
	}

	var meanX, meanY float64
	for k := range xs {
		meanX += float64(xs[k])
		meanY += float64(ys[k])
	}
	meanX /= n
	meanY /= n

	var sxx, sxy float64
	for k := range xs {
		dx := float64(xs[k]) - meanX
		sxx += dx * dx
		sxy += dx * (float64(ys[k]) - meanY)
	}
	if sxx == 0 {
		return Line{}, apperrors.NewFit(len(xs), "all trusted pairs share one source index")
	}
	slope := sxy / sxx
	return Line{Slope: slope, Intercept: meanY - slope*meanX}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
