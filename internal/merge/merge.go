// Package merge interleaves the paragraphs of two aligned chapters and renders the result.
package merge

import (
	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/models"
)

// Interleave returns the merged reading order for a total source→destination paragraph
// mapping. Each source paragraph is preceded by every not yet emitted destination
// paragraph up to and including its match; unmatched source paragraphs are emitted in
// turn without pulling destination paragraphs. Leftover destination paragraphs follow.
//
// Every paragraph of both sides appears exactly once, and each side keeps its own order.
func Interleave(mapping []int, nSrc, nDst int) ([]models.MergedItem, error) {
	if len(mapping) != nSrc {
		return nil, apperrors.NewInput("mapping", "mapping covers %d source paragraphs, chapter has %d", len(mapping), nSrc)
	}
	for src, dst := range mapping {
		if dst < models.Unmatched || dst >= nDst {
			return nil, apperrors.NewInput("mapping", "paragraph %d maps to %d outside [-1, %d)", src, dst, nDst)
		}
	}

	out := make([]models.MergedItem, 0, nSrc+nDst)
	nextDst := 0
	for src, dst := range mapping {
		for ; nextDst <= dst; nextDst++ {
			out = append(out, models.MergedItem{Side: models.Destination, Index: nextDst})
		}
		out = append(out, models.MergedItem{Side: models.Source, Index: src})
	}
	for ; nextDst < nDst; nextDst++ {
		out = append(out, models.MergedItem{Side: models.Destination, Index: nextDst})
	}
	return out, nil
}
