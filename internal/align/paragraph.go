package align

import (
	"sort"

	apperrors "github.com/hyperjump/interleave/internal/errors"
)

// ParagraphInput carries what consensus lifting needs from the sentence alignment.
type ParagraphInput struct {
	// GoodSrc lists the trusted source sentence indices in source order.
	GoodSrc []int
	// Interpolated holds the interpolated destination sentence position of every source sentence.
	Interpolated []float64
	// SrcParagraphOf and DstParagraphOf map sentence index to paragraph index.
	SrcParagraphOf []int
	DstParagraphOf []int
	// NumSrcParagraphs is the number of source paragraphs in the chapter.
	NumSrcParagraphs int
}

// AlignParagraphs lifts the sentence alignment to a total source paragraph mapping,
// using -1 for unmatched paragraphs.
func AlignParagraphs(in ParagraphInput, threshold float64) ([]int, error) {
	if err := in.validate(threshold); err != nil {
		return nil, err
	}
	return Flatten(FillGaps(ConsensusPass(in, threshold)), in.NumSrcParagraphs), nil
}

// ConsensusPass groups trusted sentences by source paragraph and votes on their
// destination paragraphs. A paragraph is assigned when one candidate holds more than
// threshold of the votes, or else when the distinct candidates form a run of consecutive
// integers (the run's minimum is used). Vote ties go to the candidate seen first.
func ConsensusPass(in ParagraphInput, threshold float64) map[int]int {
	var order []int
	votes := make(map[int][]int)
	last := len(in.DstParagraphOf) - 1
	for _, s := range in.GoodSrc {
		sp := in.SrcParagraphOf[s]
		if _, ok := votes[sp]; !ok {
			order = append(order, sp)
		}
		ds := clamp(AsIndex(in.Interpolated[s]), 0, last)
		votes[sp] = append(votes[sp], in.DstParagraphOf[ds])
	}

	out := make(map[int]int, len(order))
	for _, sp := range order {
		if dp, ok := consensus(votes[sp], threshold); ok {
			out[sp] = dp
		}
	}
	return out
}

func consensus(candidates []int, threshold float64) (int, bool) {
	counts := make(map[int]int)
	for _, c := range candidates {
		counts[c]++
	}
	best, bestCount := 0, 0
	for _, c := range candidates {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	if float64(bestCount)/float64(len(candidates)) > threshold {
		return best, true
	}

	distinct := make([]int, 0, len(counts))
	for c := range counts {
		distinct = append(distinct, c)
	}
	sort.Ints(distinct)
	for k := 1; k < len(distinct); k++ {
		if distinct[k] != distinct[k-1]+1 {
			return 0, false
		}
	}
	return distinct[0], true
}

// FillGaps adds the paragraphs between two consecutive anchors when one or two source
// paragraphs are missing and the destination gap has the same size.
func FillGaps(sparse map[int]int) map[int]int {
	anchors := make([]int, 0, len(sparse))
	out := make(map[int]int, len(sparse))
	for s, d := range sparse {
		anchors = append(anchors, s)
		out[s] = d
	}
	sort.Ints(anchors)

	for k := 1; k < len(anchors); k++ {
		s0, s1 := anchors[k-1], anchors[k]
		d0, d1 := sparse[s0], sparse[s1]
		gap := s1 - s0 - 1
		if gap < 1 || gap > 2 || d1-d0-1 != gap {
			continue
		}
		for off := 1; off <= gap; off++ {
			out[s0+off] = d0 + off
		}
	}
	return out
}

// Flatten turns a sparse mapping into a total one over [0, n) with -1 for gaps.
func Flatten(sparse map[int]int, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	for s, d := range sparse {
		if s >= 0 && s < n {
			out[s] = d
		}
	}
	return out
}

func (in ParagraphInput) validate(threshold float64) error {
	switch {
	case threshold <= 0 || threshold > 1:
		return apperrors.NewInput("threshold", "consensus threshold must be in (0, 1], got %g", threshold)
	case in.NumSrcParagraphs < 1:
		return apperrors.NewInput("src", "chapter has no source paragraphs")
	case len(in.DstParagraphOf) == 0:
		return apperrors.NewInput("dst", "chapter has no destination sentences")
	case len(in.Interpolated) != len(in.SrcParagraphOf):
		return apperrors.NewConsistency("interpolated alignment", len(in.SrcParagraphOf), len(in.Interpolated))
	}
	for _, s := range in.GoodSrc {
		if s < 0 || s >= len(in.SrcParagraphOf) {
			return apperrors.NewInput("src", "trusted sentence %d out of range", s)
		}
		if p := in.SrcParagraphOf[s]; p < 0 || p >= in.NumSrcParagraphs {
			return apperrors.NewInput("src", "sentence %d belongs to paragraph %d of %d", s, p, in.NumSrcParagraphs)
		}
	}
	return nil
}
