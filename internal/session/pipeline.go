package session

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/interleave/internal/align"
	"github.com/hyperjump/interleave/internal/fileid"
	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/similarity"
)

// prepare segments (and translates) both chapters concurrently.
func (m *Manager) prepare(ctx context.Context, chapters models.Pair[*models.Chapter]) (models.Pair[*models.SentenceSequence], error) {
	m.mu.Lock()
	preparer := m.preparer
	m.mu.Unlock()

	var seqs models.Pair[*models.SentenceSequence]
	g, gctx := errgroup.WithContext(ctx)
	for _, side := range []models.Side{models.Source, models.Destination} {
		g.Go(func() error {
			seq, err := preparer.Prepare(gctx, side, chapters.Get(side))
			if err != nil {
				return err
			}
			seqs.Set(side, seq)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return seqs, err
	}
	return seqs, nil
}

// embed embeds the configured variant of both sequences concurrently.
func (m *Manager) embed(ctx context.Context, seqs models.Pair[*models.SentenceSequence]) (models.Pair[[][]float32], error) {
	var vecs models.Pair[[][]float32]
	g, gctx := errgroup.WithContext(ctx)
	for _, side := range []models.Side{models.Source, models.Destination} {
		g.Go(func() error {
			texts := seqs.Get(side).Texts(m.variants.Get(side))
			v, err := m.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed %s sentences: %w", side, err)
			}
			vecs.Set(side, v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return vecs, err
	}
	return vecs, nil
}

// matrixFingerprint identifies the embedding input of a chapter pair.
func (m *Manager) matrixFingerprint(seqs models.Pair[*models.SentenceSequence]) string {
	parts := []string{"matrix", strconv.Itoa(m.embedder.Dimensions())}
	for _, side := range []models.Side{models.Source, models.Destination} {
		v := m.variants.Get(side)
		seq := seqs.Get(side)
		parts = append(parts, string(side), string(v), strconv.Itoa(seq.Len()))
		parts = append(parts, seq.Texts(v)...)
	}
	return fileid.Fingerprint(parts...)
}

// recordFingerprint identifies everything an alignment record was derived from.
func (m *Manager) recordFingerprint(matrixFP string, seqs models.Pair[*models.SentenceSequence]) string {
	a := m.cfg.Align
	parts := []string{
		"alignment", matrixFP,
		strconv.Itoa(a.WindowSize), strconv.Itoa(a.MinSentenceTokens),
		strconv.FormatFloat(a.ConsensusThreshold, 'g', -1, 64),
	}
	for _, side := range []models.Side{models.Source, models.Destination} {
		seq := seqs.Get(side)
		parts = append(parts, strconv.Itoa(seq.Paragraphs))
		for _, s := range seq.Sentences {
			parts = append(parts, strconv.Itoa(s.Paragraph), strconv.Itoa(s.TokensFor(m.variants.Get(side))))
		}
	}
	return fileid.Fingerprint(parts...)
}

// alignSentences runs the windowed aligner over mat.
func (m *Manager) alignSentences(mat *similarity.Matrix, seqs models.Pair[*models.SentenceSequence]) (*align.SentenceAlignment, error) {
	return align.AlignSentences(mat,
		seqs.Src.TokenLens(m.variants.Src),
		seqs.Dst.TokenLens(m.variants.Dst),
		align.Params{Window: m.cfg.Align.WindowSize, MinTokens: m.cfg.Align.MinSentenceTokens},
	)
}

// liftParagraphs derives the paragraph mapping from a sentence assignment. Confirmed
// sentences are never flagged and count as trusted votes.
func liftParagraphs(assign, goodSrc, fixedSentences []int, seqs models.Pair[*models.SentenceSequence], threshold float64) ([]int, error) {
	fixed := make(map[int]bool, len(fixedSentences))
	for _, i := range fixedSentences {
		fixed[i] = true
	}
	flags := align.FlagOutOfOrder(assign, fixed)
	return align.AlignParagraphs(align.ParagraphInput{
		GoodSrc:          union(goodSrc, fixedSentences),
		Interpolated:     align.Interpolate(assign, flags),
		SrcParagraphOf:   seqs.Src.ParagraphOf(),
		DstParagraphOf:   seqs.Dst.ParagraphOf(),
		NumSrcParagraphs: seqs.Src.Paragraphs,
	}, threshold)
}

// union returns the sorted distinct elements of a and b.
func union(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, xs := range [][]int{a, b} {
		for _, x := range xs {
			if !seen[x] {
				seen[x] = true
				out = append(out, x)
			}
		}
	}
	sort.Ints(out)
	return out
}

// applyFixed copies the confirmed entries of prev into mapping.
func applyFixed(mapping, prev, fixed []int) {
	for _, i := range fixed {
		if i >= 0 && i < len(mapping) && i < len(prev) {
			mapping[i] = prev[i]
		}
	}
}

func unmatchedMapping(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = models.Unmatched
	}
	return out
}
