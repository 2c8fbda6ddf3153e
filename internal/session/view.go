package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/interleave/internal/config"
	"github.com/hyperjump/interleave/internal/export"
	"github.com/hyperjump/interleave/internal/fixup"
	"github.com/hyperjump/interleave/internal/keyword"
	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/search"
)

// Item is one paragraph or sentence shown to the operator.
type Item struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// FixupView is a fix-up point with the text needed to decide it: the source item and a
// window of destination items around the last confirmed destination index.
type FixupView struct {
	Point models.FixupPoint `json:"point"`
	Mode  string            `json:"mode"`
	Src   Item              `json:"src"`
	Dst   []Item            `json:"dst"`
}

// view builds the FixupView of p. Called with s.mu held.
func (s *Session) view(p *models.FixupPoint, window int) *FixupView {
	src, dst := s.texts()
	v := &FixupView{Point: *p, Mode: s.Mode, Src: Item{Index: p.SrcIndex, Text: src[p.SrcIndex]}}
	lo, hi := viewWindow(p.LastConfirmedDst, window, len(dst))
	for i := lo; i < hi; i++ {
		v.Dst = append(v.Dst, Item{Index: i, Text: dst[i]})
	}
	return v
}

// texts returns the item texts of the fix-up granularity.
func (s *Session) texts() (src, dst []string) {
	if s.Mode == config.ModeSentence {
		return s.Sequences.Src.Texts(models.Original), s.Sequences.Dst.Texts(models.Original)
	}
	return paragraphTexts(s.Chapters.Src), paragraphTexts(s.Chapters.Dst)
}

func paragraphTexts(ch *models.Chapter) []string {
	out := make([]string, len(ch.Paragraphs))
	for i, p := range ch.Paragraphs {
		out[i] = p.Text
	}
	return out
}

// viewWindow returns [lo, hi) of at most size items of n, centred on center.
func viewWindow(center, size, n int) (lo, hi int) {
	if size <= 0 || size > n {
		size = n
	}
	lo = center - size/2
	if lo < 0 {
		lo = 0
	}
	hi = lo + size
	if hi > n {
		hi = n
		lo = hi - size
	}
	return lo, hi
}

// SearchHit is a destination paragraph matching a search.
type SearchHit struct {
	Paragraph     int     `json:"paragraph"`
	Score         float64 `json:"score"`
	KeywordScore  float64 `json:"keyword_score"`
	SemanticScore float64 `json:"semantic_score"`
	Text          string  `json:"text"`
}

// SearchOptions tunes SearchDestination. The zero value is an exact keyword search.
type SearchOptions struct {
	Fuzzy     bool
	Fuzziness int
	// Semantic adds embedding similarity to the keyword score, so that paragraphs
	// paraphrasing the query are found too.
	Semantic bool
	// KeywordWeight is the keyword share of the fused score (default 0.5).
	KeywordWeight float64
}

const defaultSearchLimit = 10

// SearchDestination finds destination paragraphs of the session's chapter, for locating
// the right match during manual fix-up. The keyword index and the paragraph embeddings
// are built on first use.
func (m *Manager) SearchDestination(ctx context.Context, s *Session, query string, limit int, opts *SearchOptions) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if opts == nil {
		opts = &SearchOptions{}
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		idx, err := keyword.NewParagraphIndex(s.Chapters.Dst)
		if err != nil {
			return nil, fmt.Errorf("index destination chapter: %w", err)
		}
		s.index = idx
	}
	kwHits, err := s.index.Search(ctx, query, limit, &keyword.SearchOptions{Fuzzy: opts.Fuzzy, Fuzziness: opts.Fuzziness})
	if err != nil {
		return nil, err
	}

	var semantic map[int]float64
	kwWeight, semWeight := 1.0, 0.0
	if opts.Semantic {
		if s.dstVectors == nil {
			vecs, err := m.embedder.EmbedBatch(ctx, paragraphTexts(s.Chapters.Dst))
			if err != nil {
				return nil, fmt.Errorf("embed destination paragraphs: %w", err)
			}
			s.dstVectors = vecs
		}
		qv, err := m.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		semantic = search.SemanticScores(qv, s.dstVectors, limit)
		kwWeight = opts.KeywordWeight
		if kwWeight <= 0 || kwWeight > 1 {
			kwWeight = 0.5
		}
		semWeight = 1 - kwWeight
	}

	fused := search.Fuse(search.NormalizeKeywordScores(kwHits), semantic, kwWeight, semWeight)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	out := make([]SearchHit, len(fused))
	for i, h := range fused {
		out[i] = SearchHit{
			Paragraph:     h.Paragraph,
			Score:         h.Score,
			KeywordScore:  h.KeywordScore,
			SemanticScore: h.SemanticScore,
			Text:          s.Chapters.Dst.Paragraphs[h.Paragraph].Text,
		}
	}
	return out, nil
}

// Review returns the session's paragraph mapping laid out for export.
func (m *Manager) Review(s *Session) export.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	mapping := s.paragraphMapping()
	flags := fixup.NewSession(mapping, len(s.Chapters.Dst.Paragraphs)).Flags()
	return export.Review{
		Pair:     s.Pair,
		Langs:    s.Langs,
		Chapters: s.Chapters,
		Mapping:  mapping,
		Flags:    flags,
		Fixed:    append([]int(nil), s.record.FixedParagraphs...),
	}
}
