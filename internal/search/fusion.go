// Package search ranks destination paragraphs for a free-text query by fusing keyword
// and semantic scores.
package search

import (
	"sort"

	"github.com/hyperjump/interleave/internal/keyword"
	"github.com/hyperjump/interleave/pkg/utils"
)

// Hit is a paragraph with its fused score and the scores it was fused from.
type Hit struct {
	Paragraph     int
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// NormalizeKeywordScores scales keyword scores to [0,1] by the maximum.
func NormalizeKeywordScores(hits []keyword.Hit) map[int]float64 {
	normalized := make(map[int]float64, len(hits))
	if len(hits) == 0 {
		return normalized
	}
	maxScore := hits[0].Score
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}
	for _, h := range hits {
		if maxScore > 0 {
			normalized[h.Paragraph] = h.Score / maxScore
		} else {
			normalized[h.Paragraph] = 0
		}
	}
	return normalized
}

// SemanticScores returns the cosine similarity of query against each paragraph vector,
// keeping the limit best positive scores. Vectors are unit length.
func SemanticScores(query []float32, paragraphs [][]float32, limit int) map[int]float64 {
	type scored struct {
		idx   int
		score float64
	}
	var all []scored
	for i, v := range paragraphs {
		if len(v) != len(query) {
			continue
		}
		if s := utils.Dot(query, v); s > 0 {
			all = append(all, scored{i, s})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make(map[int]float64, len(all))
	for _, s := range all {
		out[s.idx] = s.score
	}
	return out
}

// Fuse merges keyword and semantic score maps with weights. Results are sorted by fused
// score, ties by paragraph index.
func Fuse(keywordScores, semanticScores map[int]float64, keywordWeight, semanticWeight float64) []Hit {
	byParagraph := make(map[int]*Hit)
	for p, score := range keywordScores {
		byParagraph[p] = &Hit{Paragraph: p, KeywordScore: score}
	}
	for p, score := range semanticScores {
		if h, ok := byParagraph[p]; ok {
			h.SemanticScore = score
		} else {
			byParagraph[p] = &Hit{Paragraph: p, SemanticScore: score}
		}
	}
	results := make([]Hit, 0, len(byParagraph))
	for _, h := range byParagraph {
		h.Score = keywordWeight*h.KeywordScore + semanticWeight*h.SemanticScore
		results = append(results, *h)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Paragraph < results[j].Paragraph
	})
	return results
}
