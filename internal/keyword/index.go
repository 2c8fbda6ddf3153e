// Package keyword provides an in-memory full-text index over one chapter's paragraphs,
// used to locate a destination paragraph by its words during manual fix-up.
package keyword

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/interleave/internal/models"
)

// SearchOptions tune a search. Nil means exact term matching.
type SearchOptions struct {
	// Fuzzy enables edit-distance matching per term, for OCR noise and spelling variants.
	Fuzzy bool
	// Fuzziness is the maximum edit distance (1 or 2). Default is 1.
	Fuzziness int
}

// Hit is one matching paragraph.
type Hit struct {
	Paragraph int     `json:"paragraph"`
	Score     float64 `json:"score"`
}

// ParagraphIndex is a memory-only bleve index of a chapter's paragraphs.
type ParagraphIndex struct {
	index bleve.Index
	size  int
}

type paragraphDoc struct {
	Text string `json:"text"`
}

// NewParagraphIndex indexes every paragraph of ch under its paragraph index.
func NewParagraphIndex(ch *models.Chapter) (*ParagraphIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase and tokenize without stemming, so a query word matches
	// the word as written in either language.
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textField)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create paragraph index: %w", err)
	}

	batch := index.NewBatch()
	for i, p := range ch.Paragraphs {
		if err := batch.Index(strconv.Itoa(i), paragraphDoc{Text: p.Text}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("index paragraph %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index paragraphs: %w", err)
	}
	return &ParagraphIndex{index: index, size: len(ch.Paragraphs)}, nil
}

// Search returns up to limit paragraphs matching any query term, best first.
func (p *ParagraphIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var q blevequery.Query
	if opts != nil && opts.Fuzzy {
		fuzziness := opts.Fuzziness
		if fuzziness <= 0 {
			fuzziness = 1
		}
		q = buildFuzzyQuery(query, fuzziness)
	} else {
		mq := bleve.NewMatchQuery(query)
		mq.SetField("text")
		q = mq
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := p.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("paragraph search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		n, err := strconv.Atoi(h.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected document id %q", h.ID)
		}
		hits = append(hits, Hit{Paragraph: n, Score: h.Score})
	}
	return hits, nil
}

// Len returns the number of indexed paragraphs.
func (p *ParagraphIndex) Len() int { return p.size }

// Close releases the index.
func (p *ParagraphIndex) Close() error {
	return p.index.Close()
}

// buildFuzzyQuery ORs one fuzzy query per lowercase term.
func buildFuzzyQuery(query string, fuzziness int) blevequery.Query {
	terms := strings.Fields(strings.ToLower(query))
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(strings.Trim(term, ".,;:!?\"'()«»"))
		fq.SetFuzziness(fuzziness)
		fq.SetField("text")
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}
