// Package session owns the per-chapter-pair alignment sessions: it runs the pipeline
// from chapter text to paragraph mapping, caches the results, and drives the fix-up loop.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/hyperjump/interleave/internal/fixup"
	"github.com/hyperjump/interleave/internal/keyword"
	"github.com/hyperjump/interleave/internal/models"
)

// Session is the alignment of one chapter pair. It is created by Manager.ComputeAlignment
// and lives until Manager.Close. Fix-up actions on one session are serialized.
type Session struct {
	ID        string
	Pair      models.ChapterPair
	Mode      string
	CreatedAt time.Time

	// Manual is set when automatic alignment failed; Reason says why.
	Manual bool
	Reason string
	// FromCache reports whether the alignment was loaded rather than computed.
	FromCache bool

	Chapters  models.Pair[*models.Chapter]
	Sequences models.Pair[*models.SentenceSequence]
	Langs     models.Pair[string]

	mu         sync.Mutex
	record     models.AlignmentRecord
	paragraphs []int
	fix        *fixup.Session
	index      paragraphSearcher
	dstVectors [][]float32
}

// paragraphSearcher is the keyword index over the destination chapter.
type paragraphSearcher interface {
	Search(ctx context.Context, query string, limit int, opts *keyword.SearchOptions) ([]keyword.Hit, error)
	Close() error
}

// Status is a snapshot of a session for display.
type Status struct {
	ID               string             `json:"id"`
	Pair             models.ChapterPair `json:"pair"`
	Mode             string             `json:"mode"`
	Manual           bool               `json:"manual"`
	Reason           string             `json:"reason,omitempty"`
	FromCache        bool               `json:"from_cache"`
	State            string             `json:"state"`
	SrcParagraphs    int                `json:"src_paragraphs"`
	DstParagraphs    int                `json:"dst_paragraphs"`
	SrcSentences     int                `json:"src_sentences"`
	DstSentences     int                `json:"dst_sentences"`
	Fixed            int                `json:"fixed"`
	Unmatched        int                `json:"unmatched"`
	RemainingFlagged int                `json:"remaining_flagged"`
}

// ParagraphMapping returns the current total source→destination paragraph mapping.
func (s *Session) ParagraphMapping() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paragraphMapping()
}

func (s *Session) paragraphMapping() []int {
	return append([]int(nil), s.paragraphs...)
}

// Record returns a copy of the persisted alignment state.
func (s *Session) Record() models.AlignmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record
	rec.Assignments = append([]int(nil), rec.Assignments...)
	rec.GoodSrc = append([]int(nil), rec.GoodSrc...)
	rec.FixedParagraphs = append([]int(nil), rec.FixedParagraphs...)
	rec.FixedSentences = append([]int(nil), rec.FixedSentences...)
	m := make(map[string]int, len(rec.ParagraphMapping))
	for k, v := range rec.ParagraphMapping {
		m[k] = v
	}
	rec.ParagraphMapping = m
	return rec
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		ID:            s.ID,
		Pair:          s.Pair,
		Mode:          s.Mode,
		Manual:        s.Manual,
		Reason:        s.Reason,
		FromCache:     s.FromCache,
		State:         s.fix.State().String(),
		SrcParagraphs: len(s.Chapters.Src.Paragraphs),
		DstParagraphs: len(s.Chapters.Dst.Paragraphs),
		SrcSentences:  s.Sequences.Src.Len(),
		DstSentences:  s.Sequences.Dst.Len(),
		Fixed:         len(s.fix.Fixed()),
	}
	if p := s.fix.Point(); p != nil {
		st.RemainingFlagged = p.RemainingFlagged
	}
	for _, d := range s.paragraphs {
		if d == models.Unmatched {
			st.Unmatched++
		}
	}
	return st
}

// close releases the destination search index.
func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dstVectors = nil
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}
