package models

import (
	"fmt"
	"strconv"
)

// Unmatched is the sentinel destination index for "no corresponding paragraph found".
const Unmatched = -1

// ChapterPair identifies one chapter from each edition.
type ChapterPair struct {
	Src int `json:"src"`
	Dst int `json:"dst"`
}

// String returns the stable identifier used in cache keys, e.g. "3_4".
func (p ChapterPair) String() string {
	return fmt.Sprintf("%d_%d", p.Src, p.Dst)
}

// CacheTag names one of the records persisted per chapter pair.
type CacheTag string

const (
	// TagMatrix is the binary similarity matrix.
	TagMatrix CacheTag = "matrix"
	// TagAlignment is the JSON AlignmentRecord.
	TagAlignment CacheTag = "alignment"
)

// AlignmentRecord is the persisted alignment state of one chapter pair.
// Manual records carry no sentence assignments: the paragraph mapping is filled in by hand.
type AlignmentRecord struct {
	Assignments      []int          `json:"assignments"`
	ParagraphMapping map[string]int `json:"paragraph_mapping"`
	GoodSrc          []int          `json:"good_src,omitempty"`
	FixedParagraphs  []int          `json:"fixed_paragraphs,omitempty"`
	FixedSentences   []int          `json:"fixed_sentences,omitempty"`
	Manual           bool           `json:"manual,omitempty"`
	Reason           string         `json:"reason,omitempty"`
	Fingerprint      string         `json:"fingerprint,omitempty"`
}

// MappingToJSON converts a dense paragraph mapping to the {src: dst} object form.
func MappingToJSON(mapping []int) map[string]int {
	out := make(map[string]int, len(mapping))
	for src, dst := range mapping {
		out[strconv.Itoa(src)] = dst
	}
	return out
}

// MappingFromJSON converts the {src: dst} object form back to a dense mapping over
// n source paragraphs. Missing keys become Unmatched; keys outside [0, n) are an error.
func MappingFromJSON(m map[string]int, n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		out[i] = Unmatched
	}
	for k, v := range m {
		src, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("paragraph key %q is not an integer", k)
		}
		if src < 0 || src >= n {
			return nil, fmt.Errorf("paragraph key %d outside [0, %d)", src, n)
		}
		out[src] = v
	}
	return out, nil
}

// FixupPoint is the position the operator is asked to confirm next.
type FixupPoint struct {
	SrcIndex         int `json:"src_index"`
	SuggestedDst     int `json:"suggested_dst"`
	CurrentDst       int `json:"current_dst"`
	LastConfirmedDst int `json:"last_confirmed_dst"`
	RemainingFlagged int `json:"remaining_flagged"`
}

// MergedItem is one paragraph reference in the interleaved chapter order.
type MergedItem struct {
	Side  Side `json:"side"`
	Index int  `json:"index"`
}

func (m MergedItem) String() string {
	return fmt.Sprintf("%s%d", m.Side, m.Index)
}
