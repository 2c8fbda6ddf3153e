// Package models defines the data structures shared across the alignment pipeline:
// books, chapters, paragraphs and sentences of both editions, chapter pairs, persisted
// alignment records and merge output.
package models

import "fmt"

// Side names one of the two editions being aligned.
type Side string

const (
	// Source is the original-language edition.
	Source Side = "src"
	// Destination is the other edition; its paragraphs are merged into the source timeline.
	Destination Side = "dst"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Source {
		return Destination
	}
	return Source
}

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == Source || s == Destination
}

// Pair holds one value per side in two fixed named slots.
type Pair[T any] struct {
	Src T `json:"src" yaml:"source"`
	Dst T `json:"dst" yaml:"destination"`
}

// Get returns the slot for side.
func (p Pair[T]) Get(side Side) T {
	if side == Destination {
		return p.Dst
	}
	return p.Src
}

// Set stores v in the slot for side.
func (p *Pair[T]) Set(side Side, v T) {
	if side == Destination {
		p.Dst = v
		return
	}
	p.Src = v
}

// SentenceVariant selects which text of a sentence is embedded for alignment.
type SentenceVariant string

const (
	// Original is the sentence as written in its own edition.
	Original SentenceVariant = "original"
	// Translated is the machine translation into the other side's language.
	Translated SentenceVariant = "translated"
)

// ParseSentenceVariant converts a config string to a SentenceVariant.
func ParseSentenceVariant(s string) (SentenceVariant, error) {
	switch SentenceVariant(s) {
	case Original, Translated:
		return SentenceVariant(s), nil
	default:
		return "", fmt.Errorf("unknown sentence variant %q (supported: original, translated)", s)
	}
}

// LangPair is a translation direction such as "fr-en".
type LangPair struct {
	From string
	To   string
}

func (p LangPair) String() string {
	return p.From + "-" + p.To
}
