// Package segment splits chapter text into sentences and counts word tokens.
//
// Word boundaries come from Unicode text segmentation (UAX #29); sentence boundaries
// are placed after terminal punctuation followed by whitespace and a token that can
// open a sentence, skipping known abbreviations and single-letter initials.
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/segment"
	"golang.org/x/text/unicode/norm"
)

var abbreviations = map[string][]string{
	"en": {"mr", "mrs", "ms", "dr", "st", "prof", "jr", "sr", "vs", "etc", "e.g", "i.e", "mt", "no", "capt", "col", "gen", "lt", "rev"},
	"fr": {"m", "mm", "mme", "mmes", "mlle", "mlles", "dr", "st", "ste", "etc", "cf", "p", "pp", "me", "mgr", "vol", "chap"},
}

// Segmenter splits text into sentences for one language.
type Segmenter struct {
	lang          string
	abbreviations map[string]bool
}

// New returns a Segmenter for the given ISO 639-1 language code.
// Unknown languages get the union of all abbreviation lists.
func New(lang string) *Segmenter {
	s := &Segmenter{lang: lang, abbreviations: make(map[string]bool)}
	list, ok := abbreviations[lang]
	if !ok {
		for _, l := range abbreviations {
			list = append(list, l...)
		}
	}
	for _, a := range list {
		s.abbreviations[a] = true
	}
	return s
}

// Lang returns the segmenter's language code.
func (s *Segmenter) Lang() string { return s.lang }

// Split returns the sentences of text in order, trimmed of surrounding whitespace.
// Text without terminal punctuation is a single sentence; blank text yields none.
func (s *Segmenter) Split(text string) []string {
	var (
		sentences []string
		cur       strings.Builder
		lastWord  string
		pending   bool
		sawSpace  bool
	)
	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			sentences = append(sentences, t)
		}
		cur.Reset()
	}

	seg := segment.NewWordSegmenterDirect([]byte(text))
	for seg.Segment() {
		tok := string(seg.Bytes())
		typ := seg.Type()

		if strings.TrimSpace(tok) == "" {
			if pending {
				sawSpace = true
			}
			cur.WriteString(tok)
			continue
		}

		if pending {
			switch {
			case sawSpace:
				if opensSentence(tok, typ) {
					flush()
				}
				pending, sawSpace = false, false
			case typ == segment.None && (isCloser(tok) || isTerminal(tok)):
				cur.WriteString(tok)
				continue
			default:
				pending = false
			}
		}

		cur.WriteString(tok)
		if typ == segment.None {
			if isTerminal(tok) && !(tok == "." && s.isAbbreviation(lastWord)) {
				pending = true
			}
			continue
		}
		lastWord = tok
	}
	flush()
	return sentences
}

func (s *Segmenter) isAbbreviation(word string) bool {
	if word == "" {
		return false
	}
	if r, size := utf8.DecodeRuneInString(word); size == len(word) && unicode.IsUpper(r) {
		return true
	}
	return s.abbreviations[strings.ToLower(word)]
}

func isTerminal(tok string) bool {
	switch tok {
	case ".", "!", "?", "…", "‽":
		return true
	}
	return false
}

func isCloser(tok string) bool {
	switch tok {
	case "\"", "'", "”", "’", "»", ")", "]":
		return true
	}
	return false
}

func opensSentence(tok string, typ int) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	if typ == segment.None {
		switch r {
		case '"', '\'', '“', '‘', '«', '(', '[', '—', '–', '-', '¿', '¡':
			return true
		}
		return false
	}
	return unicode.IsUpper(r) || unicode.IsDigit(r) || typ == segment.Ideo || typ == segment.Kana
}

// Normalize returns text in Unicode NFC with whitespace runs collapsed to single spaces,
// so that visually identical sentences compare and cache equally.
func Normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// Words returns the word tokens of text (letters, numbers, ideographs), dropping
// punctuation and whitespace.
func Words(text string) []string {
	var words []string
	seg := segment.NewWordSegmenterDirect([]byte(text))
	for seg.Segment() {
		if seg.Type() == segment.None {
			continue
		}
		words = append(words, string(seg.Bytes()))
	}
	return words
}

// CountTokens returns the number of word tokens in text.
func CountTokens(text string) int {
	n := 0
	seg := segment.NewWordSegmenterDirect([]byte(text))
	for seg.Segment() {
		if seg.Type() != segment.None {
			n++
		}
	}
	return n
}
