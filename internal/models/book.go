package models

// Sentence is one sentence of a chapter with its back-reference into the paragraph list.
type Sentence struct {
	Text       string `json:"text"`
	Translated string `json:"translated,omitempty"`
	// Tokens and TranslatedTokens are word counts used to decide whether a match
	// involving this sentence is substantial enough to trust.
	Tokens           int `json:"tokens"`
	TranslatedTokens int `json:"translated_tokens,omitempty"`
	Paragraph        int `json:"paragraph"`
	InParagraph      int `json:"in_paragraph"`
}

// TextFor returns the text of the requested variant.
func (s Sentence) TextFor(v SentenceVariant) string {
	if v == Translated {
		return s.Translated
	}
	return s.Text
}

// TokensFor returns the token count of the requested variant.
func (s Sentence) TokensFor(v SentenceVariant) int {
	if v == Translated {
		return s.TranslatedTokens
	}
	return s.Tokens
}

// Paragraph is one paragraph of a chapter. Markup is re-emitted verbatim when the
// merged chapter is rendered; Text is the plain text used for segmentation.
type Paragraph struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Markup string `json:"markup,omitempty"`
}

// Chapter is an ordered list of paragraphs from one chapter file.
type Chapter struct {
	Index      int         `json:"index"`
	Name       string      `json:"name"`
	Path       string      `json:"path,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Book is one edition: a language tag and its chapters in reading order.
type Book struct {
	Dir      string    `json:"dir"`
	Lang     string    `json:"lang"`
	Chapters []Chapter `json:"chapters"`
}

// SentenceSequence is the flattened sentence list of one chapter of one edition.
// Indices are dense and 0-based; Sentences[i].Paragraph maps back to the chapter.
type SentenceSequence struct {
	Sentences  []Sentence `json:"sentences"`
	Paragraphs int        `json:"paragraphs"`
}

// Len returns the number of sentences.
func (s *SentenceSequence) Len() int { return len(s.Sentences) }

// Texts returns the sentence texts of variant v.
func (s *SentenceSequence) Texts(v SentenceVariant) []string {
	out := make([]string, len(s.Sentences))
	for i, sent := range s.Sentences {
		out[i] = sent.TextFor(v)
	}
	return out
}

// TokenLens returns the token counts of variant v.
func (s *SentenceSequence) TokenLens(v SentenceVariant) []int {
	out := make([]int, len(s.Sentences))
	for i, sent := range s.Sentences {
		out[i] = sent.TokensFor(v)
	}
	return out
}

// ParagraphOf returns the paragraph index of every sentence.
func (s *SentenceSequence) ParagraphOf() []int {
	out := make([]int, len(s.Sentences))
	for i, sent := range s.Sentences {
		out[i] = sent.Paragraph
	}
	return out
}
