package book

import (
	"context"
	"fmt"

	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/segment"
	"github.com/hyperjump/interleave/internal/translate"
)

// Preparer turns chapters into sentence sequences: segmentation, token counts, and the
// translation of every sentence whose side aligns on its translated variant.
type Preparer struct {
	Segmenters models.Pair[*segment.Segmenter]
	Langs      models.Pair[string]
	Variants   models.Pair[models.SentenceVariant]
	Translator translate.Translator
}

// NewPreparer builds a Preparer for the two languages.
func NewPreparer(langs models.Pair[string], variants models.Pair[models.SentenceVariant], tr translate.Translator) *Preparer {
	if tr == nil {
		tr = translate.Identity{}
	}
	return &Preparer{
		Segmenters: models.Pair[*segment.Segmenter]{Src: segment.New(langs.Src), Dst: segment.New(langs.Dst)},
		Langs:      langs,
		Variants:   variants,
		Translator: tr,
	}
}

// Prepare segments ch, which belongs to side, into a SentenceSequence. Every sentence
// keeps its paragraph and in-paragraph positions. Translated variants are filled in only
// for the side configured to align on them.
func (p *Preparer) Prepare(ctx context.Context, side models.Side, ch *models.Chapter) (*models.SentenceSequence, error) {
	seg := p.Segmenters.Get(side)
	seq := &models.SentenceSequence{Paragraphs: len(ch.Paragraphs)}
	for pi, para := range ch.Paragraphs {
		for si, text := range seg.Split(segment.Normalize(para.Text)) {
			seq.Sentences = append(seq.Sentences, models.Sentence{
				Text:        text,
				Tokens:      segment.CountTokens(text),
				Paragraph:   pi,
				InParagraph: si,
			})
		}
	}

	if p.Variants.Get(side) != models.Translated {
		return seq, nil
	}
	langs := models.LangPair{From: p.Langs.Get(side), To: p.Langs.Get(side.Other())}
	translated, err := translate.All(ctx, p.Translator, seq.Texts(models.Original), langs)
	if err != nil {
		return nil, fmt.Errorf("translate %s chapter %d: %w", side, ch.Index, err)
	}
	for i, tr := range translated {
		seq.Sentences[i].Translated = tr
		seq.Sentences[i].TranslatedTokens = segment.CountTokens(tr)
	}
	return seq, nil
}
