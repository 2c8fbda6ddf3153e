package merge

import (
	"fmt"
	"html"
	"io"
	"strings"

	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/models"
)

// Chapters holds the two chapters being merged and their language tags.
type Chapters struct {
	Chapters models.Pair[*models.Chapter]
	Langs    models.Pair[string]
}

func (c Chapters) paragraph(item models.MergedItem) (models.Paragraph, error) {
	ch := c.Chapters.Get(item.Side)
	if ch == nil || item.Index < 0 || item.Index >= len(ch.Paragraphs) {
		return models.Paragraph{}, apperrors.NewInput("item", "no paragraph %s", item)
	}
	return ch.Paragraphs[item.Index], nil
}

// RenderHTML writes the merged chapter as an HTML fragment. Paragraphs with markup are
// wrapped in a div carrying the side and language; plain paragraphs become escaped <p>.
func RenderHTML(w io.Writer, items []models.MergedItem, c Chapters) error {
	for _, item := range items {
		p, err := c.paragraph(item)
		if err != nil {
			return err
		}
		lang := html.EscapeString(c.Langs.Get(item.Side))
		if p.Markup != "" {
			_, err = fmt.Fprintf(w, "<div class=\"%s\" lang=\"%s\">%s</div>\n", item.Side, lang, p.Markup)
		} else {
			_, err = fmt.Fprintf(w, "<p class=\"%s\" lang=\"%s\">%s</p>\n", item.Side, lang, html.EscapeString(p.Text))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// RenderText writes the merged chapter as plain text, one paragraph per block,
// each prefixed with its language tag.
func RenderText(w io.Writer, items []models.MergedItem, c Chapters) error {
	for k, item := range items {
		p, err := c.paragraph(item)
		if err != nil {
			return err
		}
		if k > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		lang := strings.ToUpper(c.Langs.Get(item.Side))
		if _, err := fmt.Fprintf(w, "[%s] %s\n", lang, p.Text); err != nil {
			return err
		}
	}
	return nil
}
