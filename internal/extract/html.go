package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/pkg/utils"
)

// extractHTML returns one paragraph per <p> element in document order. Paragraphs
// without text are skipped.
func extractHTML(content []byte) ([]models.Paragraph, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var paras []models.Paragraph
	var walk func(*html.Node) error
	walk = func(n *html.Node) error {
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			text := utils.CollapseSpace(nodeText(n))
			if text == "" {
				return nil
			}
			var markup strings.Builder
			if err := html.Render(&markup, n); err != nil {
				return fmt.Errorf("render paragraph: %w", err)
			}
			paras = append(paras, models.Paragraph{Text: text, Markup: markup.String()})
			return nil
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(doc); err != nil {
		return nil, err
	}
	return paras, nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
