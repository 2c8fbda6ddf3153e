// Package extract reads a chapter file and returns its paragraphs in reading order.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/interleave/internal/models"
)

// Extractor turns chapter files into paragraphs.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

var supported = map[string]bool{
	".txt": true, ".md": true, ".rst": true,
	".html": true, ".htm": true, ".xhtml": true,
	".docx": true, ".pdf": true,
}

// Supported reports whether files with extension ext (with the leading dot) can be read
// as chapters.
func Supported(ext string) bool {
	return supported[strings.ToLower(ext)]
}

// Paragraphs reads the file at path and returns its non-empty paragraphs, indexed from 0.
func (e *Extractor) Paragraphs(path string) ([]models.Paragraph, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ParagraphsBytes(content, filepath.Ext(path))
}

// ParagraphsBytes splits content according to ext (with the leading dot).
//   - .html/.htm/.xhtml: every <p> element; Markup keeps the element as written.
//   - .docx: every w:p paragraph of the main document part.
//   - .pdf: page text split on blank lines.
//   - anything else: UTF-8 text split on blank lines.
func (e *Extractor) ParagraphsBytes(content []byte, ext string) ([]models.Paragraph, error) {
	var (
		paras []models.Paragraph
		err   error
	)
	switch strings.ToLower(ext) {
	case ".html", ".htm", ".xhtml":
		paras, err = extractHTML(content)
	case ".docx":
		paras, err = extractDOCX(content)
	case ".pdf":
		var text string
		if text, err = extractPDF(content); err == nil {
			paras = splitBlocks(text)
		}
	default:
		paras = splitBlocks(extractPlain(content))
	}
	if err != nil {
		return nil, err
	}
	for i := range paras {
		paras[i].Index = i
	}
	return paras, nil
}
