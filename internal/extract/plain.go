package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/pkg/utils"
)

// extractPlain returns content as string, validating it is valid UTF-8.
// Invalid UTF-8 sequences are replaced with the replacement character.
func extractPlain(content []byte) string {
	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), "�"))
	}
	return string(content)
}

// splitBlocks splits text into paragraphs at blank lines. Line breaks inside a
// paragraph become single spaces.
func splitBlocks(text string) []models.Paragraph {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var (
		paras []models.Paragraph
		lines []string
	)
	flush := func() {
		if t := utils.CollapseSpace(strings.Join(lines, " ")); t != "" {
			paras = append(paras, models.Paragraph{Text: t})
		}
		lines = lines[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	flush()
	return paras
}
