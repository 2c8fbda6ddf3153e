package extract

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// paragraphGap is how much larger than the typical line spacing a vertical gap must be
// to start a new paragraph.
const paragraphGap = 1.5

// extractPDF returns the text of every page, one line per text row, with a blank line
// wherever the vertical gap between rows suggests a paragraph break. Page breaks do not
// end paragraphs.
func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		positions := make([]int64, len(rows))
		lines := make([]string, len(rows))
		for k, row := range rows {
			positions[k] = row.Position
			var line strings.Builder
			for _, t := range row.Content {
				line.WriteString(t.S)
			}
			lines[k] = line.String()
		}
		writeRows(&b, positions, lines)
	}
	return b.String(), nil
}

// writeRows writes lines in order, inserting a blank line before any row whose distance
// to the previous one exceeds paragraphGap times the median row distance.
func writeRows(b *strings.Builder, positions []int64, lines []string) {
	gaps := make([]float64, 0, len(positions))
	for k := 1; k < len(positions); k++ {
		gaps = append(gaps, math.Abs(float64(positions[k]-positions[k-1])))
	}
	typical := median(gaps)
	for k, line := range lines {
		if k > 0 && typical > 0 && gaps[k-1] > paragraphGap*typical {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return s[len(s)/2]
}
