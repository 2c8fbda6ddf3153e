// Package export writes alignment reviews as spreadsheets so that a chapter's paragraph
// mapping can be proofread outside the interactive session.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/interleave/internal/merge"
	"github.com/hyperjump/interleave/internal/models"
)

// Sheet names of a review workbook.
const (
	AlignmentSheet = "Alignment"
	MergedSheet    = "Merged"
)

// Row status labels.
const (
	StatusFixed     = "fixed"
	StatusFlagged   = "flagged"
	StatusUnmatched = "unmatched"
)

// Review is everything needed to lay out one chapter pair.
type Review struct {
	Pair     models.ChapterPair
	Langs    models.Pair[string]
	Chapters models.Pair[*models.Chapter]
	Mapping  []int
	Flags    []bool
	Fixed    []int
}

const textColumnWidth = 70

// WriteXLSX writes r as a workbook with two sheets: the paragraph mapping, one row per
// source paragraph, and the interleaved reading order.
func WriteXLSX(w io.Writer, r Review) error {
	if r.Chapters.Src == nil || r.Chapters.Dst == nil {
		return fmt.Errorf("review of %s is missing a chapter", r.Pair)
	}
	if len(r.Mapping) != len(r.Chapters.Src.Paragraphs) {
		return fmt.Errorf("mapping covers %d paragraphs, chapter has %d", len(r.Mapping), len(r.Chapters.Src.Paragraphs))
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return fmt.Errorf("wrap style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", AlignmentSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeAlignment(f, r, header, wrap); err != nil {
		return err
	}
	if _, err := f.NewSheet(MergedSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeMerged(f, r, header, wrap); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeAlignment(f *excelize.File, r Review, header, wrap int) error {
	src, dst := r.Chapters.Src, r.Chapters.Dst
	fixed := make(map[int]bool, len(r.Fixed))
	for _, i := range r.Fixed {
		fixed[i] = true
	}

	cols := []string{"#", r.Langs.Src, "#", r.Langs.Dst, "status"}
	if err := writeRow(f, AlignmentSheet, 1, cols); err != nil {
		return err
	}
	for i, d := range r.Mapping {
		status := ""
		switch {
		case fixed[i]:
			status = StatusFixed
		case i < len(r.Flags) && r.Flags[i]:
			status = StatusFlagged
		case d == models.Unmatched:
			status = StatusUnmatched
		}
		row := []any{i, src.Paragraphs[i].Text, "", "", status}
		if d >= 0 && d < len(dst.Paragraphs) {
			row[2], row[3] = d, dst.Paragraphs[d].Text
		}
		if err := writeRow(f, AlignmentSheet, i+2, row); err != nil {
			return err
		}
	}
	return layout(f, AlignmentSheet, header, wrap, len(cols), len(r.Mapping)+1, "B", "D")
}

func writeMerged(f *excelize.File, r Review, header, wrap int) error {
	items, err := merge.Interleave(r.Mapping, len(r.Chapters.Src.Paragraphs), len(r.Chapters.Dst.Paragraphs))
	if err != nil {
		return fmt.Errorf("merge %s: %w", r.Pair, err)
	}
	if err := writeRow(f, MergedSheet, 1, []string{"lang", "#", "text"}); err != nil {
		return err
	}
	for i, item := range items {
		ch := r.Chapters.Get(item.Side)
		row := []any{r.Langs.Get(item.Side), item.Index, ch.Paragraphs[item.Index].Text}
		if err := writeRow(f, MergedSheet, i+2, row); err != nil {
			return err
		}
	}
	return layout(f, MergedSheet, header, wrap, 3, len(items)+1, "C", "C")
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// layout styles the header row, wraps the text columns and freezes the header.
func layout(f *excelize.File, sheet string, header, wrap, ncols, nrows int, firstText, lastText string) error {
	last, err := excelize.CoordinatesToCellName(ncols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if nrows > 1 {
		if err := f.SetCellStyle(sheet, firstText+"2", fmt.Sprintf("%s%d", lastText, nrows), wrap); err != nil {
			return fmt.Errorf("style text: %w", err)
		}
	}
	if err := f.SetColWidth(sheet, firstText, lastText, textColumnWidth); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
