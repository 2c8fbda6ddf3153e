// Package cli renders sessions, chapter lists and fix-up views for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/session"
	"github.com/hyperjump/interleave/pkg/utils"
)

// OutputFormat is the format of command output.
type OutputFormat string

const (
	// OutputText is human-readable tables (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat returns the OutputFormat named by s.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
	}
}

const textWidth = 90

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteChapters writes the chapter pairs of the books.
func WriteChapters(w io.Writer, entries []session.ChapterEntry, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No chapter pairs.")
		return err
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{strconv.Itoa(e.Position), e.Pair.String(), e.SrcName, e.DstName}
	}
	_, err := fmt.Fprintln(w, renderTable(
		[]string{"Pos", "Pair", "Source", "Destination"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
	return err
}

// WriteStatus writes a summary row per session.
func WriteStatus(w io.Writer, statuses []session.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, statuses)
	}
	if len(statuses) == 0 {
		_, err := fmt.Fprintln(w, "No open sessions.")
		return err
	}
	rows := make([][]string, len(statuses))
	for i, st := range statuses {
		mode := st.Mode
		if st.Manual {
			mode += " (manual)"
		}
		rows[i] = []string{
			st.Pair.String(), mode, st.State,
			fmt.Sprintf("%d/%d", st.SrcParagraphs, st.DstParagraphs),
			strconv.Itoa(st.Fixed), strconv.Itoa(st.Unmatched), strconv.Itoa(st.RemainingFlagged),
		}
	}
	_, err := fmt.Fprintln(w, renderTable(
		[]string{"Pair", "Mode", "State", "Paragraphs", "Fixed", "Unmatched", "Flagged"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}))
	if err != nil {
		return err
	}
	for _, st := range statuses {
		if st.Reason != "" {
			if _, err := fmt.Fprintf(w, "%s: %s\n", st.Pair, st.Reason); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteFixupView writes a fix-up point: the source item and the destination window,
// with the suggested index marked.
func WriteFixupView(w io.Writer, v *session.FixupView, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, v)
	}
	p := v.Point
	fmt.Fprintf(w, "\n%s %d (%d flagged remaining, last confirmed %d)\n",
		v.Mode, p.SrcIndex, p.RemainingFlagged, p.LastConfirmedDst)
	fmt.Fprintf(w, "%s\n\n", text.WrapSoft(v.Src.Text, textWidth))

	rows := make([][]string, len(v.Dst))
	for i, item := range v.Dst {
		mark := ""
		switch item.Index {
		case p.SuggestedDst:
			mark = "*"
		case p.CurrentDst:
			mark = "="
		}
		rows[i] = []string{mark, strconv.Itoa(item.Index), utils.Truncate(item.Text, textWidth)}
	}
	_, err := fmt.Fprintln(w, renderTable([]string{"", "#", "Candidate"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft}))
	return err
}

// WriteSearchHits writes destination search hits.
func WriteSearchHits(w io.Writer, hits []session.SearchHit, format OutputFormat) error {
	if format == OutputJSON {
		if hits == nil {
			hits = []session.SearchHit{}
		}
		return writeJSON(w, hits)
	}
	if len(hits) == 0 {
		_, err := fmt.Fprintln(w, "No matches.")
		return err
	}
	rows := make([][]string, len(hits))
	for i, h := range hits {
		rows[i] = []string{strconv.Itoa(h.Paragraph), fmt.Sprintf("%.3f", h.Score), utils.Truncate(h.Text, textWidth)}
	}
	_, err := fmt.Fprintln(w, renderTable([]string{"#", "Score", "Text"}, rows,
		[]columnAlignment{alignRight, alignRight, alignLeft}))
	return err
}

// WriteMerged writes the interleaved order as side/index pairs.
func WriteMerged(w io.Writer, items []models.MergedItem, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, items)
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(w, item.String()); err != nil {
			return err
		}
	}
	return nil
}
