package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/interleave/internal/cli"
)

func writeStatus(w io.Writer, status statusResponse, format cli.OutputFormat) error {
	if format == cli.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	fmt.Fprintf(w, "namespace:          %s\n", status.Namespace)
	fmt.Fprintf(w, "source_dir:         %s   # %d chapters\n", status.SourceDir, status.SrcChapters)
	fmt.Fprintf(w, "destination_dir:    %s   # %d chapters\n", status.DestinationDir, status.DstChapters)
	fmt.Fprintf(w, "chapter_pairs:      %d\n", status.ChapterPairs)
	fmt.Fprintf(w, "cached_records:     %d   # alignments, matrices and fix-ups\n", status.CachedRecords)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # cache database on disk\n", *status.DiskUsageBytes)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "database_path:      %s\n", status.DatabasePath)
	fmt.Fprintf(w, "translator:         %s\n", status.Translator)
	_, err := fmt.Fprintf(w, "mode:               %s\n", status.Mode)
	return err
}
