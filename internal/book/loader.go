// Package book loads the two editions from disk and prepares chapters for alignment.
package book

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/hyperjump/interleave/internal/extract"
	"github.com/hyperjump/interleave/internal/models"
)

// ChapterFiles returns the chapter files of dir in reading order. Files are ordered by
// the trailing integer of their stem ("ch2" before "ch12"); files without one sort after
// the numbered files, lexically. Hidden files and unsupported extensions are skipped.
func ChapterFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read book dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !extract.Supported(filepath.Ext(name)) {
			continue
		}
		names = append(names, name)
	}

	sort.SliceStable(names, func(i, j int) bool {
		ni, oki := chapterNumber(names[i])
		nj, okj := chapterNumber(names[j])
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return names[i] < names[j]
		}
	})

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// chapterNumber parses the trailing run of digits of the file stem.
func chapterNumber(name string) (int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	end := len(stem)
	start := end
	for start > 0 && unicode.IsDigit(rune(stem[start-1])) {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(stem[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Load reads every chapter of the edition in dir.
func Load(dir, lang string, ex *extract.Extractor) (*models.Book, error) {
	paths, err := ChapterFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no chapter files in %s", dir)
	}

	b := &models.Book{Dir: dir, Lang: lang, Chapters: make([]models.Chapter, 0, len(paths))}
	for i, path := range paths {
		paras, err := ex.Paragraphs(path)
		if err != nil {
			return nil, fmt.Errorf("chapter %s: %w", filepath.Base(path), err)
		}
		name := filepath.Base(path)
		b.Chapters = append(b.Chapters, models.Chapter{
			Index:      i,
			Name:       strings.TrimSuffix(name, filepath.Ext(name)),
			Path:       path,
			Paragraphs: paras,
		})
	}
	return b, nil
}
