package main

import (
	"errors"
	"io/fs"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/interleave/internal/book"
	"github.com/hyperjump/interleave/internal/config"
	"github.com/hyperjump/interleave/internal/extract"
	"github.com/hyperjump/interleave/internal/fileid"
	"github.com/hyperjump/interleave/internal/session"
)

// reloader reloads the books when chapter file contents change. Events that leave a
// file's content hash unchanged (touch, editor save without edits) are ignored.
type reloader struct {
	cfg     *config.Config
	ex      *extract.Extractor
	manager *session.Manager
	logger  *zap.Logger

	mu   sync.Mutex
	sums map[string]string
}

func newReloader(cfg *config.Config, ex *extract.Extractor, manager *session.Manager, logger *zap.Logger) *reloader {
	r := &reloader{cfg: cfg, ex: ex, manager: manager, logger: logger, sums: make(map[string]string)}
	for _, dir := range []string{cfg.Books.SourceDir, cfg.Books.DestinationDir} {
		paths, err := book.ChapterFiles(dir)
		if err != nil {
			logger.Warn("list chapter files failed", zap.String("dir", dir), zap.Error(err))
			continue
		}
		r.changed(paths)
	}
	return r
}

// changed updates the stored hashes of paths and reports whether any content changed.
func (r *reloader) changed(paths []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	dirty := false
	for _, p := range paths {
		sum, err := fileid.FileFingerprint(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if _, ok := r.sums[p]; ok {
					delete(r.sums, p)
					dirty = true
				}
				continue
			}
			r.logger.Warn("fingerprint chapter failed", zap.String("path", p), zap.Error(err))
			dirty = true
			continue
		}
		if r.sums[p] != sum {
			r.sums[p] = sum
			dirty = true
		}
	}
	return dirty
}

// onChange is the watcher callback.
func (r *reloader) onChange(paths []string) {
	if !r.changed(paths) {
		r.logger.Debug("chapter files touched without content change", zap.Strings("paths", paths))
		return
	}
	books, err := loadBooks(r.cfg, r.ex)
	if err != nil {
		r.logger.Warn("reload books failed", zap.Error(err))
		return
	}
	closed := r.manager.SetBooks(books)
	r.logger.Info("books reloaded",
		zap.Strings("changed", paths),
		zap.Int("closed_sessions", closed),
		zap.Int("src_chapters", len(books.Src.Chapters)),
		zap.Int("dst_chapters", len(books.Dst.Chapters)))
}
