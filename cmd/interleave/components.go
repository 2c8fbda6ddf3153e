package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/hyperjump/interleave/internal/book"
	"github.com/hyperjump/interleave/internal/config"
	"github.com/hyperjump/interleave/internal/embedding"
	"github.com/hyperjump/interleave/internal/extract"
	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/session"
	"github.com/hyperjump/interleave/internal/storage"
	"github.com/hyperjump/interleave/internal/translate"
)

// Components holds the long-lived objects of one command invocation.
type Components struct {
	Storage   *storage.SQLiteStorage
	Embedder  embedding.Embedder
	Extractor *extract.Extractor
	Manager   *session.Manager
	lock      *flock.Flock
}

// Close releases the sessions, the embedder, the database and the writer lock.
func (c *Components) Close() {
	if c.Manager != nil {
		c.Manager.InvalidateAll()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.lock != nil {
		_ = c.lock.Unlock()
	}
}

// lockPath returns the writer lock file next to the cache database.
func lockPath(dbPath string) string {
	return dbPath + ".lock"
}

// acquireWriterLock takes the cache writer lock without blocking. Only one process may
// write alignment records at a time.
func acquireWriterLock(dbPath string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	lock := flock.New(lockPath(dbPath))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("cache %s is in use by another interleave process", dbPath)
	}
	return lock, nil
}

// loadBooks reads both editions named by the config.
func loadBooks(cfg *config.Config, ex *extract.Extractor) (models.Pair[*models.Book], error) {
	var books models.Pair[*models.Book]
	if cfg.Books.SourceDir == "" || cfg.Books.DestinationDir == "" {
		return books, fmt.Errorf("books.source_dir and books.destination_dir are required")
	}
	src, err := book.Load(cfg.Books.SourceDir, cfg.Books.SourceLang, ex)
	if err != nil {
		return books, fmt.Errorf("load source book: %w", err)
	}
	dst, err := book.Load(cfg.Books.DestinationDir, cfg.Books.DestinationLang, ex)
	if err != nil {
		return books, fmt.Errorf("load destination book: %w", err)
	}
	books.Src, books.Dst = src, dst
	return books, nil
}

// initializeComponents opens the cache, loads the books and builds the session manager.
// With writer set it first takes the cache writer lock.
func initializeComponents(cfg *config.Config, logger *zap.Logger, writer bool) (*Components, error) {
	c := &Components{Extractor: extract.NewExtractor()}
	if writer {
		lock, err := acquireWriterLock(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, err
		}
		c.lock = lock
	}

	books, err := loadBooks(cfg, c.Extractor)
	if err != nil {
		c.Close()
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store

	tr, err := translate.New(cfg.Translate, store, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize translator: %w", err)
	}

	c.Embedder = embedding.New(cfg.Embedding, logger)
	c.Manager = session.NewManager(cfg, books, c.Embedder, store,
		session.WithLogger(logger),
		session.WithTranslator(tr))

	logger.Info("books loaded",
		zap.String("namespace", c.Manager.Namespace()),
		zap.Int("src_chapters", len(books.Src.Chapters)),
		zap.Int("dst_chapters", len(books.Dst.Chapters)),
		zap.Int("embedding_dims", c.Embedder.Dimensions()))
	return c, nil
}
