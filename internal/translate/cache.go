package translate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/segment"
	"github.com/hyperjump/interleave/internal/storage"
	"github.com/hyperjump/interleave/pkg/utils"
)

// Cached memoizes a backend in a Storage, keyed by language pair and exact input text.
type Cached struct {
	backend Translator
	store   storage.Storage
	logger  *zap.Logger
}

// NewCached wraps backend.
func NewCached(backend Translator, store storage.Storage, logger *zap.Logger) *Cached {
	return &Cached{backend: backend, store: store, logger: utils.OrNop(logger)}
}

// CacheKey returns the storage key of a translation. Text is NFC-normalized so that
// composed and decomposed accents share one entry.
func CacheKey(text string, langs models.LangPair) string {
	return storage.Key("translate", langs.String(), segment.Normalize(text))
}

// Translate returns the cached translation or asks the backend and stores the result.
func (c *Cached) Translate(ctx context.Context, text string, langs models.LangPair) (string, error) {
	key := CacheKey(text, langs)
	if v, ok, err := c.store.Get(ctx, key); err != nil {
		return "", fmt.Errorf("read translation cache: %w", err)
	} else if ok {
		return string(v), nil
	}

	out, err := c.backend.Translate(ctx, text, langs)
	if err != nil {
		return "", err
	}
	if err := c.store.Put(ctx, key, []byte(out)); err != nil {
		c.logger.Warn("failed to cache translation", zap.String("langs", langs.String()), zap.Error(err))
	}
	return out, nil
}
