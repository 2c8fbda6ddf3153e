// Package translate provides the machine translation collaborator used to compare
// sentences across languages, plus a persistent exact-text cache in front of it.
package translate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/interleave/internal/config"
	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/storage"
)

// Translator translates one sentence at a time.
type Translator interface {
	Translate(ctx context.Context, text string, langs models.LangPair) (string, error)
}

// Identity returns its input unchanged. It is used when both editions share a language or
// when the embedding model is multilingual.
type Identity struct{}

// Translate returns text.
func (Identity) Translate(_ context.Context, text string, _ models.LangPair) (string, error) {
	return text, nil
}

// New builds the translator selected by cfg. When store is non-nil the backend is wrapped in
// a persistent cache.
func New(cfg config.TranslateConfig, store storage.Storage, logger *zap.Logger) (Translator, error) {
	var backend Translator
	switch cfg.Kind {
	case "", "identity":
		return Identity{}, nil
	case "libretranslate":
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		backend = NewLibreTranslate(cfg.URL, cfg.APIKey, timeout)
	default:
		return nil, fmt.Errorf("unknown translator %q", cfg.Kind)
	}
	if store == nil {
		return backend, nil
	}
	return NewCached(backend, store, logger), nil
}

// All translates every text in order, stopping at the first error.
func All(ctx context.Context, t Translator, texts []string, langs models.LangPair) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr, err := t.Translate(ctx, text, langs)
		if err != nil {
			return nil, fmt.Errorf("translate sentence %d: %w", i, err)
		}
		out[i] = tr
	}
	return out, nil
}
