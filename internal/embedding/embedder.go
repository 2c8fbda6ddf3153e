// Package embedding provides sentence embedding via ONNX and caching.
package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/interleave/internal/config"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New returns the ONNX embedder described by cfg. When the model cannot be loaded it
// logs a warning and falls back to the deterministic MockEmbedder so that alignment still
// runs, with bag-of-words quality.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) Embedder {
	onnxEmbedder, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to load ONNX model, falling back to mock embedder",
				zap.String("model_path", cfg.ModelPath),
				zap.Error(err))
		}
		return NewMockEmbedder(cfg.Dimensions)
	}
	return onnxEmbedder
}

// embedEach runs embed over texts, stopping at the first error or cancelled context.
func embedEach(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
