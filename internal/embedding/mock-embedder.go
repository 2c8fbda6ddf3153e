package embedding

import (
	"context"
	"strings"

	"github.com/hyperjump/interleave/internal/segment"
	"github.com/hyperjump/interleave/pkg/utils"
)

// MockEmbedder is a deterministic bag-of-words embedder. Each lowercased word is hashed
// into one of the dimensions (feature hashing), so texts that share words have a positive
// cosine similarity and identical texts have similarity 1. Used in tests and when no
// ONNX model is available.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns the unit-length hashed word histogram of text. Text without words
// embeds to the zero vector.
func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, w := range segment.Words(text) {
		h := HashString(strings.ToLower(w))
		sign := float32(1)
		if (h/e.dimensions)%2 == 1 {
			sign = -1
		}
		emb[h%e.dimensions] += sign
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
