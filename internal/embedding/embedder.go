// Package embedding provides text embedding via ONNX, with a deterministic
// mock for tests and builds without the onnxruntime library.
package embedding

import (
	"context"
	"hash/fnv"
)

// Embedder produces unit-length vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// hashText returns a stable hash of text, used for cache keys and the mock.
func hashText(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return h.Sum64()
}
