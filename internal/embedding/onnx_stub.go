//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

// Config holds ONNX embedder settings.
type Config struct {
	ModelPath     string
	TokenizerPath string
	Dimensions    int
	MaxTokens     int
	CacheSize     int
}

// ONNXEmbedder stub type when built without CGO (see onnx.go for the real implementation).
type ONNXEmbedder struct{}

// NewONNXEmbedder returns an error when built without CGO.
func NewONNXEmbedder(_ Config) (*ONNXEmbedder, error) {
	return nil, errors.New("ONNX embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

var errNoCGO = errors.New("ONNX embedder not available without CGO")

func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errNoCGO
}

func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errNoCGO
}

func (e *ONNXEmbedder) Dimensions() int { return 0 }

func (e *ONNXEmbedder) Close() error { return nil }
