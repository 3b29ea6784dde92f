//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/frontpage/pkg/utils"
)

// Config holds ONNX embedder settings.
type Config struct {
	ModelPath     string
	TokenizerPath string
	Dimensions    int
	MaxTokens     int
	CacheSize     int
}

// ONNXEmbedder produces sentence embeddings by mean-pooling the token
// embeddings of a transformer encoder. Requires CGO and the onnxruntime
// shared library.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	tk         *tokenizer.Tokenizer
	dimensions int
	maxTokens  int
	cache      *Cache

	// Tensors are allocated once; Run reads and writes them in place.
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
	mu            sync.Mutex
}

// NewONNXEmbedder loads the model and tokenizer. InitializeEnvironment is
// called if not already done.
func NewONNXEmbedder(cfg Config) (*ONNXEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", cfg.TokenizerPath, err)
	}

	maxTokens := cfg.MaxTokens
	inputIDs, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), make([]int64, maxTokens))
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	attentionMask, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), make([]int64, maxTokens))
	if err != nil {
		inputIDs.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	tokenTypeIDs, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), make([]int64, maxTokens))
	if err != nil {
		inputIDs.Destroy()
		attentionMask.Destroy()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	output, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens), int64(cfg.Dimensions)),
		make([]float32, maxTokens*cfg.Dimensions))
	if err != nil {
		inputIDs.Destroy()
		attentionMask.Destroy()
		tokenTypeIDs.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		[]ort.ArbitraryTensor{inputIDs, attentionMask, tokenTypeIDs},
		[]ort.ArbitraryTensor{output},
		nil,
	)
	if err != nil {
		inputIDs.Destroy()
		attentionMask.Destroy()
		tokenTypeIDs.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to load model %s: %w", cfg.ModelPath, err)
	}

	return &ONNXEmbedder{
		session:       session,
		tk:            tk,
		dimensions:    cfg.Dimensions,
		maxTokens:     maxTokens,
		cache:         NewCache(cfg.CacheSize),
		inputIDs:      inputIDs,
		attentionMask: attentionMask,
		tokenTypeIDs:  tokenTypeIDs,
		output:        output,
	}, nil
}

// Embed returns the mean-pooled, normalized embedding for text.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	en, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	ids := en.GetIds()
	if len(ids) > e.maxTokens {
		ids = ids[:e.maxTokens]
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inputData := e.inputIDs.GetData()
	maskData := e.attentionMask.GetData()
	typeData := e.tokenTypeIDs.GetData()
	for i := 0; i < e.maxTokens; i++ {
		if i < len(ids) {
			inputData[i] = int64(ids[i])
			maskData[i] = 1
		} else {
			inputData[i] = 0
			maskData[i] = 0
		}
		typeData[i] = 0
	}

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}

	// Mean pooling over attended token positions.
	hidden := e.output.GetData()
	vec := make([]float32, e.dimensions)
	count := len(ids)
	if count == 0 {
		count = 1
	}
	for i := 0; i < count && i < e.maxTokens; i++ {
		offset := i * e.dimensions
		for j := 0; j < e.dimensions; j++ {
			vec[j] += hidden[offset+j]
		}
	}
	for j := range vec {
		vec[j] /= float32(count)
	}
	utils.NormalizeL2(vec)

	e.cache.Set(text, vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int { return e.dimensions }

// Close releases the session and tensors.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	for _, t := range []*ort.Tensor[int64]{e.inputIDs, e.attentionMask, e.tokenTypeIDs} {
		if t != nil {
			t.Destroy()
		}
	}
	if e.output != nil {
		e.output.Destroy()
	}
	return nil
}
