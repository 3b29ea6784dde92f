package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/frontpage/internal/embedding"
	"github.com/hyperjump/frontpage/internal/models"
	"github.com/hyperjump/frontpage/pkg/utils"
)

// Linear is a set of independent logistic heads over text embeddings, one per
// label. Labels are scored independently, so a sentence can clear several
// thresholds at once.
type Linear struct {
	embedder embedding.Embedder
	labels   []string
	weights  map[string][]float32
	bias     map[string]float64
	logger   *zap.Logger
}

// TrainOptions control the SGD fit.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
}

// DefaultTrainOptions are sufficient for corpora of a few thousand examples.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Epochs: 10, LearningRate: 0.1}
}

// NewLinear creates an untrained model for the given labels.
func NewLinear(embedder embedding.Embedder, labels []string, logger *zap.Logger) *Linear {
	if logger == nil {
		logger = zap.NewNop()
	}
	weights := make(map[string][]float32, len(labels))
	bias := make(map[string]float64, len(labels))
	for _, label := range labels {
		weights[label] = make([]float32, embedder.Dimensions())
		bias[label] = 0
	}
	return &Linear{
		embedder: embedder,
		labels:   append([]string(nil), labels...),
		weights:  weights,
		bias:     bias,
		logger:   logger,
	}
}

// Train fits each label head with logistic SGD over the accumulated training
// set. An example contributes to a label only when its categories carry an
// outcome for that label.
func (m *Linear) Train(ctx context.Context, examples []*models.TrainingExample, opts TrainOptions) error {
	if opts.Epochs <= 0 {
		opts.Epochs = DefaultTrainOptions().Epochs
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainOptions().LearningRate
	}
	if len(examples) == 0 {
		return fmt.Errorf("no training examples")
	}

	texts := make([]string, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
	}
	vecs, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed training set: %w", err)
	}

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		var loss float64
		var steps int
		for i, ex := range examples {
			for _, label := range m.labels {
				outcome, ok := ex.Categories[label]
				if !ok {
					continue
				}
				y := float64(outcome)
				p := sigmoid(utils.Dot(m.weights[label], vecs[i]) + m.bias[label])
				grad := p - y
				w := m.weights[label]
				for j := range w {
					w[j] -= float32(opts.LearningRate * grad * float64(vecs[i][j]))
				}
				m.bias[label] -= opts.LearningRate * grad
				loss += logLoss(y, p)
				steps++
			}
		}
		if steps > 0 {
			m.logger.Debug("training epoch complete",
				zap.Int("epoch", epoch+1),
				zap.Float64("loss", loss/float64(steps)))
		}
	}
	m.logger.Info("model trained",
		zap.Int("examples", len(examples)),
		zap.Strings("labels", m.labels))
	return nil
}

// Predict scores one text against every label.
func (m *Linear) Predict(ctx context.Context, text string) (map[string]float64, error) {
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	return m.score(vec), nil
}

// PredictBatch scores each text, preserving input order.
func (m *Linear) PredictBatch(ctx context.Context, texts []string) ([]map[string]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	out := make([]map[string]float64, len(vecs))
	for i, vec := range vecs {
		out[i] = m.score(vec)
	}
	return out, nil
}

// Labels returns the labels this model scores.
func (m *Linear) Labels() []string {
	return append([]string(nil), m.labels...)
}

func (m *Linear) score(vec []float32) map[string]float64 {
	preds := make(map[string]float64, len(m.labels))
	for _, label := range m.labels {
		preds[label] = sigmoid(utils.Dot(m.weights[label], vec) + m.bias[label])
	}
	return preds
}

// modelFile is the on-disk JSON form of a trained model.
type modelFile struct {
	Dimensions int                  `json:"dimensions"`
	Labels     []string             `json:"labels"`
	Weights    map[string][]float32 `json:"weights"`
	Bias       map[string]float64   `json:"bias"`
}

// Save writes the model weights to path, creating parent directories.
func (m *Linear) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	data, err := json.Marshal(modelFile{
		Dimensions: m.embedder.Dimensions(),
		Labels:     m.labels,
		Weights:    m.weights,
		Bias:       m.bias,
	})
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write model file: %w", err)
	}
	return nil
}

// Load reads a trained model from path. The embedder's dimension must match
// the dimension the model was trained with.
func Load(path string, embedder embedding.Embedder, logger *zap.Logger) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file %s: %w", path, err)
	}
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("decode model file %s: %w", path, err)
	}
	if mf.Dimensions != embedder.Dimensions() {
		return nil, fmt.Errorf("model dimension mismatch: file has %d, embedder has %d",
			mf.Dimensions, embedder.Dimensions())
	}
	m := NewLinear(embedder, mf.Labels, logger)
	for _, label := range mf.Labels {
		w, ok := mf.Weights[label]
		if !ok || len(w) != mf.Dimensions {
			return nil, fmt.Errorf("model file %s: bad weights for label %q", path, label)
		}
		m.weights[label] = w
		m.bias[label] = mf.Bias[label]
	}
	return m, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func logLoss(y, p float64) float64 {
	const eps = 1e-12
	if y > 0.5 {
		return -math.Log(p + eps)
	}
	return -math.Log(1 - p + eps)
}
