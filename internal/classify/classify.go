// Package classify scores sentences against the curated section labels.
// The production model is a per-label logistic head over text embeddings;
// tests substitute a Func.
package classify

import "context"

// Classifier maps a text to a probability per label.
type Classifier interface {
	Predict(ctx context.Context, text string) (map[string]float64, error)
	PredictBatch(ctx context.Context, texts []string) ([]map[string]float64, error)
}

// Func adapts a plain scoring function to the Classifier interface.
type Func func(text string) map[string]float64

func (f Func) Predict(ctx context.Context, text string) (map[string]float64, error) {
	return f(text), nil
}

func (f Func) PredictBatch(ctx context.Context, texts []string) ([]map[string]float64, error) {
	out := make([]map[string]float64, len(texts))
	for i, text := range texts {
		out[i] = f(text)
	}
	return out, nil
}
