// Package train accumulates per-label annotation files into the multi-label
// training set the classifier is fitted on.
package train

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hyperjump/frontpage/internal/models"
	"github.com/hyperjump/frontpage/internal/stream"
)

// Accumulate reads <dir>/<label>.jsonl for every label and folds the
// annotations into one training example per distinct text. Answers map to
// binary outcomes (accept is 1, reject is 0, ignore is dropped); annotations
// that already carry a categories mapping contribute it directly. Labels are
// processed in alphabetical order, and within a file in line order, so on
// conflicting outcomes for the same (text, label) pair the later annotation
// wins deterministically. A missing annotation file is an error naming its
// path.
func Accumulate(dir string, labels []string) ([]*models.TrainingExample, error) {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)

	byText := make(map[string]*models.TrainingExample)
	var order []string

	upsert := func(text string) *models.TrainingExample {
		if ex, ok := byText[text]; ok {
			return ex
		}
		ex := &models.TrainingExample{Text: text, Categories: map[string]int{}}
		byText[text] = ex
		order = append(order, text)
		return ex
	}

	for _, label := range sorted {
		path := filepath.Join(dir, label+".jsonl")
		annotations, err := stream.ReadFile[models.Annotation](path)
		if err != nil {
			return nil, fmt.Errorf("annotations for label %q: %w", label, err)
		}
		for a := range annotations {
			if a.Text == "" {
				continue
			}
			if len(a.Categories) > 0 {
				ex := upsert(a.Text)
				for cat, outcome := range a.Categories {
					ex.Categories[cat] = outcome
				}
				continue
			}
			switch a.Answer {
			case models.AnswerAccept:
				upsert(a.Text).Categories[label] = 1
			case models.AnswerReject:
				upsert(a.Text).Categories[label] = 0
			}
		}
	}

	out := make([]*models.TrainingExample, 0, len(order))
	for _, text := range order {
		out = append(out, byText[text])
	}
	return out, nil
}
