// Package site builds the curated output: section assignment with quotas,
// per-section content assembly with sentence highlights, and the final HTML
// render.
package site

import (
	"context"
	"iter"
	"slices"

	"go.uber.org/zap"

	"github.com/hyperjump/frontpage/internal/classify"
	"github.com/hyperjump/frontpage/internal/config"
	"github.com/hyperjump/frontpage/internal/models"
)

// Assigner scores candidate records sentence by sentence and fills section
// quotas in candidate order.
type Assigner struct {
	classifier classify.Classifier
	sections   []config.SectionConfig
	quota      int
	logger     *zap.Logger
}

// NewAssigner creates an assigner over the configured sections. Quota caps
// how many qualifying sentence hits each section accepts per run.
func NewAssigner(classifier classify.Classifier, sections []config.SectionConfig, quota int, logger *zap.Logger) *Assigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assigner{classifier: classifier, sections: sections, quota: quota, logger: logger}
}

// Assign consumes candidate records and emits a record each time one of its
// sentences clears a section threshold while that section still has quota.
// The same record is emitted once per qualifying (sentence, section) pair,
// with its Sections accumulated across emissions, so a multi-topic abstract
// lands in every section it qualifies for. Sections are checked in
// configuration order for every sentence. Assignment stops early once every
// section quota is full.
func (a *Assigner) Assign(ctx context.Context, records iter.Seq[*models.Record]) iter.Seq2[*models.Record, error] {
	return func(yield func(*models.Record, error) bool) {
		tracker := make(map[string]int, len(a.sections))
		for rec := range records {
			if len(rec.Sentences) == 0 {
				continue
			}
			preds, err := a.classifier.PredictBatch(ctx, rec.Sentences)
			if err != nil {
				yield(nil, err)
				return
			}
			rec.Preds = preds
			for _, sentPreds := range preds {
				for _, sec := range a.sections {
					if tracker[sec.Label] >= a.quota {
						continue
					}
					if sentPreds[sec.Label] <= sec.Threshold {
						continue
					}
					tracker[sec.Label]++
					if !slices.Contains(rec.Sections, sec.Label) {
						rec.Sections = append(rec.Sections, sec.Label)
					}
					if !yield(rec, nil) {
						return
					}
				}
			}
			if a.allFull(tracker) {
				a.logger.Debug("all section quotas reached")
				return
			}
		}
	}
}

func (a *Assigner) allFull(tracker map[string]int) bool {
	for _, sec := range a.sections {
		if tracker[sec.Label] < a.quota {
			return false
		}
	}
	return true
}
