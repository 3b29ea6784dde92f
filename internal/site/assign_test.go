package site

import (
	"context"
	"iter"
	"testing"

	"github.com/hyperjump/frontpage/internal/classify"
	"github.com/hyperjump/frontpage/internal/config"
	"github.com/hyperjump/frontpage/internal/models"
)

func record(created, abstract string, sentences ...string) *models.Record {
	r := &models.Record{
		Created:   created,
		Title:     "title of " + abstract,
		Abstract:  abstract,
		Sentences: sentences,
		URL:       "https://example.org/" + created,
	}
	r.Normalize()
	return r
}

func recordSeq(records ...*models.Record) iter.Seq[*models.Record] {
	return func(yield func(*models.Record) bool) {
		for _, r := range records {
			if !yield(r) {
				return
			}
		}
	}
}

// scorer builds a classifier that returns fixed scores per sentence text.
func scorer(scores map[string]map[string]float64) classify.Classifier {
	return classify.Func(func(text string) map[string]float64 {
		if s, ok := scores[text]; ok {
			return s
		}
		return map[string]float64{}
	})
}

func collect(t *testing.T, assigned iter.Seq2[*models.Record, error]) []*models.Record {
	t.Helper()
	var out []*models.Record
	for rec, err := range assigned {
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, rec)
	}
	return out
}

func TestAssign_thresholdIsStrict(t *testing.T) {
	sections := []config.SectionConfig{{Label: "a", Title: "A", Threshold: 0.6}}
	clf := scorer(map[string]map[string]float64{
		"clearly relevant": {"a": 0.9},
		"right at cutoff":  {"a": 0.6},
		"not relevant":     {"a": 0.4},
	})
	rec := record("2024-01-01", "abs", "clearly relevant", "right at cutoff", "not relevant")

	assigner := NewAssigner(clf, sections, 10, nil)
	emitted := collect(t, assigner.Assign(context.Background(), recordSeq(rec)))

	if len(emitted) != 1 {
		t.Fatalf("got %d emissions, want 1 (only the 0.9 sentence qualifies)", len(emitted))
	}
	if len(rec.Sections) != 1 || rec.Sections[0] != "a" {
		t.Errorf("sections=%v", rec.Sections)
	}
	if len(rec.Preds) != 3 {
		t.Errorf("predictions should cover every sentence: %d", len(rec.Preds))
	}
}

func TestAssign_quotaFillsInCandidateOrder(t *testing.T) {
	sections := []config.SectionConfig{
		{Label: "a", Title: "A", Threshold: 0.5},
		{Label: "b", Title: "B", Threshold: 0.5},
	}
	clf := scorer(map[string]map[string]float64{
		"both labels fire": {"a": 0.9, "b": 0.9},
		"also both":        {"a": 0.9, "b": 0.9},
	})
	first := record("2024-01-01", "first", "both labels fire")
	second := record("2024-01-02", "second", "also both")

	assigner := NewAssigner(clf, sections, 1, nil)
	collect(t, assigner.Assign(context.Background(), recordSeq(first, second)))

	// Quota 1 per section: the first record takes both slots, the second
	// gets nothing.
	if len(first.Sections) != 2 {
		t.Errorf("first record sections=%v", first.Sections)
	}
	if len(second.Sections) != 0 {
		t.Errorf("second record should be shut out by quotas: %v", second.Sections)
	}
}

func TestAssign_emitsPerQualifyingPair(t *testing.T) {
	sections := []config.SectionConfig{
		{Label: "a", Title: "A", Threshold: 0.5},
		{Label: "b", Title: "B", Threshold: 0.5},
	}
	clf := scorer(map[string]map[string]float64{
		"fires a":     {"a": 0.8, "b": 0.1},
		"fires both":  {"a": 0.8, "b": 0.8},
		"fires never": {"a": 0.1, "b": 0.1},
	})
	rec := record("2024-01-01", "abs", "fires a", "fires both", "fires never")

	assigner := NewAssigner(clf, sections, 10, nil)
	emitted := collect(t, assigner.Assign(context.Background(), recordSeq(rec)))

	if len(emitted) != 3 {
		t.Fatalf("got %d emissions, want 3 qualifying pairs", len(emitted))
	}
	for _, e := range emitted {
		if e != rec {
			t.Fatal("emissions must share the record so sections accumulate")
		}
	}
	if len(rec.Sections) != 2 {
		t.Errorf("labels must not repeat in sections: %v", rec.Sections)
	}
	if rec.Sections[0] != "a" || rec.Sections[1] != "b" {
		t.Errorf("sections order=%v", rec.Sections)
	}
}

func TestAssign_stopsWhenAllQuotasFull(t *testing.T) {
	sections := []config.SectionConfig{{Label: "a", Title: "A", Threshold: 0.5}}
	calls := 0
	clf := classify.Func(func(text string) map[string]float64 {
		calls++
		return map[string]float64{"a": 0.9}
	})
	records := recordSeq(
		record("2024-01-03", "one", "s1"),
		record("2024-01-02", "two", "s2"),
		record("2024-01-01", "three", "s3"),
	)

	assigner := NewAssigner(clf, sections, 1, nil)
	emitted := collect(t, assigner.Assign(context.Background(), records))

	if len(emitted) != 1 {
		t.Fatalf("got %d emissions, want 1", len(emitted))
	}
	if calls != 1 {
		t.Errorf("assignment should stop scoring after quotas fill, scored %d sentences", calls)
	}
}

func TestAssign_skipsSentencelessRecords(t *testing.T) {
	sections := []config.SectionConfig{{Label: "a", Title: "A", Threshold: 0.5}}
	clf := scorer(map[string]map[string]float64{"hit": {"a": 0.9}})
	empty := record("2024-01-01", "no sentences")
	full := record("2024-01-02", "has one", "hit")

	assigner := NewAssigner(clf, sections, 10, nil)
	emitted := collect(t, assigner.Assign(context.Background(), recordSeq(empty, full)))

	if len(emitted) != 1 || emitted[0].Abstract != "has one" {
		t.Fatalf("emitted=%v", emitted)
	}
}
